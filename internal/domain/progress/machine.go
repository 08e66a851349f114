package progress

// ActionKind classifies what the learner should see next.
type ActionKind int

const (
	// ActionPresent means a problem at NextAction.Ordinal should be shown.
	ActionPresent ActionKind = iota
	// ActionDayComplete means every scheduled problem has a completed attempt.
	ActionDayComplete
	// ActionNoProblems means nothing is scheduled for the date. This is not
	// the same as a completed day and must never trigger a completion.
	ActionNoProblems
)

// NextAction is the state machine's verdict for one learner and date.
type NextAction struct {
	Kind    ActionKind
	Ordinal int // valid when Kind == ActionPresent
	Total   int // problems scheduled for the date
}

// Position returns the one-based display position of the current problem,
// for "problem N of M" messages.
func (a NextAction) Position() int {
	return a.Ordinal + 1
}

// NextFor decides what a learner sees next: the lowest ordinal with no
// completed attempt, or day completion once none remains. Attempts at
// ordinals outside [0, total) are ignored.
func NextFor(total int, attempts []Attempt) NextAction {
	if total == 0 {
		return NextAction{Kind: ActionNoProblems}
	}

	done := make(map[int]bool, len(attempts))
	for _, a := range attempts {
		if a.Completed && a.Ordinal >= 0 && a.Ordinal < total {
			done[a.Ordinal] = true
		}
	}

	for ordinal := 0; ordinal < total; ordinal++ {
		if !done[ordinal] {
			return NextAction{Kind: ActionPresent, Ordinal: ordinal, Total: total}
		}
	}
	return NextAction{Kind: ActionDayComplete, Total: total}
}
