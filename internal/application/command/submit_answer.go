package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mathclub/daily-practice-bot/internal/domain/problem"
	"github.com/mathclub/daily-practice-bot/internal/domain/progress"
	"github.com/mathclub/daily-practice-bot/internal/domain/shared"
	"github.com/mathclub/daily-practice-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT ANSWER COMMAND
// Grades a learner's answer against the current problem. The comparison is
// exact text against the decimal answer, so "06" is wrong for 6. A correct
// answer completes the attempt and moves the learner forward; completing the
// last problem publishes a day completion event exactly once.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAnswerCommand carries a learner's answer text.
type SubmitAnswerCommand struct {
	// LearnerID is the learner's Telegram user ID.
	LearnerID int64

	// Text is the raw answer as typed, surrounding whitespace and all.
	Text string
}

// Validate validates the command.
func (c SubmitAnswerCommand) Validate() error {
	if c.LearnerID == 0 {
		return errors.New("submit_answer: learner_id is required")
	}
	return nil
}

// SubmitAnswerResult contains the grading outcome and the learner's new
// position.
type SubmitAnswerResult struct {
	Kind ResultKind

	// Correct reports whether the submitted text matched. Only meaningful
	// when an answer was actually graded (Graded is true).
	Correct bool
	Graded  bool

	// Problem is the problem to show next: the same one after a wrong
	// answer, the following one after a correct answer mid-day.
	Problem *ProblemView

	// DayCompleted is true when this submission finished the day just now.
	DayCompleted bool

	Total int
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAnswerHandler handles the SubmitAnswerCommand.
type SubmitAnswerHandler struct {
	catalog   problem.Catalog
	ledger    progress.Ledger
	clock     *timeutil.Clock
	locks     *learnerLocks
	guard     CompletionGuard
	publisher shared.EventPublisher
}

// NewSubmitAnswerHandler creates a new SubmitAnswerHandler.
func NewSubmitAnswerHandler(
	catalog problem.Catalog,
	ledger progress.Ledger,
	clock *timeutil.Clock,
	locks *LockSet,
	guard CompletionGuard,
	publisher shared.EventPublisher,
) *SubmitAnswerHandler {
	return &SubmitAnswerHandler{
		catalog:   catalog,
		ledger:    ledger,
		clock:     clock,
		locks:     locks.inner,
		guard:     guard,
		publisher: publisher,
	}
}

// Handle executes the submit answer command.
func (h *SubmitAnswerHandler) Handle(ctx context.Context, cmd SubmitAnswerCommand) (*SubmitAnswerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("submit_answer: validation failed: %w", err)
	}

	unlock := h.locks.lock(cmd.LearnerID)
	defer unlock()

	date := h.clock.Today()

	total, err := h.catalog.CountForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("submit_answer: count problems: %w", err)
	}

	attempts, err := h.ledger.ListForLearner(ctx, date, cmd.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("submit_answer: list attempts: %w", err)
	}

	action := progress.NextFor(total, attempts)
	switch action.Kind {
	case progress.ActionNoProblems:
		return &SubmitAnswerResult{Kind: ResultNoProblems}, nil

	case progress.ActionDayComplete:
		// An answer with nothing left to grade. Not an error; the learner
		// just sees the day summary again.
		return &SubmitAnswerResult{Kind: ResultDayComplete, Total: total}, nil
	}

	current, err := h.catalog.GetByOrdinal(ctx, date, action.Ordinal)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.WrapError("progress", "SubmitAnswer", shared.ErrInconsistency,
				fmt.Sprintf("ordinal %d missing despite count %d", action.Ordinal, total), err)
		}
		return nil, fmt.Errorf("submit_answer: fetch problem: %w", err)
	}

	// The attempt may not be open yet if the learner answered without ever
	// asking for the problem. Open it so the completion update has a row.
	if err := h.ledger.EnsureOpen(ctx, date, action.Ordinal, cmd.LearnerID); err != nil {
		return nil, fmt.Errorf("submit_answer: open attempt: %w", err)
	}

	if !answerMatches(cmd.Text, current.Answer) {
		return &SubmitAnswerResult{
			Kind:   ResultProblem,
			Graded: true,
			Problem: &ProblemView{
				Display:  current.Display,
				Position: action.Position(),
				Total:    total,
			},
			Total: total,
		}, nil
	}

	if _, err := h.ledger.MarkCompleted(ctx, date, action.Ordinal, cmd.LearnerID); err != nil {
		// Another session may have completed the same attempt between the
		// list and the update. The relist below sees the final state either
		// way, so this is not a failure.
		if !errors.Is(err, shared.ErrAttemptCompleted) {
			return nil, fmt.Errorf("submit_answer: mark completed: %w", err)
		}
	}

	// Recompute the position with the fresh completion.
	attempts, err = h.ledger.ListForLearner(ctx, date, cmd.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("submit_answer: relist attempts: %w", err)
	}

	next := progress.NextFor(total, attempts)
	if next.Kind == progress.ActionDayComplete {
		result := &SubmitAnswerResult{
			Kind:    ResultDayComplete,
			Graded:  true,
			Correct: true,
			Total:   total,
		}
		first, err := h.guard.FirstCompletion(ctx, cmd.LearnerID, date)
		if err != nil {
			// Guard failure must not undo the learner's progress. Skip the
			// notification rather than risk a duplicate or a lost answer.
			return result, nil
		}
		if first {
			result.DayCompleted = true
			_ = h.publisher.Publish(shared.NewDayCompletedEvent(cmd.LearnerID, date, total))
		}
		return result, nil
	}

	following, err := h.catalog.GetByOrdinal(ctx, date, next.Ordinal)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.WrapError("progress", "SubmitAnswer", shared.ErrInconsistency,
				fmt.Sprintf("ordinal %d missing despite count %d", next.Ordinal, total), err)
		}
		return nil, fmt.Errorf("submit_answer: fetch next problem: %w", err)
	}

	if err := h.ledger.EnsureOpen(ctx, date, next.Ordinal, cmd.LearnerID); err != nil {
		return nil, fmt.Errorf("submit_answer: open next attempt: %w", err)
	}

	return &SubmitAnswerResult{
		Kind:    ResultProblem,
		Graded:  true,
		Correct: true,
		Problem: &ProblemView{
			Display:  following.Display,
			Position: next.Position(),
			Total:    total,
		},
		Total: total,
	}, nil
}

// answerMatches compares the submitted text with the stored answer. The match
// is exact after trimming surrounding whitespace: no leading zeros, no signs,
// no decimal points.
func answerMatches(text string, answer int) bool {
	return strings.TrimSpace(text) == strconv.Itoa(answer)
}
