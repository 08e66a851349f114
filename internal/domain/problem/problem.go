package problem

import (
	"time"

	"github.com/mathclub/daily-practice-bot/internal/domain/shared"
)

// Tier is a difficulty band. Each tier maps to one or two expression shapes
// and a fixed count of problems per day.
type Tier string

const (
	TierEasy    Tier = "easy"
	TierMedium  Tier = "medium"
	TierHard    Tier = "hard"
	TierDivEasy Tier = "div_easy"
	TierDivHard Tier = "div_hard"
)

// AllTiers lists the tiers in catalog order. Ordinals for a date are assigned
// tier by tier in this order.
var AllTiers = []Tier{TierEasy, TierMedium, TierHard, TierDivEasy, TierDivHard}

// IsValid checks if the tier is one of the supported bands.
func (t Tier) IsValid() bool {
	switch t {
	case TierEasy, TierMedium, TierHard, TierDivEasy, TierDivHard:
		return true
	default:
		return false
	}
}

// Problem is one catalog entry: an exercise scheduled for a date at a
// zero-based ordinal position within that date.
type Problem struct {
	Date    time.Time
	Ordinal int
	Display string
	Answer  int
	Tokens  []Token
}

// Validate checks the structural invariants of a catalog entry: the display
// and token forms must both be present and the tokens must evaluate to the
// stored answer.
func (p *Problem) Validate() error {
	if p.Ordinal < 0 {
		return shared.NewDomainError("catalog", "Validate", shared.ErrValidation, "negative ordinal")
	}
	if p.Display == "" {
		return shared.NewDomainError("catalog", "Validate", shared.ErrValidation, "empty display expression")
	}
	if len(p.Tokens) == 0 {
		return shared.NewDomainError("catalog", "Validate", shared.ErrValidation, "empty token sequence")
	}
	got, err := EvalPostfix(p.Tokens)
	if err != nil {
		return err
	}
	if got != p.Answer {
		return shared.NewDomainError("catalog", "Validate", shared.ErrInconsistency,
			"stored answer does not match token evaluation")
	}
	return nil
}
