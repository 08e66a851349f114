package progress

import (
	"context"
	"time"
)

// Ledger persists attempts keyed by (date, ordinal, learner).
type Ledger interface {
	// EnsureOpen records that the problem was presented to the learner.
	// Inserting an attempt that already exists is a no-op, so presenting the
	// same problem twice never resets its completion.
	EnsureOpen(ctx context.Context, date time.Time, ordinal int, learnerID int64) error

	// MarkCompleted flips an open attempt to completed. It reports whether
	// the call changed the row. Marking an already completed attempt changes
	// nothing and returns ErrAttemptCompleted; a missing attempt is an error
	// wrapping ErrNotFound.
	MarkCompleted(ctx context.Context, date time.Time, ordinal int, learnerID int64) (bool, error)

	// ListForLearner returns the learner's attempts for the date ordered by
	// ordinal.
	ListForLearner(ctx context.Context, date time.Time, learnerID int64) ([]Attempt, error)
}
