package problem

import (
	"context"
	"time"
)

// Catalog persists scheduled problems keyed by (date, ordinal).
type Catalog interface {
	// SaveDay stores a full day's problems atomically. It fails with
	// ErrDayNotEmpty if the date already has problems and with
	// ErrSparseOrdinals if the ordinals are not dense from zero.
	SaveDay(ctx context.Context, date time.Time, problems []*Problem) error

	// GetByOrdinal fetches one problem. Returns an error wrapping ErrNotFound
	// when the ordinal does not exist for the date.
	GetByOrdinal(ctx context.Context, date time.Time, ordinal int) (*Problem, error)

	// CountForDate returns how many problems are scheduled for the date.
	CountForDate(ctx context.Context, date time.Time) (int, error)

	// GetDay returns all problems for the date ordered by ordinal.
	GetDay(ctx context.Context, date time.Time) ([]*Problem, error)
}
