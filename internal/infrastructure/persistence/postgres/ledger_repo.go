package postgres

import (
	"context"
	"time"

	"github.com/mathclub/daily-practice-bot/internal/domain/progress"
	"github.com/mathclub/daily-practice-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LedgerRepository implements progress.Ledger for PostgreSQL. Attempts live in
// the tries table keyed by (date, number, user_id).
type LedgerRepository struct {
	conn *Connection
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(conn *Connection) *LedgerRepository {
	return &LedgerRepository{conn: conn}
}

var _ progress.Ledger = (*LedgerRepository)(nil)

// EnsureOpen inserts an open attempt if none exists. The conflict clause makes
// re-presenting a problem a no-op, so completion state is never reset.
func (r *LedgerRepository) EnsureOpen(ctx context.Context, date time.Time, ordinal int, learnerID int64) error {
	query := `
		INSERT INTO tries (date, number, user_id, completed)
		VALUES ($1, $2, $3, FALSE)
		ON CONFLICT (date, number, user_id) DO NOTHING
	`

	_, err := r.conn.Exec(ctx, query, date, ordinal, learnerID)
	if err != nil {
		return shared.WrapError("ledger", "EnsureOpen", shared.ErrStoreUnavailable,
			"failed to insert attempt", err)
	}
	return nil
}

// MarkCompleted flips an open attempt to completed. The completed = FALSE
// guard keeps the transition one way; a second call changes nothing and
// reports ErrAttemptCompleted.
func (r *LedgerRepository) MarkCompleted(ctx context.Context, date time.Time, ordinal int, learnerID int64) (bool, error) {
	query := `
		UPDATE tries
		SET completed = TRUE
		WHERE date = $1 AND number = $2 AND user_id = $3 AND completed = FALSE
	`

	tag, err := r.conn.Exec(ctx, query, date, ordinal, learnerID)
	if err != nil {
		return false, shared.WrapError("ledger", "MarkCompleted", shared.ErrStoreUnavailable,
			"failed to update attempt", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Nothing changed: either the attempt is already completed or it was
	// never opened. Distinguish the two for the caller.
	var exists bool
	err = r.conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM tries WHERE date = $1 AND number = $2 AND user_id = $3)`,
		date, ordinal, learnerID,
	).Scan(&exists)
	if err != nil {
		return false, shared.WrapError("ledger", "MarkCompleted", shared.ErrStoreUnavailable,
			"failed to check attempt existence", err)
	}
	if !exists {
		return false, shared.ErrAttemptNotFound
	}
	return false, shared.ErrAttemptCompleted
}

// ListForLearner returns the learner's attempts for a date ordered by ordinal.
func (r *LedgerRepository) ListForLearner(ctx context.Context, date time.Time, learnerID int64) ([]progress.Attempt, error) {
	query := `
		SELECT date, number, user_id, completed
		FROM tries
		WHERE date = $1 AND user_id = $2
		ORDER BY number
	`

	rows, err := r.conn.Query(ctx, query, date, learnerID)
	if err != nil {
		return nil, shared.WrapError("ledger", "ListForLearner", shared.ErrStoreUnavailable,
			"failed to query attempts", err)
	}
	defer rows.Close()

	var attempts []progress.Attempt
	for rows.Next() {
		var a progress.Attempt
		if err := rows.Scan(&a.Date, &a.Ordinal, &a.LearnerID, &a.Completed); err != nil {
			return nil, shared.WrapError("ledger", "ListForLearner", shared.ErrStoreUnavailable,
				"failed to scan attempt row", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.WrapError("ledger", "ListForLearner", shared.ErrStoreUnavailable,
			"failed to iterate attempt rows", err)
	}
	return attempts, nil
}
