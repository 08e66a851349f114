package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mathclub/daily-practice-bot/internal/domain/problem"
	"github.com/mathclub/daily-practice-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CatalogRepository implements problem.Catalog for PostgreSQL. Problems are
// stored in the daily table keyed by (date, number), with the expression kept
// both as its display string and as a postfix token array.
type CatalogRepository struct {
	conn *Connection
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(conn *Connection) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

var _ problem.Catalog = (*CatalogRepository)(nil)

// SaveDay stores all problems for a date in one transaction. The day must be
// empty and the ordinals dense from zero; partial writes never survive.
func (r *CatalogRepository) SaveDay(ctx context.Context, date time.Time, problems []*problem.Problem) error {
	if err := checkDenseOrdinals(problems); err != nil {
		return err
	}

	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		var existing int
		err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM daily WHERE date = $1`, date,
		).Scan(&existing)
		if err != nil {
			return shared.WrapError("catalog", "SaveDay", shared.ErrStoreUnavailable,
				"failed to count existing problems", err)
		}
		if existing > 0 {
			return shared.ErrDayNotEmpty
		}

		for _, p := range problems {
			_, err := tx.Exec(ctx, `
				INSERT INTO daily (date, number, exp_string, answer, exp)
				VALUES ($1, $2, $3, $4, $5)
			`, date, p.Ordinal, p.Display, p.Answer, problem.FormatTokens(p.Tokens))
			if err != nil {
				if IsUniqueViolation(err) {
					return shared.ErrDayNotEmpty
				}
				return shared.WrapError("catalog", "SaveDay", shared.ErrStoreUnavailable,
					fmt.Sprintf("failed to insert problem %d", p.Ordinal), err)
			}
		}
		return nil
	})
}

// GetByOrdinal fetches one problem for a date.
func (r *CatalogRepository) GetByOrdinal(ctx context.Context, date time.Time, ordinal int) (*problem.Problem, error) {
	query := `
		SELECT date, number, exp_string, answer, exp
		FROM daily
		WHERE date = $1 AND number = $2
	`

	row := r.conn.QueryRow(ctx, query, date, ordinal)
	p, err := scanProblem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrProblemNotFound
		}
		return nil, err
	}
	return p, nil
}

// CountForDate returns how many problems are scheduled for the date.
func (r *CatalogRepository) CountForDate(ctx context.Context, date time.Time) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM daily WHERE date = $1`, date,
	).Scan(&count)
	if err != nil {
		return 0, shared.WrapError("catalog", "CountForDate", shared.ErrStoreUnavailable,
			"failed to count problems", err)
	}
	return count, nil
}

// GetDay returns all problems for a date ordered by ordinal.
func (r *CatalogRepository) GetDay(ctx context.Context, date time.Time) ([]*problem.Problem, error) {
	query := `
		SELECT date, number, exp_string, answer, exp
		FROM daily
		WHERE date = $1
		ORDER BY number
	`

	rows, err := r.conn.Query(ctx, query, date)
	if err != nil {
		return nil, shared.WrapError("catalog", "GetDay", shared.ErrStoreUnavailable,
			"failed to query day", err)
	}
	defer rows.Close()

	var problems []*problem.Problem
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, err
		}
		problems = append(problems, p)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.WrapError("catalog", "GetDay", shared.ErrStoreUnavailable,
			"failed to iterate day rows", err)
	}
	return problems, nil
}

// scanProblem scans one daily row into a domain problem. A token array that
// fails to parse marks catalog corruption, not a query failure.
func scanProblem(row pgx.Row) (*problem.Problem, error) {
	var (
		p   problem.Problem
		raw []string
	)
	if err := row.Scan(&p.Date, &p.Ordinal, &p.Display, &p.Answer, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, shared.WrapError("catalog", "scan", shared.ErrStoreUnavailable,
			"failed to scan problem row", err)
	}

	tokens, err := problem.ParseTokens(raw)
	if err != nil {
		return nil, shared.WrapError("catalog", "scan", shared.ErrInconsistency,
			fmt.Sprintf("corrupt token array for %s ordinal %d", p.Date.Format("2006-01-02"), p.Ordinal), err)
	}
	p.Tokens = tokens
	return &p, nil
}

// checkDenseOrdinals verifies problems cover 0..n-1 exactly once.
func checkDenseOrdinals(problems []*problem.Problem) error {
	if len(problems) == 0 {
		return shared.NewDomainError("catalog", "SaveDay", shared.ErrValidation, "empty problem set")
	}
	seen := make(map[int]bool, len(problems))
	for _, p := range problems {
		if p.Ordinal < 0 || p.Ordinal >= len(problems) || seen[p.Ordinal] {
			return shared.ErrSparseOrdinals
		}
		seen[p.Ordinal] = true
	}
	return nil
}
