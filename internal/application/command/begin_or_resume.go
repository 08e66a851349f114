package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/mathclub/daily-practice-bot/internal/domain/problem"
	"github.com/mathclub/daily-practice-bot/internal/domain/progress"
	"github.com/mathclub/daily-practice-bot/internal/domain/shared"
	"github.com/mathclub/daily-practice-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// BEGIN OR RESUME COMMAND
// Resolves what a learner should work on right now: the first unfinished
// problem of today, a finished day, or an empty calendar. Presenting a
// problem opens its attempt, so a learner who walks away resumes at the
// same spot.
// ══════════════════════════════════════════════════════════════════════════════

// BeginOrResumeCommand asks for the learner's current position in today's set.
type BeginOrResumeCommand struct {
	// LearnerID is the learner's Telegram user ID.
	LearnerID int64
}

// Validate validates the command.
func (c BeginOrResumeCommand) Validate() error {
	if c.LearnerID == 0 {
		return errors.New("begin_or_resume: learner_id is required")
	}
	return nil
}

// BeginOrResumeResult contains the resolved position.
type BeginOrResumeResult struct {
	Kind    ResultKind
	Problem *ProblemView // set when Kind == ResultProblem
	Total   int
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// BeginOrResumeHandler handles the BeginOrResumeCommand.
type BeginOrResumeHandler struct {
	catalog problem.Catalog
	ledger  progress.Ledger
	clock   *timeutil.Clock
	locks   *learnerLocks
}

// NewBeginOrResumeHandler creates a new BeginOrResumeHandler.
func NewBeginOrResumeHandler(
	catalog problem.Catalog,
	ledger progress.Ledger,
	clock *timeutil.Clock,
	locks *LockSet,
) *BeginOrResumeHandler {
	return &BeginOrResumeHandler{
		catalog: catalog,
		ledger:  ledger,
		clock:   clock,
		locks:   locks.inner,
	}
}

// Handle executes the begin or resume command.
func (h *BeginOrResumeHandler) Handle(ctx context.Context, cmd BeginOrResumeCommand) (*BeginOrResumeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("begin_or_resume: validation failed: %w", err)
	}

	unlock := h.locks.lock(cmd.LearnerID)
	defer unlock()

	date := h.clock.Today()

	total, err := h.catalog.CountForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("begin_or_resume: count problems: %w", err)
	}

	attempts, err := h.ledger.ListForLearner(ctx, date, cmd.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("begin_or_resume: list attempts: %w", err)
	}

	action := progress.NextFor(total, attempts)
	switch action.Kind {
	case progress.ActionNoProblems:
		return &BeginOrResumeResult{Kind: ResultNoProblems}, nil

	case progress.ActionDayComplete:
		return &BeginOrResumeResult{Kind: ResultDayComplete, Total: total}, nil
	}

	p, err := h.catalog.GetByOrdinal(ctx, date, action.Ordinal)
	if err != nil {
		if shared.IsNotFound(err) {
			// The count said this ordinal exists. A missing row here is a
			// corrupted catalog, not a user-visible state.
			return nil, shared.WrapError("progress", "BeginOrResume", shared.ErrInconsistency,
				fmt.Sprintf("ordinal %d missing despite count %d", action.Ordinal, total), err)
		}
		return nil, fmt.Errorf("begin_or_resume: fetch problem: %w", err)
	}

	if err := h.ledger.EnsureOpen(ctx, date, action.Ordinal, cmd.LearnerID); err != nil {
		return nil, fmt.Errorf("begin_or_resume: open attempt: %w", err)
	}

	return &BeginOrResumeResult{
		Kind: ResultProblem,
		Problem: &ProblemView{
			Display:  p.Display,
			Position: action.Position(),
			Total:    total,
		},
		Total: total,
	}, nil
}
