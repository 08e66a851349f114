package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mathclub/daily-practice-bot/internal/domain/problem"
	"github.com/mathclub/daily-practice-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE DAY COMMAND
// Fills one calendar date with a fresh problem set. Running it against a date
// that already has problems is a no-op, so the scheduler and a manual
// operator run cannot double-fill a day.
// ══════════════════════════════════════════════════════════════════════════════

// GenerateDayCommand names the date to fill.
type GenerateDayCommand struct {
	Date time.Time
}

// Validate validates the command.
func (c GenerateDayCommand) Validate() error {
	if c.Date.IsZero() {
		return errors.New("generate_day: date is required")
	}
	return nil
}

// GenerateDayResult reports what happened to the date.
type GenerateDayResult struct {
	// Generated is the number of problems written. Zero when the day was
	// already filled.
	Generated int

	// AlreadyFilled is true when the date had problems and nothing was done.
	AlreadyFilled bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GenerateDayHandler handles the GenerateDayCommand.
type GenerateDayHandler struct {
	generator *problem.Generator
	catalog   problem.Catalog
	publisher shared.EventPublisher
}

// NewGenerateDayHandler creates a new GenerateDayHandler.
func NewGenerateDayHandler(
	generator *problem.Generator,
	catalog problem.Catalog,
	publisher shared.EventPublisher,
) *GenerateDayHandler {
	return &GenerateDayHandler{
		generator: generator,
		catalog:   catalog,
		publisher: publisher,
	}
}

// Handle executes the generate day command.
func (h *GenerateDayHandler) Handle(ctx context.Context, cmd GenerateDayCommand) (*GenerateDayResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("generate_day: validation failed: %w", err)
	}

	existing, err := h.catalog.CountForDate(ctx, cmd.Date)
	if err != nil {
		return nil, fmt.Errorf("generate_day: count existing: %w", err)
	}
	if existing > 0 {
		return &GenerateDayResult{AlreadyFilled: true}, nil
	}

	problems, err := h.generator.GenerateDay(cmd.Date)
	if err != nil {
		return nil, fmt.Errorf("generate_day: generate: %w", err)
	}

	if err := h.catalog.SaveDay(ctx, cmd.Date, problems); err != nil {
		// A concurrent fill between the count and the save is fine; the
		// day ended up filled either way.
		if errors.Is(err, shared.ErrAlreadyExists) {
			return &GenerateDayResult{AlreadyFilled: true}, nil
		}
		return nil, fmt.Errorf("generate_day: save: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewDayGeneratedEvent(cmd.Date, len(problems)))
	}

	return &GenerateDayResult{Generated: len(problems)}, nil
}
