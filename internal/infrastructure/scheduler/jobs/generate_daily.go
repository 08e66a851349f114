// Package jobs contains implementations of scheduled jobs for the practice
// engine: filling the catalog for the current date and warning supervisors
// when the next date is still empty.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mathclub/daily-practice-bot/internal/application/command"
	"github.com/mathclub/daily-practice-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE DAILY JOB
// ══════════════════════════════════════════════════════════════════════════════

// GenerateDailyJob fills today's catalog if it is still empty. Safe to run
// repeatedly; an already filled day is left alone.
type GenerateDailyJob struct {
	handler *command.GenerateDayHandler
	clock   *timeutil.Clock
	logger  *slog.Logger
	timeout time.Duration
}

// NewGenerateDailyJob creates the job.
func NewGenerateDailyJob(handler *command.GenerateDayHandler, clock *timeutil.Clock, logger *slog.Logger) *GenerateDailyJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateDailyJob{
		handler: handler,
		clock:   clock,
		logger:  logger,
		timeout: 2 * time.Minute,
	}
}

// Name implements scheduler.Job.
func (j *GenerateDailyJob) Name() string {
	return "generate_daily"
}

// Description implements scheduler.Job.
func (j *GenerateDailyJob) Description() string {
	return "Generates the problem set for the current practice date"
}

// Run implements scheduler.Job.
func (j *GenerateDailyJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	date := j.clock.Today()

	result, err := j.handler.Handle(ctx, command.GenerateDayCommand{Date: date})
	if err != nil {
		return fmt.Errorf("generate daily: %w", err)
	}

	if result.AlreadyFilled {
		j.logger.Info("catalog already filled",
			"date", timeutil.FormatDate(date),
		)
		return nil
	}

	j.logger.Info("catalog filled",
		"date", timeutil.FormatDate(date),
		"count", result.Generated,
	)
	return nil
}
