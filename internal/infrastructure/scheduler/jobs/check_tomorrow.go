package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mathclub/daily-practice-bot/internal/domain/problem"
	"github.com/mathclub/daily-practice-bot/internal/domain/shared"
	"github.com/mathclub/daily-practice-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK TOMORROW JOB
// ══════════════════════════════════════════════════════════════════════════════

// CheckTomorrowJob inspects tomorrow's catalog and raises a shortage event
// when it is empty, giving supervisors the evening to intervene before
// learners find an empty day.
type CheckTomorrowJob struct {
	catalog   problem.Catalog
	publisher shared.EventPublisher
	clock     *timeutil.Clock
	logger    *slog.Logger
	timeout   time.Duration
}

// NewCheckTomorrowJob creates the job.
func NewCheckTomorrowJob(
	catalog problem.Catalog,
	publisher shared.EventPublisher,
	clock *timeutil.Clock,
	logger *slog.Logger,
) *CheckTomorrowJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckTomorrowJob{
		catalog:   catalog,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		timeout:   time.Minute,
	}
}

// Name implements scheduler.Job.
func (j *CheckTomorrowJob) Name() string {
	return "check_tomorrow"
}

// Description implements scheduler.Job.
func (j *CheckTomorrowJob) Description() string {
	return "Warns supervisors when tomorrow has no problems scheduled"
}

// Run implements scheduler.Job.
func (j *CheckTomorrowJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	tomorrow := j.clock.Tomorrow()

	count, err := j.catalog.CountForDate(ctx, tomorrow)
	if err != nil {
		return fmt.Errorf("check tomorrow: %w", err)
	}

	if count > 0 {
		j.logger.Info("tomorrow is covered",
			"date", timeutil.FormatDate(tomorrow),
			"count", count,
		)
		return nil
	}

	j.logger.Warn("tomorrow has no problems scheduled",
		"date", timeutil.FormatDate(tomorrow),
	)
	return j.publisher.Publish(shared.NewCatalogShortageEvent(tomorrow))
}
