// Package main is the operations entry point for the daily practice engine.
//
// The worker runs one task and exits. It exists for deploys where the bot's
// in-process scheduler is disabled and an external cron triggers the daily
// work, and for operators who need to backfill a specific date.
//
// Tasks:
//   - migrate: apply pending database migrations
//   - generate: fill the catalog for a date (default: today)
//   - check: warn supervisors if tomorrow's catalog is empty
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mathclub/daily-practice-bot/config"
	"github.com/mathclub/daily-practice-bot/internal/application/command"
	"github.com/mathclub/daily-practice-bot/internal/domain/problem"
	"github.com/mathclub/daily-practice-bot/internal/domain/shared"
	"github.com/mathclub/daily-practice-bot/internal/infrastructure/external/telegram"
	"github.com/mathclub/daily-practice-bot/internal/infrastructure/messaging"
	"github.com/mathclub/daily-practice-bot/internal/infrastructure/persistence/postgres"
	"github.com/mathclub/daily-practice-bot/internal/infrastructure/service"
	"github.com/mathclub/daily-practice-bot/pkg/timeutil"
)

func main() {
	task := flag.String("task", "", "task to run: migrate, generate, check")
	dateFlag := flag.String("date", "", "target date for generate (YYYY-MM-DD, default today)")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall task timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *task, *dateFlag); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, task, dateFlag string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting worker", "task", task, "env", cfg.App.Environment)

	clock := timeutil.NewClock(cfg.App.Location)
	if cfg.App.CustomToday != "" {
		pinned, err := timeutil.ParseDate(cfg.App.CustomToday, cfg.App.Location)
		if err != nil {
			return fmt.Errorf("parse CUSTOM_TODAY: %w", err)
		}
		clock = timeutil.NewFixedClock(cfg.App.Location, pinned)
	}

	dbConn, err := postgres.NewConnection(ctx, cfg.Database.URL,
		int32(cfg.Database.MaxOpenConns), int32(cfg.Database.MaxIdleConns))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer dbConn.Close()

	switch task {
	case "migrate":
		return runMigrate(ctx, dbConn, log)
	case "generate":
		return runGenerate(ctx, cfg, dbConn, clock, dateFlag, log)
	case "check":
		return runCheck(ctx, cfg, dbConn, clock, log)
	case "":
		return fmt.Errorf("missing -task flag (migrate, generate, check)")
	default:
		return fmt.Errorf("unknown task %q", task)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TASKS
// ══════════════════════════════════════════════════════════════════════════════

func runMigrate(ctx context.Context, conn *postgres.Connection, log *slog.Logger) error {
	migrator := postgres.NewMigrator(conn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("migration status unavailable", "error", err)
		return nil
	}

	applied := 0
	for _, m := range status {
		if m.IsApplied {
			applied++
		}
	}
	log.Info("migrations up to date", "applied", applied, "total", len(status))
	return nil
}

func runGenerate(
	ctx context.Context,
	cfg *config.Config,
	conn *postgres.Connection,
	clock *timeutil.Clock,
	dateFlag string,
	log *slog.Logger,
) error {
	date := clock.Today()
	if dateFlag != "" {
		parsed, err := timeutil.ParseDate(dateFlag, cfg.App.Location)
		if err != nil {
			return fmt.Errorf("parse -date: %w", err)
		}
		date = parsed
	}

	generator, err := problem.NewGenerator(cfg.Generator.Domain())
	if err != nil {
		return fmt.Errorf("build generator: %w", err)
	}

	catalog := postgres.NewCatalogRepository(conn)
	handler := command.NewGenerateDayHandler(generator, catalog, nil)

	result, err := handler.Handle(ctx, command.GenerateDayCommand{Date: date})
	if err != nil {
		return fmt.Errorf("generate day: %w", err)
	}

	if result.AlreadyFilled {
		log.Info("catalog already filled", "date", timeutil.FormatDate(date))
	} else {
		log.Info("catalog filled", "date", timeutil.FormatDate(date), "count", result.Generated)
	}
	return nil
}

func runCheck(
	ctx context.Context,
	cfg *config.Config,
	conn *postgres.Connection,
	clock *timeutil.Clock,
	log *slog.Logger,
) error {
	catalog := postgres.NewCatalogRepository(conn)
	tomorrow := clock.Tomorrow()

	count, err := catalog.CountForDate(ctx, tomorrow)
	if err != nil {
		return fmt.Errorf("count tomorrow: %w", err)
	}

	if count > 0 {
		log.Info("tomorrow is covered", "date", timeutil.FormatDate(tomorrow), "count", count)
		return nil
	}

	log.Warn("tomorrow has no problems scheduled", "date", timeutil.FormatDate(tomorrow))

	if len(cfg.Telegram.AdminIDs) == 0 {
		return nil
	}

	// The event bus runs synchronously here so the notification is delivered
	// before the process exits.
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.AsyncMode = false
	busConfig.Logger = log
	bus := messaging.NewInMemoryEventBus(busConfig)
	defer bus.Close()

	client := telegram.NewClient(telegram.DefaultClientConfig(cfg.Telegram.Token))
	notifier := service.NewNotifier(client, cfg.Telegram.AdminIDs, log)
	if err := bus.Subscribe(shared.EventCatalogShortage, notifier.CatalogShortageHandler()); err != nil {
		return fmt.Errorf("subscribe shortage handler: %w", err)
	}

	return bus.Publish(shared.NewCatalogShortageEvent(tomorrow))
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var h slog.Handler
	if cfg.Observability.LogFormat == "text" || cfg.IsDevelopment() {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(h)
	slog.SetDefault(log)
	return log
}
