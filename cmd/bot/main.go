// Package main is the entry point for the daily practice Telegram bot.
//
// The bot serves one small math club: every whitelisted learner gets a fixed
// set of arithmetic problems per day, answers them one by one in a private
// chat, and supervisors are notified when a learner finishes the day.
//
// The layering follows Clean Architecture:
// - Domain: problem generation and progress rules, no external dependencies
// - Application: command handlers orchestrating catalog and ledger
// - Infrastructure: Postgres, Redis, Telegram API, scheduler, event bus
// - Interface: the Telegram router and handlers
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mathclub/daily-practice-bot/config"
	"github.com/mathclub/daily-practice-bot/internal/application/command"
	"github.com/mathclub/daily-practice-bot/internal/domain/problem"
	"github.com/mathclub/daily-practice-bot/internal/domain/shared"
	"github.com/mathclub/daily-practice-bot/internal/infrastructure/external/telegram"
	"github.com/mathclub/daily-practice-bot/internal/infrastructure/messaging"
	"github.com/mathclub/daily-practice-bot/internal/infrastructure/persistence/postgres"
	"github.com/mathclub/daily-practice-bot/internal/infrastructure/persistence/redis"
	"github.com/mathclub/daily-practice-bot/internal/infrastructure/scheduler"
	"github.com/mathclub/daily-practice-bot/internal/infrastructure/scheduler/jobs"
	"github.com/mathclub/daily-practice-bot/internal/infrastructure/service"
	botiface "github.com/mathclub/daily-practice-bot/internal/interface/telegram"
	"github.com/mathclub/daily-practice-bot/internal/interface/telegram/handler"
	"github.com/mathclub/daily-practice-bot/pkg/timeutil"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting daily practice bot",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. PRACTICE CLOCK
	// ─────────────────────────────────────────────────────────────────────────
	clock, err := buildClock(cfg)
	if err != nil {
		return err
	}
	log.Info("practice calendar ready", "today", timeutil.FormatDate(clock.Today()))

	// ─────────────────────────────────────────────────────────────────────────
	// 4. DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	dbConn, err := postgres.NewConnection(ctx, cfg.Database.URL,
		int32(cfg.Database.MaxOpenConns), int32(cfg.Database.MaxIdleConns))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}

	log.Info("running database migrations")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var catalog problem.Catalog = postgres.NewCatalogRepository(dbConn)
	var guard command.CompletionGuard = command.NewInMemoryCompletionGuard()

	if !cfg.Redis.Disabled {
		cache, cacheErr := connectRedis(ctx, cfg)
		if cacheErr != nil {
			log.Warn("redis unavailable, continuing without cache", "error", cacheErr)
		} else {
			defer cache.Close()
			catalog = redis.NewCatalogCache(cache, catalog, cfg.Redis.CatalogTTL)
			guard = redis.NewCompletionGuard(cache, cfg.Redis.CatalogTTL)
			log.Info("redis connection established")
		}
	}

	ledger := postgres.NewLedgerRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. TELEGRAM CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	clientConfig := telegram.DefaultClientConfig(cfg.Telegram.Token)
	clientConfig.Timeout = cfg.Telegram.PollingTimeout + clientConfig.Timeout
	clientConfig.Logger = log
	client := telegram.NewClient(clientConfig)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. SUPERVISOR NOTIFICATIONS
	// ─────────────────────────────────────────────────────────────────────────
	notifier := service.NewNotifier(client, cfg.Telegram.AdminIDs, log)
	if err := eventBus.Subscribe(shared.EventDayCompleted, notifier.DayCompletedHandler()); err != nil {
		return fmt.Errorf("subscribe day completed: %w", err)
	}
	if err := eventBus.Subscribe(shared.EventCatalogShortage, notifier.CatalogShortageHandler()); err != nil {
		return fmt.Errorf("subscribe catalog shortage: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	generator, err := problem.NewGenerator(cfg.Generator.Domain())
	if err != nil {
		return fmt.Errorf("build generator: %w", err)
	}

	locks := command.NewLockSet()
	beginOrResume := command.NewBeginOrResumeHandler(catalog, ledger, clock, locks)
	submitAnswer := command.NewSubmitAnswerHandler(catalog, ledger, clock, locks, guard, eventBus)
	generateDay := command.NewGenerateDayHandler(generator, catalog, eventBus)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(log, cfg.App.Location)
	if cfg.Scheduler.Enabled {
		generateJob := jobs.NewGenerateDailyJob(generateDay, clock, log)
		generateAt := scheduler.NewDailyAtSchedule(
			cfg.Scheduler.GenerateHour, cfg.Scheduler.GenerateMinute, cfg.App.Location)
		if err := sched.Register(generateJob, generateAt); err != nil {
			return fmt.Errorf("register generate job: %w", err)
		}

		checkJob := jobs.NewCheckTomorrowJob(catalog, eventBus, clock, log)
		checkAt := scheduler.NewDailyAtSchedule(
			cfg.Scheduler.ShortageHour, cfg.Scheduler.ShortageMinute, cfg.App.Location)
		if err := sched.Register(checkJob, checkAt); err != nil {
			return fmt.Errorf("register shortage job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler")
			_ = sched.Stop()
		}()
	} else {
		log.Warn("scheduler disabled, daily generation must be run manually")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. TELEGRAM BOT
	// ─────────────────────────────────────────────────────────────────────────
	router := botiface.NewRouter(log)
	startHandler := handler.NewStartHandler(beginOrResume, log)
	router.RegisterCommand("start", startHandler)
	router.RegisterCommand("today", startHandler)
	router.RegisterCommand("help", handler.NewHelpHandler())
	router.RegisterText(handler.NewAnswerHandler(submitAnswer, log))

	bot := botiface.NewBot(client, router, botiface.BotConfig{
		Whitelist:   cfg.Telegram.Whitelist,
		AdminIDs:    cfg.Telegram.AdminIDs,
		StopTimeout: cfg.App.ShutdownTimeout,
	}, log)

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Start(ctx); err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("telegram bot: %w", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 12. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("daily practice bot is running",
		"learners", len(cfg.Telegram.Whitelist),
		"supervisors", len(cfg.Telegram.AdminIDs),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	log.Info("starting graceful shutdown", "timeout", cfg.App.ShutdownTimeout.String())
	bot.Stop()
	log.Info("shutdown completed")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// buildClock returns the real calendar clock, or a pinned one when
// CUSTOM_TODAY is set.
func buildClock(cfg *config.Config) (*timeutil.Clock, error) {
	if cfg.App.CustomToday == "" {
		return timeutil.NewClock(cfg.App.Location), nil
	}
	date, err := timeutil.ParseDate(cfg.App.CustomToday, cfg.App.Location)
	if err != nil {
		return nil, fmt.Errorf("parse CUSTOM_TODAY: %w", err)
	}
	return timeutil.NewFixedClock(cfg.App.Location, date), nil
}

// connectRedis builds a Cache from either the URL or host/port settings.
func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Cache, error) {
	var cache *redis.Cache
	var err error

	if cfg.Redis.URL != "" {
		cache, err = redis.NewCacheFromURL(cfg.Redis.URL)
	} else {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout
		cache, err = redis.NewCache(redisCfg)
	}
	if err != nil {
		return nil, err
	}

	if err := cache.Ping(ctx); err != nil {
		_ = cache.Close()
		return nil, err
	}
	return cache, nil
}

// setupLogger configures structured logging per the observability settings.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Observability.LogLevel)}
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

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
