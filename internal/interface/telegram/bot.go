package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mathclub/daily-practice-bot/internal/infrastructure/external/telegram"
	"github.com/mathclub/daily-practice-bot/internal/interface/telegram/middleware"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// ══════════════════════════════════════════════════════════════════════════════

// replyNotEnrolled is sent once per message to users outside the whitelist.
const replyNotEnrolled = "This bot serves a private practice group. Ask your supervisor to enroll you."

// BotConfig contains bot behavior settings.
type BotConfig struct {
	// Whitelist contains learner IDs allowed to use the bot.
	Whitelist []int64

	// AdminIDs contains supervisor IDs. Supervisors are always allowed in.
	AdminIDs []int64

	// StopTimeout bounds graceful shutdown.
	StopTimeout time.Duration
}

// Bot ties the Telegram client, the router, and the middlewares into a
// long polling loop.
type Bot struct {
	client   *telegram.Client
	router   *Router
	auth     *middleware.AuthMiddleware
	recovery *middleware.RecoveryMiddleware
	config   BotConfig
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewBot assembles the bot.
func NewBot(client *telegram.Client, router *Router, config BotConfig, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	if config.StopTimeout <= 0 {
		config.StopTimeout = 10 * time.Second
	}

	return &Bot{
		client:   client,
		router:   router,
		auth:     middleware.NewAuthMiddleware(config.Whitelist, config.AdminIDs),
		recovery: middleware.NewRecoveryMiddleware(logger),
		config:   config,
		logger:   logger,
	}
}

// Start begins long polling. It blocks until the context is canceled or Stop
// is called.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf("bot already running")
	}

	pollCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	b.running = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.running = false
		close(b.done)
		b.mu.Unlock()
	}()

	me, err := b.client.GetMe(pollCtx)
	if err != nil {
		return fmt.Errorf("bot identity check: %w", err)
	}
	b.logger.Info("bot authorized", "username", me.Username, "id", me.ID)

	// Webhook and long polling are mutually exclusive on the Telegram side.
	if err := b.client.DeleteWebhook(pollCtx, false); err != nil {
		return fmt.Errorf("clear webhook: %w", err)
	}

	return b.client.StartPolling(pollCtx, b.handleUpdate)
}

// Stop cancels polling and waits for the loop to drain.
func (b *Bot) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	done := b.done
	running := b.running
	b.mu.Unlock()

	if !running || cancel == nil {
		return
	}

	cancel()

	select {
	case <-done:
	case <-time.After(b.config.StopTimeout):
		b.logger.Warn("bot stop timed out")
	}
}

// handleUpdate applies auth and recovery, then routes.
func (b *Bot) handleUpdate(ctx context.Context, update *telegram.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return nil
	}

	// The bot is one-on-one tutoring; group chatter is not answered.
	if !telegram.IsPrivateChat(msg) {
		return nil
	}

	authCtx, allowed := b.auth.Check(ctx, msg.From.ID)
	if !allowed {
		b.logger.Debug("rejecting unlisted user", "user_id", msg.From.ID)
		if _, err := b.client.SendText(ctx, msg.Chat.ID, replyNotEnrolled); err != nil {
			b.logger.Debug("rejection reply failed", "user_id", msg.From.ID, "error", err)
		}
		return nil
	}

	return b.recovery.Wrap(authCtx, func(ctx context.Context) error {
		return b.router.Route(ctx, b.client, update)
	})
}
