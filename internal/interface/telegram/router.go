// Package telegram implements the Telegram bot interface for the practice
// engine. It is the entry point for all learner interactions: routing
// updates, applying middleware, and managing the bot lifecycle.
package telegram

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mathclub/daily-practice-bot/internal/infrastructure/external/telegram"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT TYPES
// ══════════════════════════════════════════════════════════════════════════════

// CommandContext contains context for command handling.
type CommandContext struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// ChatID is the chat ID where the command was sent.
	ChatID int64

	// Command is the command name without the leading slash.
	Command string

	// Message is the original Telegram message.
	Message *telegram.Message

	// Client is the Telegram client for sending responses.
	Client *telegram.Client
}

// TextContext contains context for plain text handling. In this bot every
// non-command text is an answer submission.
type TextContext struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// ChatID is the chat ID.
	ChatID int64

	// Text is the raw message text.
	Text string

	// Message is the original message.
	Message *telegram.Message

	// Client is the Telegram client for sending responses.
	Client *telegram.Client
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// CommandHandler is the interface for command handlers.
type CommandHandler interface {
	Handle(ctx context.Context, cmdCtx CommandContext) error
}

// CommandHandlerFunc adapts a function to CommandHandler.
type CommandHandlerFunc func(ctx context.Context, cmdCtx CommandContext) error

// Handle implements CommandHandler.
func (f CommandHandlerFunc) Handle(ctx context.Context, cmdCtx CommandContext) error {
	return f(ctx, cmdCtx)
}

// TextHandler is the interface for plain text handlers.
type TextHandler interface {
	Handle(ctx context.Context, textCtx TextContext) error
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// ══════════════════════════════════════════════════════════════════════════════

// Router dispatches updates to command and text handlers.
type Router struct {
	commands    map[string]CommandHandler
	textHandler TextHandler
	logger      *slog.Logger
}

// NewRouter creates an empty router.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		commands: make(map[string]CommandHandler),
		logger:   logger,
	}
}

// RegisterCommand registers a handler for a command (without the slash).
func (r *Router) RegisterCommand(name string, handler CommandHandler) {
	r.commands[strings.ToLower(name)] = handler
}

// RegisterText registers the handler for non-command text messages.
func (r *Router) RegisterText(handler TextHandler) {
	r.textHandler = handler
}

// Route dispatches one update. Updates without a usable message are ignored.
func (r *Router) Route(ctx context.Context, client *telegram.Client, update *telegram.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return nil
	}

	if cmd := telegram.ExtractCommand(msg); cmd != "" {
		handler, ok := r.commands[strings.ToLower(cmd)]
		if !ok {
			r.logger.Debug("unknown command", "command", cmd, "user", msg.From.ID)
			return nil
		}
		return handler.Handle(ctx, CommandContext{
			TelegramID: msg.From.ID,
			ChatID:     msg.Chat.ID,
			Command:    cmd,
			Message:    msg,
			Client:     client,
		})
	}

	if msg.Text == "" || r.textHandler == nil {
		return nil
	}

	return r.textHandler.Handle(ctx, TextContext{
		TelegramID: msg.From.ID,
		ChatID:     msg.Chat.ID,
		Text:       msg.Text,
		Message:    msg,
		Client:     client,
	})
}
