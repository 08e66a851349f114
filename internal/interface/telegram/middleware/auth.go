// Package middleware contains Telegram bot middlewares for update processing.
package middleware

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT KEYS
// ══════════════════════════════════════════════════════════════════════════════

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// LearnerIDContextKey is the context key for the authenticated learner ID.
	LearnerIDContextKey contextKey = "learner_id"

	// IsAdminContextKey is the context key for the supervisor flag.
	IsAdminContextKey contextKey = "is_admin"
)

// LearnerIDFrom extracts the authenticated learner ID from the context.
func LearnerIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(LearnerIDContextKey).(int64)
	return id, ok
}

// IsAdminFrom reports whether the context belongs to a supervisor.
func IsAdminFrom(ctx context.Context) bool {
	isAdmin, _ := ctx.Value(IsAdminContextKey).(bool)
	return isAdmin
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH MIDDLEWARE
// Access control is a static whitelist: the bot serves a small club, so
// there is no registration flow. Unlisted users are told to ask a
// supervisor for enrollment; nothing they send reaches the handlers.
// ══════════════════════════════════════════════════════════════════════════════

// AuthMiddleware checks incoming user IDs against the whitelist.
type AuthMiddleware struct {
	allowed map[int64]bool
	admins  map[int64]bool
}

// NewAuthMiddleware creates the middleware from the whitelist and admin list.
// Admins are always allowed, listed or not.
func NewAuthMiddleware(whitelist, admins []int64) *AuthMiddleware {
	m := &AuthMiddleware{
		allowed: make(map[int64]bool, len(whitelist)),
		admins:  make(map[int64]bool, len(admins)),
	}
	for _, id := range whitelist {
		m.allowed[id] = true
	}
	for _, id := range admins {
		m.admins[id] = true
	}
	return m
}

// Check decides whether the user may interact with the bot. On success it
// returns a context annotated with the learner ID and admin flag.
func (m *AuthMiddleware) Check(ctx context.Context, telegramID int64) (context.Context, bool) {
	if !m.allowed[telegramID] && !m.admins[telegramID] {
		return ctx, false
	}

	ctx = context.WithValue(ctx, LearnerIDContextKey, telegramID)
	ctx = context.WithValue(ctx, IsAdminContextKey, m.admins[telegramID])
	return ctx, true
}

// IsAdmin reports whether the ID is on the admin list.
func (m *AuthMiddleware) IsAdmin(telegramID int64) bool {
	return m.admins[telegramID]
}
