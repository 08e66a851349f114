package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOVERY MIDDLEWARE
// Catches panics in handlers so one bad update cannot take down the polling
// loop. The panic is logged with its stack; the update is dropped.
// ══════════════════════════════════════════════════════════════════════════════

// RecoveryMiddleware converts handler panics into logged errors.
type RecoveryMiddleware struct {
	logger *slog.Logger
}

// NewRecoveryMiddleware creates the middleware.
func NewRecoveryMiddleware(logger *slog.Logger) *RecoveryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecoveryMiddleware{logger: logger}
}

// Wrap runs fn and recovers from any panic, returning it as an error.
func (m *RecoveryMiddleware) Wrap(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			m.logger.Error("handler panic recovered",
				"panic", p,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()

	return fn(ctx)
}
