// Package service implements infrastructure services that sit between the
// domain and external systems. The notifier fans completion and shortage
// messages out to supervisors over Telegram.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mathclub/daily-practice-bot/internal/domain/shared"
	"github.com/mathclub/daily-practice-bot/internal/infrastructure/external/telegram"
	"github.com/mathclub/daily-practice-bot/pkg/retry"
	"github.com/mathclub/daily-practice-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUPERVISOR NOTIFIER
// ══════════════════════════════════════════════════════════════════════════════

// Sender is the slice of the Telegram client the notifier needs.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) (*telegram.Message, error)
}

// Notifier delivers practice engine notifications to the supervisor list.
// Each recipient is handled independently; one blocked supervisor never
// stops delivery to the rest.
type Notifier struct {
	sender     Sender
	recipients []int64
	retrier    *retry.Retrier
	logger     *slog.Logger
	timeout    time.Duration
}

// NewNotifier creates a Notifier for the given supervisor IDs.
func NewNotifier(sender Sender, recipients []int64, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		sender:     sender,
		recipients: recipients,
		retrier: retry.New(
			retry.WithMaxAttempts(3),
			retry.WithInitialDelay(500*time.Millisecond),
			retry.WithMaxDelay(10*time.Second),
		),
		logger:  logger,
		timeout: 30 * time.Second,
	}
}

// NotifyDayComplete tells every supervisor that a learner finished a day.
func (n *Notifier) NotifyDayComplete(ctx context.Context, learnerID int64, date time.Time, total int) {
	text := fmt.Sprintf("Learner %d finished all %d problems for %s.",
		learnerID, total, timeutil.FormatDate(date))
	n.broadcast(ctx, "day_complete", text)
}

// NotifyShortage warns every supervisor that a date has no problems scheduled.
func (n *Notifier) NotifyShortage(ctx context.Context, date time.Time) {
	text := fmt.Sprintf("No problems are scheduled for %s. Generation needs attention.",
		timeutil.FormatDate(date))
	n.broadcast(ctx, "shortage", text)
}

// broadcast sends the text to all recipients concurrently. Each delivery gets
// its own ID so retries and failures can be traced per recipient.
func (n *Notifier) broadcast(ctx context.Context, kind, text string) {
	if len(n.recipients) == 0 {
		n.logger.Warn("no supervisors configured, dropping notification", "kind", kind)
		return
	}

	var wg sync.WaitGroup
	for _, chatID := range n.recipients {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			n.deliver(ctx, kind, chatID, text)
		}(chatID)
	}
	wg.Wait()
}

// deliver sends one message with retries. Permanent Telegram errors (blocked
// bot, bad chat) stop the retry loop early.
func (n *Notifier) deliver(ctx context.Context, kind string, chatID int64, text string) {
	deliveryID := uuid.New().String()

	sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	err := n.retrier.Do(sendCtx, func(ctx context.Context) error {
		_, err := n.sender.SendText(ctx, chatID, text)
		if err == nil {
			return nil
		}
		if !telegram.IsRetryableError(err) || telegram.IsUserBlocked(err) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		n.logger.Error("notification delivery failed",
			"kind", kind,
			"delivery_id", deliveryID,
			"chat_id", chatID,
			"error", err,
		)
		return
	}

	n.logger.Info("notification delivered",
		"kind", kind,
		"delivery_id", deliveryID,
		"chat_id", chatID,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT SUBSCRIPTIONS
// ══════════════════════════════════════════════════════════════════════════════

// DayCompletedHandler adapts the notifier to the event bus.
func (n *Notifier) DayCompletedHandler() shared.EventHandler {
	return shared.EventHandlerFunc(func(event shared.Event) error {
		e, ok := event.(*shared.DayCompletedEvent)
		if !ok {
			return fmt.Errorf("notifier: unexpected event type %s", event.EventType())
		}
		n.NotifyDayComplete(context.Background(), e.LearnerID, e.Date, e.Total)
		return nil
	})
}

// CatalogShortageHandler adapts the notifier to the event bus.
func (n *Notifier) CatalogShortageHandler() shared.EventHandler {
	return shared.EventHandlerFunc(func(event shared.Event) error {
		e, ok := event.(*shared.CatalogShortageEvent)
		if !ok {
			return fmt.Errorf("notifier: unexpected event type %s", event.EventType())
		}
		n.NotifyShortage(context.Background(), e.Date)
		return nil
	})
}
