package messaging

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathclub/daily-practice-bot/internal/domain/shared"
)

func syncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = false
	return NewInMemoryEventBus(cfg)
}

type countingHandler struct {
	mu     sync.Mutex
	events []shared.Event
}

func (h *countingHandler) HandleEvent(event shared.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

var busDate = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func TestPublish_RoutesByEventType(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	completed := &countingHandler{}
	shortage := &countingHandler{}
	require.NoError(t, bus.Subscribe(shared.EventDayCompleted, completed))
	require.NoError(t, bus.Subscribe(shared.EventCatalogShortage, shortage))

	require.NoError(t, bus.Publish(shared.NewDayCompletedEvent(1, busDate, 10)))
	require.NoError(t, bus.Publish(shared.NewDayCompletedEvent(2, busDate, 10)))
	require.NoError(t, bus.Publish(shared.NewCatalogShortageEvent(busDate)))

	assert.Equal(t, 2, completed.count())
	assert.Equal(t, 1, shortage.count())
}

func TestPublish_GlobalSubscriberSeesEverything(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	all := &countingHandler{}
	require.NoError(t, bus.SubscribeAll(all))

	require.NoError(t, bus.Publish(shared.NewDayCompletedEvent(1, busDate, 10)))
	require.NoError(t, bus.Publish(shared.NewDayGeneratedEvent(busDate, 10)))
	require.NoError(t, bus.Publish(shared.NewCatalogShortageEvent(busDate)))

	assert.Equal(t, 3, all.count())
}

func TestPublish_NoHandlersIsNotAnError(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	assert.NoError(t, bus.Publish(shared.NewCatalogShortageEvent(busDate)))
}

func TestPublish_NilEventRejected(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	assert.Error(t, bus.Publish(nil))
	assert.Error(t, bus.Subscribe(shared.EventDayCompleted, nil))
}

func TestAsyncPublish_HandlersRunAndCloseWaits(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.WorkerPoolSize = 2
	bus := NewInMemoryEventBus(cfg)

	var handled atomic.Int64
	err := bus.Subscribe(shared.EventDayCompleted, shared.EventHandlerFunc(func(shared.Event) error {
		handled.Add(1)
		return nil
	}))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.NewDayCompletedEvent(int64(i), busDate, 10)))
	}

	require.Eventually(t, func() bool {
		return handled.Load() == 10
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Close())
}

func TestClosedBusRejectsWork(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewCatalogShortageEvent(busDate)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventDayCompleted, &countingHandler{}), ErrEventBusClosed)
	assert.NoError(t, bus.Close(), "double close is safe")
}
