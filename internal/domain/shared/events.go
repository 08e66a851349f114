package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the practice engine.
const (
	// Progress events
	EventDayCompleted EventType = "progress.day_completed"

	// Catalog events
	EventDayGenerated    EventType = "catalog.day_generated"
	EventCatalogShortage EventType = "catalog.shortage"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// Payload returns the event data as a map for logging and serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a published event. Handlers must be safe for
// concurrent use; the bus may invoke them from worker goroutines.
type EventHandler interface {
	HandleEvent(event Event) error
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc func(event Event) error

// HandleEvent implements EventHandler.
func (f EventHandlerFunc) HandleEvent(event Event) error {
	return f(event)
}

// EventPublisher publishes domain events to interested subscribers.
type EventPublisher interface {
	Publish(event Event) error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent creates a base event stamped with the current time.
func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// EventType implements Event.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// DayCompletedEvent is published the first time a learner is observed to have
// completed every problem scheduled for a date.
type DayCompletedEvent struct {
	BaseEvent
	LearnerID int64     `json:"learner_id"`
	Date      time.Time `json:"date"`
	Total     int       `json:"total"`
}

// NewDayCompletedEvent creates a DayCompletedEvent.
func NewDayCompletedEvent(learnerID int64, date time.Time, total int) *DayCompletedEvent {
	return &DayCompletedEvent{
		BaseEvent: NewBaseEvent(EventDayCompleted),
		LearnerID: learnerID,
		Date:      date,
		Total:     total,
	}
}

// Payload implements Event.
func (e *DayCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"date":       e.Date.Format("2006-01-02"),
		"total":      e.Total,
	}
}

// DayGeneratedEvent is published after a batch of problems has been persisted
// for a date.
type DayGeneratedEvent struct {
	BaseEvent
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// NewDayGeneratedEvent creates a DayGeneratedEvent.
func NewDayGeneratedEvent(date time.Time, count int) *DayGeneratedEvent {
	return &DayGeneratedEvent{
		BaseEvent: NewBaseEvent(EventDayGenerated),
		Date:      date,
		Count:     count,
	}
}

// Payload implements Event.
func (e *DayGeneratedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"date":  e.Date.Format("2006-01-02"),
		"count": e.Count,
	}
}

// CatalogShortageEvent is published when the shortage check finds no problems
// scheduled for an upcoming date. Distinct from a learner's day completion.
type CatalogShortageEvent struct {
	BaseEvent
	Date time.Time `json:"date"`
}

// NewCatalogShortageEvent creates a CatalogShortageEvent.
func NewCatalogShortageEvent(date time.Time) *CatalogShortageEvent {
	return &CatalogShortageEvent{
		BaseEvent: NewBaseEvent(EventCatalogShortage),
		Date:      date,
	}
}

// Payload implements Event.
func (e *CatalogShortageEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"date": e.Date.Format("2006-01-02"),
	}
}
