package audit

import (
	"context"
	"time"
)

// Logger records audit events. Implementations must be safe for
// concurrent use; recording must never fail a request, so Log errors
// are surfaced to the caller only for its own logging.
type Logger interface {
	Log(ctx context.Context, event *Event) error
	Close() error
}

// NopLogger discards all events. Used when auditing is disabled.
type NopLogger struct{}

func (NopLogger) Log(ctx context.Context, event *Event) error { return nil }

func (NopLogger) Close() error { return nil }

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType EventType, status EventStatus) *Event {
	return &Event{
		Timestamp: time.Now(),
		EventType: eventType,
		Status:    status,
	}
}
