// Package events defines the in-process event bus the modules use to
// decouple side effects (notifications, dashboard invalidation) from the
// services that cause them.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event. EventName is the routing
// key handlers subscribe under.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp; domain events embed it.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a new event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes published events to the handlers subscribed under the
// event's name. Services publish after their transaction commits;
// subscribers must tolerate at-most-once, in-process delivery.
type Bus interface {
	// Publish dispatches the event asynchronously. Handler errors are
	// logged by the bus, not returned to the publisher.
	Publish(ctx context.Context, event Event)

	// PublishSync dispatches inline and returns the first handler error.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under the given Event.EventName value.
	Subscribe(eventName string, handler Handler)
}
