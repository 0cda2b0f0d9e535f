package events

import (
	"context"
	"log"
)

// Publisher delivers audit events to an external sink.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// LogPublisher writes events to the process log.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, evt Event) error {
	log.Printf("[audit] %s reminder=%s car=%s user=%d status=%s reason=%s",
		evt.Type, evt.ReminderID, evt.CarID, evt.UserID, evt.Status, evt.Reason)
	return nil
}

// Multi fans an event out to several publishers and returns the first error.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, evt Event) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, evt); err != nil && first == nil {
			first = err
		}
	}
	return first
}
