// Package messaging defines the event publishing contract.
package messaging

import "context"

// Event is a message that can be published to the broker.
type Event interface {
	// Subject returns the broker subject the event is published on.
	Subject() string
	// Payload returns the serialized event body.
	Payload() ([]byte, error)
}

// Publisher publishes events to the broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
