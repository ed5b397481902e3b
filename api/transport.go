// Package api defines the public contracts of a bulk shared-memory channel.
package api

import "context"

// Producer streams payloads to the consumer attached to the same region name.
type Producer interface {
	HealthReporter

	Name() string
	// Write queues payload and never blocks on the consumer.
	Write(payload []byte) error
	// Shutdown drains what was queued, bounded by ctx, then stops.
	Shutdown(ctx context.Context) error
	// Close stops without draining.
	Close() error
	// CloseAsync stops without waiting for the pump to exit.
	CloseAsync()
}

// Consumer receives the payloads written to a region name.
type Consumer interface {
	HealthReporter

	Name() string
	Close() error
	CloseAsync()
}
