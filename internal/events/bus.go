// Package events re-exports the platform event bus for convenience
// and defines the chat domain events published on it.
package events

import (
	platformevents "inmochat_backend/platform/events"
	"inmochat_backend/platform/logger"
)

// Bus is a type alias to the platform Bus interface.
type Bus = platformevents.Bus

// InMemoryBus is a type alias to the platform InMemoryBus.
type InMemoryBus = platformevents.InMemoryBus

// Event and handler aliases so subscribers only import this package.
type (
	Event       = platformevents.Event
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
)

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
