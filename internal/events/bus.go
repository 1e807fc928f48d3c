package events

import (
	platformevents "admissions_portal_backend/platform/events"
	"admissions_portal_backend/platform/logger"
)

// InMemoryBus aliases the platform bus so modules only import
// internal/events for both the bus and the domain event types.
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus constructs the process-local event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
