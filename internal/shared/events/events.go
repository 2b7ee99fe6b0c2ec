package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event represents a snapshot lifecycle event
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`

	// Event data
	Data any `json:"data"`
}

// NewEvent creates a new event with auto-generated ID and timestamp
func NewEvent(eventType, source string, data any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// Publisher publishes snapshot lifecycle events
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
	Health() error
}
