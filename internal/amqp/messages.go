package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Movement event types carried on the audit queue.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// MovementEvent is a lightweight notification that a ledger mutation
// happened. The audit worker records it; consumers never mutate the
// ledger from it.
type MovementEvent struct {
	Type        string    `json:"type"`
	ID          int64     `json:"id"`
	Month       string    `json:"month"`
	AmountCents int64     `json:"amount_cents"`
	Origin      string    `json:"origin"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewMovementEvent creates an event stamped with the current time.
func NewMovementEvent(eventType string, id int64, month string, amountCents int64, origin string) *MovementEvent {
	return &MovementEvent{
		Type:        eventType,
		ID:          id,
		Month:       month,
		AmountCents: amountCents,
		Origin:      origin,
		Timestamp:   time.Now(),
	}
}

// Validate checks event type and identity before recording.
func (m *MovementEvent) Validate() error {
	switch m.Type {
	case EventCreated, EventUpdated, EventDeleted:
	default:
		return fmt.Errorf("unknown event type %q", m.Type)
	}
	if m.ID <= 0 {
		return fmt.Errorf("invalid movement id %d", m.ID)
	}
	return nil
}

// ToJSON converts the event to JSON bytes.
func (m *MovementEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MovementEventFromJSON creates an event from JSON bytes.
func MovementEventFromJSON(data []byte) (*MovementEvent, error) {
	var msg MovementEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
