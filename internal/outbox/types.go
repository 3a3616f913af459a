package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is one row of the game feed outbox: an event accepted by the
// engine, written in the same transaction scope as the log append, and
// published to the message bus by the worker or listener.
type OutboxEvent struct {
	ID        uuid.UUID       `json:"id"`
	GameID    uuid.UUID       `json:"game_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}

// EventPublisher pushes an outbox event to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
}
