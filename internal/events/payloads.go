package events

import (
	"github.com/google/uuid"

	"github.com/mpratt21/courtside/internal/models"
)

// Event payload types shared between the engine's outbox sink and the gateway
// consumer. These are the wire shapes on the feed bus.

// Feed event type names as they appear on the bus.
const (
	TypeStatRecorded  = "StatRecorded"
	TypeStatRetracted = "StatRetracted"
)

// StatRecordedPayload is the payload for a StatRecorded feed event. It carries
// the full accepted log event; consumers fold scores and aggregates from the
// event sequence or fetch a snapshot to resynchronize.
type StatRecordedPayload struct {
	Event models.StatEvent `json:"event"`
}

// StatRetractedPayload is the payload for a StatRetracted feed event. Consumers
// that indexed the event by ID drop it; consumers that fold aggregates reverse
// it.
type StatRetractedPayload struct {
	EventID uuid.UUID `json:"event_id"`
	Seq     int64     `json:"seq"`
}
