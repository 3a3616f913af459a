package gateway

import (
	"encoding/json"
	"time"

	"github.com/mpratt21/courtside/internal/events"
)

// GameEvent is the envelope pushed to WebSocket clients.
type GameEvent struct {
	ID        string          `json:"id"`
	GameID    string          `json:"game_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventType is the kind of feed event pushed to clients.
type EventType string

const (
	EventTypeStatRecorded  EventType = "StatRecorded"
	EventTypeStatRetracted EventType = "StatRetracted"
)

// ParseEventPayload decodes a GameEvent's data into its typed payload.
func ParseEventPayload(event *GameEvent) (interface{}, error) {
	switch event.Type {
	case EventTypeStatRecorded:
		var payload events.StatRecordedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil
	case EventTypeStatRetracted:
		var payload events.StatRetractedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil
	default:
		return nil, nil
	}
}
