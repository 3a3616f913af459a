package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mpratt21/courtside/internal/events"
	"github.com/mpratt21/courtside/internal/models"
)

// Sink adapts the outbox repository to the engine's event fan-out. Every
// accepted log event becomes a StatRecorded outbox row; every undo becomes a
// StatRetracted row.
type Sink struct {
	repo *Repository
}

func NewSink(repo *Repository) *Sink {
	return &Sink{repo: repo}
}

func (s *Sink) EventAccepted(ctx context.Context, ev models.StatEvent) error {
	payload, err := json.Marshal(events.StatRecordedPayload{Event: ev})
	if err != nil {
		return fmt.Errorf("marshal StatRecorded payload: %w", err)
	}
	return s.repo.Insert(ctx, ev.GameID, events.TypeStatRecorded, payload)
}

func (s *Sink) EventRetracted(ctx context.Context, gameID, eventID uuid.UUID, seq int64) error {
	payload, err := json.Marshal(events.StatRetractedPayload{EventID: eventID, Seq: seq})
	if err != nil {
		return fmt.Errorf("marshal StatRetracted payload: %w", err)
	}
	return s.repo.Insert(ctx, gameID, events.TypeStatRetracted, payload)
}
