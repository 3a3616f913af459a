package eventlog

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mpratt21/courtside/internal/models"
)

// MemoryStore is an in-process event log for tests and single-node use. It
// keeps the same append/remove contract as the Postgres repository.
type MemoryStore struct {
	mu     sync.Mutex
	byGame map[uuid.UUID][]models.StatEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byGame: make(map[uuid.UUID][]models.StatEvent)}
}

func (m *MemoryStore) Append(ctx context.Context, ev models.StatEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byGame[ev.GameID] = append(m.byGame[ev.GameID], ev)
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, gameID, eventID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	evs := m.byGame[gameID]
	for i, ev := range evs {
		if ev.ID == eventID {
			m.byGame[gameID] = append(evs[:i], evs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("stat event %s not found in game %s", eventID, gameID)
}

func (m *MemoryStore) ListByGame(ctx context.Context, gameID uuid.UUID, afterSeq int64, quarter, limit int) ([]models.StatEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.StatEvent, 0, len(m.byGame[gameID]))
	for _, ev := range m.byGame[gameID] {
		if ev.Seq <= afterSeq {
			continue
		}
		if quarter != 0 && ev.Quarter != quarter {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) CountByGame(ctx context.Context, gameID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byGame[gameID])), nil
}
