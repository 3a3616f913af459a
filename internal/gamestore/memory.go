package gamestore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mpratt21/courtside/internal/models"
)

// MemoryStore is an in-process game record store for tests and single-node
// use.
type MemoryStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]models.Game
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[uuid.UUID]models.Game)}
}

func (m *MemoryStore) CreateGame(ctx context.Context, game *models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[game.ID] = *game
	return nil
}

func (m *MemoryStore) GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := g
	return &cp, nil
}

func (m *MemoryStore) UpdateGameState(ctx context.Context, game *models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[game.ID]; !ok {
		return ErrNotFound
	}
	m.games[game.ID] = *game
	return nil
}
