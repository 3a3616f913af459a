package gamestore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mpratt21/courtside/internal/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	game := &models.Game{
		ID:             uuid.New(),
		HomeTeamID:     uuid.New(),
		AwayTeamID:     uuid.New(),
		Status:         models.GameStatusScheduled,
		CurrentQuarter: 1,
		Config:         models.DefaultNBAConfig(),
	}
	require.NoError(t, store.CreateGame(ctx, game))

	got, err := store.GetGame(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, game.ID, got.ID)
	require.Equal(t, models.GameStatusScheduled, got.Status)

	game.Status = models.GameStatusActive
	game.HomeScore = 12
	require.NoError(t, store.UpdateGameState(ctx, game))

	got, err = store.GetGame(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.GameStatusActive, got.Status)
	require.Equal(t, 12, got.HomeScore)
}

func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetGame(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	err = store.UpdateGameState(ctx, &models.Game{ID: uuid.New()})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	game := &models.Game{ID: uuid.New(), Status: models.GameStatusScheduled}
	require.NoError(t, store.CreateGame(ctx, game))

	got, err := store.GetGame(ctx, game.ID)
	require.NoError(t, err)
	got.Status = models.GameStatusCompleted

	again, err := store.GetGame(ctx, game.ID)
	require.NoError(t, err)
	require.Equal(t, models.GameStatusScheduled, again.Status)
}
