package eventlog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mpratt21/courtside/internal/models"
)

func seedEvents(t *testing.T, store *MemoryStore, gameID uuid.UUID, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		quarter := 1
		if i > n/2 {
			quarter = 2
		}
		require.NoError(t, store.Append(context.Background(), models.StatEvent{
			ID:      uuid.New(),
			GameID:  gameID,
			Seq:     int64(i),
			Quarter: quarter,
			Type:    models.StatEventShot2Made,
		}))
	}
}

func TestMemoryStoreAppendAndList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	gameID := uuid.New()
	seedEvents(t, store, gameID, 6)

	evs, err := store.ListByGame(ctx, gameID, 0, 0, 0)
	require.NoError(t, err)
	require.Len(t, evs, 6)

	evs, err = store.ListByGame(ctx, gameID, 4, 0, 0)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	require.Equal(t, int64(5), evs[0].Seq)

	evs, err = store.ListByGame(ctx, gameID, 0, 2, 0)
	require.NoError(t, err)
	require.Len(t, evs, 3)

	evs, err = store.ListByGame(ctx, gameID, 0, 0, 4)
	require.NoError(t, err)
	require.Len(t, evs, 4)

	n, err := store.CountByGame(ctx, gameID)
	require.NoError(t, err)
	require.Equal(t, int64(6), n)
}

func TestMemoryStoreRemove(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	gameID := uuid.New()

	ev := models.StatEvent{ID: uuid.New(), GameID: gameID, Seq: 1, Type: models.StatEventAssist}
	require.NoError(t, store.Append(ctx, ev))

	require.NoError(t, store.Remove(ctx, gameID, ev.ID))
	require.Error(t, store.Remove(ctx, gameID, ev.ID))

	n, err := store.CountByGame(ctx, gameID)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestMemoryStoreIsolatesGames(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a, b := uuid.New(), uuid.New()
	seedEvents(t, store, a, 3)

	evs, err := store.ListByGame(ctx, b, 0, 0, 0)
	require.NoError(t, err)
	require.Empty(t, evs)
}
