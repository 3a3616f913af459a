package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/mpratt21/courtside/internal/events"
	"github.com/mpratt21/courtside/internal/models"
)

func TestParseEventPayload(t *testing.T) {
	evID := uuid.New()
	recorded, err := json.Marshal(events.StatRecordedPayload{
		Event: models.StatEvent{ID: evID, Type: models.StatEventShot2Made, Seq: 7},
	})
	require.NoError(t, err)

	payload, err := ParseEventPayload(&GameEvent{Type: EventTypeStatRecorded, Data: recorded})
	require.NoError(t, err)
	rec, ok := payload.(events.StatRecordedPayload)
	require.True(t, ok)
	require.Equal(t, evID, rec.Event.ID)
	require.Equal(t, int64(7), rec.Event.Seq)

	retracted, err := json.Marshal(events.StatRetractedPayload{EventID: evID, Seq: 7})
	require.NoError(t, err)
	payload, err = ParseEventPayload(&GameEvent{Type: EventTypeStatRetracted, Data: retracted})
	require.NoError(t, err)
	ret, ok := payload.(events.StatRetractedPayload)
	require.True(t, ok)
	require.Equal(t, int64(7), ret.Seq)

	// Unknown types pass through without error so new producers don't break
	// old gateways.
	payload, err = ParseEventPayload(&GameEvent{Type: "ClockDrift", Data: []byte(`{}`)})
	require.NoError(t, err)
	require.Nil(t, payload)

	_, err = ParseEventPayload(&GameEvent{Type: EventTypeStatRecorded, Data: []byte(`{`)})
	require.Error(t, err)
}

func dialGame(t *testing.T, server *httptest.Server, gameID uuid.UUID) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/games?game_id=" + gameID.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestBroadcastReachesSubscribers(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cm.Start(ctx)

	mux := http.NewServeMux()
	NewWebSocketHandler(cm).RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	gameID := uuid.New()
	conn := dialGame(t, server, gameID)
	defer conn.Close()
	other := dialGame(t, server, uuid.New())
	defer other.Close()

	require.Eventually(t, func() bool {
		total, _ := cm.Stats()
		return total == 2
	}, time.Second, 10*time.Millisecond)

	data, err := json.Marshal(events.StatRecordedPayload{
		Event: models.StatEvent{ID: uuid.New(), GameID: gameID, Type: models.StatEventShot3Made},
	})
	require.NoError(t, err)
	cm.BroadcastToGame(gameID, &GameEvent{
		ID:        uuid.New().String(),
		GameID:    gameID.String(),
		Type:      EventTypeStatRecorded,
		Timestamp: time.Now(),
		Data:      data,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var received GameEvent
	require.NoError(t, json.Unmarshal(message, &received))
	require.Equal(t, EventTypeStatRecorded, received.Type)
	require.Equal(t, gameID.String(), received.GameID)

	// The other game's pool must not see it.
	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = other.ReadMessage()
	require.Error(t, err)
}

func TestDisconnectUnregisters(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cm.Start(ctx)

	mux := http.NewServeMux()
	NewWebSocketHandler(cm).RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	gameID := uuid.New()
	conn := dialGame(t, server, gameID)
	require.Eventually(t, func() bool {
		total, games := cm.Stats()
		return total == 1 && games[gameID.String()] == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool {
		total, _ := cm.Stats()
		return total == 0
	}, time.Second, 10*time.Millisecond)
}

func TestGameConnectionRejectsBadRequests(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	mux := http.NewServeMux()
	NewWebSocketHandler(cm).RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws/games")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(server.URL + "/ws/games?game_id=nope")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConnectionStatsEndpoint(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	mux := http.NewServeMux()
	NewWebSocketHandler(cm).RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats struct {
		Total int            `json:"total_connections"`
		Games map[string]int `json:"game_connections"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	require.Zero(t, stats.Total)
	require.Empty(t, stats.Games)
}
