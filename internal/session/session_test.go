package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiprail/chiprail/internal/engine"
	"github.com/chiprail/chiprail/internal/metrics"
	"github.com/chiprail/chiprail/internal/room"
	"github.com/chiprail/chiprail/internal/store"
)

type wsHarness struct {
	server   *httptest.Server
	registry *room.Registry
}

func newWSHarness(t *testing.T) *wsHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := log.NewWithOptions(io.Discard, log.Options{})
	reg := room.NewRegistry(room.RegistryConfig{
		Store:           store.NewMemory(),
		Logger:          logger,
		Clock:           quartz.NewMock(t),
		Metrics:         metrics.New(),
		Policy:          room.Policy{LivenessTimeout: 15 * time.Second},
		CleanupInterval: 10 * time.Second,
		IdleRoomTTL:     10 * time.Minute,
	})
	t.Cleanup(reg.Shutdown)

	hub := NewHub(reg, logger, metrics.New())
	router := gin.New()
	router.GET("/ws/:room_id/:player_id", func(c *gin.Context) {
		hub.Handle(c.Writer, c.Request, c.Param("room_id"), c.Param("player_id"))
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &wsHarness{server: srv, registry: reg}
}

func (h *wsHarness) openRoom(t *testing.T, players ...string) string {
	t.Helper()
	state := engine.NewRoom("A1B2C3", engine.Settings{SBAmount: 10, InitialChips: 1000}, time.Now())
	state.OwnerID = players[0]
	for _, id := range players {
		state.AddPlayer(id, id, "🦊")
	}
	_, err := h.registry.Open(state)
	require.NoError(t, err)
	return state.ID
}

func (h *wsHarness) dial(t *testing.T, roomID, playerID string) *websocket.Conn {
	t.Helper()
	url := strings.Replace(h.server.URL, "http", "ws", 1) + "/ws/" + roomID + "/" + playerID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

// readUntil skips frames until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, frameType string) map[string]any {
	t.Helper()
	for range 20 {
		frame := readFrame(t, conn)
		if frame["type"] == frameType {
			return frame
		}
	}
	t.Fatalf("no %s frame within 20 frames", frameType)
	return nil
}

func TestSessionDeliversInitialSnapshot(t *testing.T) {
	h := newWSHarness(t)
	roomID := h.openRoom(t, "ana")

	conn := h.dial(t, roomID, "ana")
	frame := readUntil(t, conn, "room_state")
	roomObj := frame["room"].(map[string]any)
	assert.Equal(t, roomID, roomObj["id"])
}

func TestSessionPingPong(t *testing.T) {
	h := newWSHarness(t)
	roomID := h.openRoom(t, "ana")
	conn := h.dial(t, roomID, "ana")
	readUntil(t, conn, "room_state")

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "ping", "timestamp": 1718000000123.5,
	}))
	pong := readUntil(t, conn, "pong")
	assert.Equal(t, 1718000000123.5, pong["timestamp"])
}

func TestSessionCommandBroadcastsNewState(t *testing.T) {
	h := newWSHarness(t)
	roomID := h.openRoom(t, "ana", "ben")
	ana := h.dial(t, roomID, "ana")
	ben := h.dial(t, roomID, "ben")
	readUntil(t, ana, "room_state")
	readUntil(t, ben, "room_state")

	require.NoError(t, ana.WriteJSON(map[string]any{"type": "sit", "seat": 2}))

	// Both sessions converge on the seated state.
	for _, conn := range []*websocket.Conn{ana, ben} {
		var seated bool
		for range 10 {
			frame := readUntil(t, conn, "room_state")
			roomObj := frame["room"].(map[string]any)
			players := roomObj["players"].(map[string]any)
			anaObj := players["ana"].(map[string]any)
			if anaObj["seat"] == float64(2) {
				seated = true
				break
			}
		}
		assert.True(t, seated, "session never saw the seat change")
	}
}

func TestSessionRejectionGoesOnlyToOriginator(t *testing.T) {
	h := newWSHarness(t)
	roomID := h.openRoom(t, "ana")
	conn := h.dial(t, roomID, "ana")
	readUntil(t, conn, "room_state")

	// Betting with no hand in progress is rejected.
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "action", "action": "check",
	}))
	errFrame := readUntil(t, conn, "error")
	assert.Contains(t, errFrame["message"], "no hand in progress")
}

func TestSessionMalformedFrameYieldsError(t *testing.T) {
	h := newWSHarness(t)
	roomID := h.openRoom(t, "ana")
	conn := h.dial(t, roomID, "ana")
	readUntil(t, conn, "room_state")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"teleport"}`)))
	errFrame := readUntil(t, conn, "error")
	assert.Contains(t, errFrame["message"], "unknown frame type")
}

func TestSessionDismissesUnknownRoomWithCloseCode(t *testing.T) {
	h := newWSHarness(t)
	h.openRoom(t, "ana")

	url := strings.Replace(h.server.URL, "http", "ws", 1) + "/ws/FFFFFF/ana"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, CloseInvalidRoom, closeErr.Code)
}

func TestSessionDismissesUnknownPlayerWithCloseCode(t *testing.T) {
	h := newWSHarness(t)
	roomID := h.openRoom(t, "ana")

	url := strings.Replace(h.server.URL, "http", "ws", 1) + "/ws/" + roomID + "/stranger"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, CloseInvalidRoom, closeErr.Code)
}

func TestSessionMarksConnectionLiveness(t *testing.T) {
	h := newWSHarness(t)
	roomID := h.openRoom(t, "ana")
	conn := h.dial(t, roomID, "ana")
	readUntil(t, conn, "room_state")

	actor, err := h.registry.Lookup(roomID)
	require.NoError(t, err)
	state, err := actor.Inspect(context.Background())
	require.NoError(t, err)
	assert.True(t, state.Players["ana"].IsConnected)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		state, err := actor.Inspect(context.Background())
		return err == nil && !state.Players["ana"].IsConnected
	}, 5*time.Second, 20*time.Millisecond)
}
