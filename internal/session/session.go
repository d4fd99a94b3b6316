// Package session binds one WebSocket to one (room, player) pair: inbound
// frames become actor commands, the actor's broadcast stream flows back out.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/chiprail/chiprail/internal/engine"
	"github.com/chiprail/chiprail/internal/metrics"
	"github.com/chiprail/chiprail/internal/protocol"
	"github.com/chiprail/chiprail/internal/room"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// CloseInvalidRoom tells the client the room or player no longer
	// exists and it should return to admission instead of reconnecting.
	CloseInvalidRoom = 4001
)

// Hub upgrades WebSocket requests and runs sessions against the registry.
type Hub struct {
	registry *room.Registry
	logger   *log.Logger
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
}

// NewHub creates the session hub.
func NewHub(registry *room.Registry, logger *log.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		registry: registry,
		logger:   logger.WithPrefix("session"),
		metrics:  m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handle upgrades the request and serves the session until either side
// closes. Unknown rooms and players are accepted then dismissed with the
// distinguished close code so clients know not to retry.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request, roomID, playerID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade failed", "error", err)
		return
	}

	actor, err := h.registry.Lookup(roomID)
	if err != nil {
		h.dismiss(conn, "room not found")
		return
	}
	snapshot, err := actor.Inspect(r.Context())
	if err != nil {
		h.dismiss(conn, "room not found")
		return
	}
	if _, ok := snapshot.Players[playerID]; !ok {
		h.dismiss(conn, "player not in room")
		return
	}

	s := &session{
		hub:      h,
		conn:     conn,
		actor:    actor,
		roomID:   roomID,
		playerID: playerID,
		sub:      room.NewSubscriber(playerID),
		direct:   make(chan []byte, 64),
		logger:   h.logger.With("room", roomID, "player", playerID),
	}
	s.run()
}

// dismiss closes a connection that should not have been opened.
func (h *Hub) dismiss(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(CloseInvalidRoom, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = conn.Close()
}

type session struct {
	hub      *Hub
	conn     *websocket.Conn
	actor    *room.Actor
	roomID   string
	playerID string
	sub      *room.Subscriber
	// direct carries originator-only frames: pongs and error replies.
	direct chan []byte
	logger *log.Logger
}

func (s *session) run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.actor.Submit(ctx, room.Command{Kind: room.CmdSubscribe, Sub: s.sub}); err != nil {
		_ = s.conn.Close()
		return
	}
	if err := s.actor.Submit(ctx, room.Command{Kind: room.CmdConnect, PlayerID: s.playerID}); err != nil {
		s.logger.Error("connect mark failed", "error", err)
	}
	s.hub.metrics.SessionsOpen.Inc()
	s.logger.Info("session opened")

	go s.writePump(ctx, cancel)
	s.readPump(ctx)
	cancel()

	// Best-effort teardown; the liveness sweep covers a dead actor.
	teardownCtx, teardownCancel := context.WithTimeout(context.Background(), writeWait)
	defer teardownCancel()
	_ = s.actor.Submit(teardownCtx, room.Command{Kind: room.CmdUnsubscribe, Sub: s.sub})
	_ = s.actor.Submit(teardownCtx, room.Command{Kind: room.CmdDisconnect, PlayerID: s.playerID})

	s.hub.metrics.SessionsOpen.Dec()
	s.logger.Info("session closed")
}

// readPump decodes client frames and forwards them as commands.
func (s *session) readPump(ctx context.Context) {
	defer func() { _ = s.conn.Close() }()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Error("websocket error", "error", err)
			}
			return
		}

		in, err := protocol.ParseInbound(data)
		if err != nil {
			s.sendError(err.Error())
			continue
		}
		s.handleFrame(ctx, in)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (s *session) handleFrame(ctx context.Context, in *protocol.Inbound) {
	// The application-level ping answers immediately without a round trip
	// through the actor; the heartbeat command records liveness.
	if in.Type == protocol.InPing {
		s.sendDirect(protocol.Pong(in.Timestamp))
		_ = s.actor.Submit(ctx, room.Command{Kind: room.CmdHeartbeat, PlayerID: s.playerID})
		return
	}

	cmd, ok := s.commandFor(in)
	if !ok {
		s.sendError("unsupported frame")
		return
	}
	if err := s.actor.Submit(ctx, cmd); err != nil {
		// Engine rejections go only to the originator.
		s.sendError(err.Error())
	}
}

func (s *session) commandFor(in *protocol.Inbound) (room.Command, bool) {
	cmd := room.Command{PlayerID: s.playerID}
	switch in.Type {
	case protocol.InSit:
		cmd.Kind = room.CmdSit
		cmd.Seat = *in.Seat
	case protocol.InStand:
		cmd.Kind = room.CmdStand
	case protocol.InReady:
		cmd.Kind = room.CmdReady
	case protocol.InAction:
		cmd.Kind = room.CmdAction
		cmd.Action = engine.ActionKind(in.Action)
		cmd.Amount = in.Amount
	case protocol.InProposeSettle:
		cmd.Kind = room.CmdPropose
		cmd.PotWinners = in.PotWinners
	case protocol.InConfirmSettle:
		cmd.Kind = room.CmdConfirm
	case protocol.InRejectSettle:
		cmd.Kind = room.CmdReject
	case protocol.InRebuy:
		cmd.Kind = room.CmdRebuy
	case protocol.InCashout:
		cmd.Kind = room.CmdCashout
	case protocol.InEndGame:
		cmd.Kind = room.CmdEndGame
	default:
		return room.Command{}, false
	}
	return cmd, true
}

// writePump interleaves the broadcast stream with direct frames and keeps
// the transport alive with protocol-level pings.
func (s *session) writePump(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		_ = s.conn.Close()
	}()

	broadcast := make(chan []byte)
	go func() {
		defer close(broadcast)
		for {
			frame, ok := s.sub.Next(ctx)
			if !ok {
				return
			}
			select {
			case broadcast <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case frame, ok := <-broadcast:
			if !ok {
				// Subscriber closed: the room is gone.
				msg := websocket.FormatCloseMessage(CloseInvalidRoom, "room closed")
				_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
				return
			}
			if !s.write(frame) {
				return
			}
		case frame := <-s.direct:
			if !s.write(frame) {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *session) write(frame []byte) bool {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		if !errors.Is(err, websocket.ErrCloseSent) {
			s.logger.Error("write failed", "error", err)
		}
		return false
	}
	return true
}

func (s *session) sendError(message string) {
	s.sendDirect(protocol.Error(message))
}

func (s *session) sendDirect(frame []byte) {
	select {
	case s.direct <- frame:
	default:
		s.logger.Warn("direct buffer full, dropping frame")
	}
}
