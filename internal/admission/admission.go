// Package admission is the HTTP intake: creating, joining, listing and
// leaving rooms. Everything else happens over the room WebSocket.
package admission

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gin-gonic/gin"

	"github.com/chiprail/chiprail/internal/engine"
	"github.com/chiprail/chiprail/internal/ident"
	"github.com/chiprail/chiprail/internal/room"
)

// API serves the admission endpoints.
type API struct {
	registry *room.Registry
	logger   *log.Logger
	clock    quartz.Clock

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates the admission API.
func New(registry *room.Registry, logger *log.Logger, clock quartz.Clock, seed int64) *API {
	return &API{
		registry: registry,
		logger:   logger.WithPrefix("admission"),
		clock:    clock,
		rng:      ident.NewRand(seed),
	}
}

// Register mounts the endpoints under /api.
func (a *API) Register(router gin.IRouter) {
	api := router.Group("/api")
	api.Use(WithTimeout())
	api.POST("/rooms", a.createRoom)
	api.POST("/rooms/join", a.joinRoom)
	api.GET("/rooms", a.listRooms)
	api.GET("/player-room/:player_id", a.playerRoom)
	api.POST("/rooms/:room_id/leave/:player_id", a.leaveRoom)
	api.GET("/random-profile", a.randomProfile)
}

type createRoomRequest struct {
	PlayerName   string `json:"player_name" binding:"required"`
	PlayerEmoji  string `json:"player_emoji"`
	SBAmount     int    `json:"sb_amount"`
	InitialChips int    `json:"initial_chips"`
	RebuyMinimum int    `json:"rebuy_minimum"`
	HandInterval int    `json:"hand_interval"`
	MaxChips     int    `json:"max_chips"`
	DeviceID     string `json:"device_id"`
}

func (a *API) createRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SBAmount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sb_amount must be positive"})
		return
	}
	if req.InitialChips < 4*req.SBAmount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "initial_chips must cover at least two big blinds"})
		return
	}
	if req.RebuyMinimum < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rebuy_minimum must not be negative"})
		return
	}
	if req.MaxChips != 0 && req.MaxChips <= req.InitialChips {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_chips must exceed initial_chips"})
		return
	}
	if req.HandInterval < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hand_interval must not be negative"})
		return
	}

	playerID := req.DeviceID
	if playerID == "" {
		playerID = ident.NewPlayerID()
	}

	state := engine.NewRoom(ident.NewRoomID(), engine.Settings{
		SBAmount:     req.SBAmount,
		InitialChips: req.InitialChips,
		RebuyMinimum: req.RebuyMinimum,
		MaxChips:     req.MaxChips,
		HandInterval: req.HandInterval,
	}, a.clock.Now())
	state.OwnerID = playerID
	state.AddPlayer(playerID, req.PlayerName, req.PlayerEmoji)
	if _, err := state.Sit(playerID, 0); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if _, err := a.registry.Open(state); err != nil {
		a.logger.Error("room open failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
		return
	}

	a.logger.Info("room created", "room", state.ID, "owner", playerID)
	c.JSON(http.StatusOK, gin.H{"room_id": state.ID, "player_id": playerID})
}

type joinRoomRequest struct {
	RoomID      string `json:"room_id" binding:"required"`
	PlayerName  string `json:"player_name" binding:"required"`
	PlayerEmoji string `json:"player_emoji"`
	DeviceID    string `json:"device_id"`
}

func (a *API) joinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.RoomID = strings.ToUpper(req.RoomID)
	if err := ident.ValidateRoomID(req.RoomID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, err := a.registry.Lookup(req.RoomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	playerID := req.DeviceID
	if playerID == "" {
		playerID = ident.NewPlayerID()
	}

	// Joining with a known device id reattaches to the existing player.
	if err := actor.Submit(c.Request.Context(), room.Command{
		Kind:     room.CmdJoin,
		PlayerID: playerID,
		Name:     req.PlayerName,
		Emoji:    req.PlayerEmoji,
	}); err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"room_id": req.RoomID, "player_id": playerID})
}

type roomSummary struct {
	ID           string `json:"id"`
	OwnerName    string `json:"owner_name"`
	OwnerEmoji   string `json:"owner_emoji"`
	SBAmount     int    `json:"sb_amount"`
	BBAmount     int    `json:"bb_amount"`
	InitialChips int    `json:"initial_chips"`
	PlayerCount  int    `json:"player_count"`
	Status       string `json:"status"`
}

func (a *API) listRooms(c *gin.Context) {
	summaries := make([]roomSummary, 0)
	for _, state := range a.registry.List(c.Request.Context()) {
		if state.Status != engine.RoomWaiting {
			continue
		}
		s := roomSummary{
			ID:           state.ID,
			SBAmount:     state.SBAmount,
			BBAmount:     state.BBAmount,
			InitialChips: state.InitialChips,
			Status:       string(state.Status),
		}
		if owner, ok := state.Players[state.OwnerID]; ok {
			s.OwnerName = owner.Name
			s.OwnerEmoji = owner.Emoji
		}
		for _, p := range state.Players {
			if p.IsConnected {
				s.PlayerCount++
			}
		}
		summaries = append(summaries, s)
	}
	c.JSON(http.StatusOK, summaries)
}

func (a *API) playerRoom(c *gin.Context) {
	playerID := c.Param("player_id")
	if roomID, ok := a.registry.FindByPlayer(c.Request.Context(), playerID); ok {
		c.JSON(http.StatusOK, gin.H{"room_id": roomID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room_id": nil})
}

func (a *API) leaveRoom(c *gin.Context) {
	roomID := c.Param("room_id")
	playerID := c.Param("player_id")
	if err := a.registry.Leave(c.Request.Context(), roomID, playerID); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) randomProfile(c *gin.Context) {
	a.mu.Lock()
	name := profileNames[a.rng.IntN(len(profileNames))]
	emoji := profileEmojis[a.rng.IntN(len(profileEmojis))]
	a.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"name": name, "emoji": emoji})
}

// fail maps engine and registry errors onto HTTP statuses.
func (a *API) fail(c *gin.Context, err error) {
	if err == room.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	switch engine.KindOf(err) {
	case engine.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case engine.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case engine.KindIllegalAction, engine.KindConflict:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// requestBudget caps admission work even when clients hold the socket open.
const requestBudget = 10 * time.Second

// WithTimeout is gin middleware enforcing the admission request budget.
func WithTimeout() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestBudget)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
