package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/chiprail/chiprail/internal/engine"
	"github.com/chiprail/chiprail/internal/metrics"
	"github.com/chiprail/chiprail/internal/store"
)

// ErrNotFound is returned by Lookup for unknown room ids.
var ErrNotFound = errors.New("room not found")

// Registry is the process-wide table of live room actors. It is the only
// shared entry point to rooms; everything behind an actor handle is
// single-threaded.
type Registry struct {
	store   store.Store
	logger  *log.Logger
	clock   quartz.Clock
	metrics *metrics.Metrics
	policy  Policy

	cleanupInterval time.Duration
	idleRoomTTL     time.Duration

	// mu guards the map only; never hold it across actor calls.
	mu    sync.Mutex
	rooms map[string]*Actor
}

// RegistryConfig wires the registry's collaborators.
type RegistryConfig struct {
	Store           store.Store
	Logger          *log.Logger
	Clock           quartz.Clock
	Metrics         *metrics.Metrics
	Policy          Policy
	CleanupInterval time.Duration
	IdleRoomTTL     time.Duration
}

// NewRegistry builds an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	r := &Registry{
		store:           cfg.Store,
		logger:          cfg.Logger.WithPrefix("registry"),
		clock:           cfg.Clock,
		metrics:         cfg.Metrics,
		policy:          cfg.Policy,
		cleanupInterval: cfg.CleanupInterval,
		idleRoomTTL:     cfg.IdleRoomTTL,
		rooms:           make(map[string]*Actor),
	}
	return r
}

// Open creates an actor for a fresh room snapshot and persists it.
func (r *Registry) Open(state *engine.Room) (*Actor, error) {
	blob, err := state.MarshalSnapshot()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := r.store.Save(ctx, state.ID, blob); err != nil {
		return nil, fmt.Errorf("persist new room: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rooms[state.ID]; exists {
		return nil, fmt.Errorf("room %s already open", state.ID)
	}
	actor := NewActor(state, r.store, r.logger, r.clock, r.metrics, r.policy)
	r.rooms[state.ID] = actor
	r.metrics.RoomsOpen.Set(float64(len(r.rooms)))
	r.logger.Info("room opened", "room", state.ID)
	return actor, nil
}

// Lookup resolves a live actor.
func (r *Registry) Lookup(roomID string) (*Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	actor, ok := r.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return actor, nil
}

// Close deletes a room: the actor stops and the snapshot is removed.
func (r *Registry) Close(ctx context.Context, roomID string) error {
	r.mu.Lock()
	actor, ok := r.rooms[roomID]
	if ok {
		delete(r.rooms, roomID)
		r.metrics.RoomsOpen.Set(float64(len(r.rooms)))
	}
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	actor.Stop()
	if err := r.store.Delete(ctx, roomID); err != nil {
		return err
	}
	r.logger.Info("room closed", "room", roomID)
	return nil
}

// Restore reconstitutes every persisted room into a live actor. Called once
// on boot, before the listeners come up.
func (r *Registry) Restore(ctx context.Context) error {
	ids, err := r.store.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list persisted rooms: %w", err)
	}
	for _, id := range ids {
		blob, err := r.store.Load(ctx, id)
		if err != nil {
			r.logger.Error("skipping unloadable room", "room", id, "error", err)
			continue
		}
		state, err := engine.UnmarshalSnapshot(blob)
		if err != nil {
			r.logger.Error("skipping corrupt snapshot", "room", id, "error", err)
			continue
		}
		// Nobody is connected to a freshly restored process.
		for _, p := range state.Players {
			p.IsConnected = false
		}

		r.mu.Lock()
		if _, exists := r.rooms[id]; !exists {
			r.rooms[id] = NewActor(state, r.store, r.logger, r.clock, r.metrics, r.policy)
			r.metrics.RoomsOpen.Set(float64(len(r.rooms)))
		}
		r.mu.Unlock()
	}
	r.logger.Info("rooms restored", "count", len(ids))
	return nil
}

// FindByPlayer returns the id of the room holding the player, for rejoin
// after a page reload.
func (r *Registry) FindByPlayer(ctx context.Context, playerID string) (string, bool) {
	r.mu.Lock()
	actors := make([]*Actor, 0, len(r.rooms))
	for _, a := range r.rooms {
		actors = append(actors, a)
	}
	r.mu.Unlock()

	for _, a := range actors {
		snapshot, err := a.Inspect(ctx)
		if err != nil {
			continue
		}
		if _, ok := snapshot.Players[playerID]; ok {
			return a.ID, true
		}
	}
	return "", false
}

// List snapshots every live room.
func (r *Registry) List(ctx context.Context) []*engine.Room {
	r.mu.Lock()
	actors := make([]*Actor, 0, len(r.rooms))
	for _, a := range r.rooms {
		actors = append(actors, a)
	}
	r.mu.Unlock()

	rooms := make([]*engine.Room, 0, len(actors))
	for _, a := range actors {
		if snapshot, err := a.Inspect(ctx); err == nil {
			rooms = append(rooms, snapshot)
		}
	}
	return rooms
}

// Leave removes a player through the room's actor and reaps the room when
// it empties.
func (r *Registry) Leave(ctx context.Context, roomID, playerID string) error {
	actor, err := r.Lookup(roomID)
	if err != nil {
		return err
	}
	if err := actor.Submit(ctx, Command{Kind: CmdLeave, PlayerID: playerID}); err != nil {
		return err
	}
	snapshot, err := actor.Inspect(ctx)
	if err != nil {
		return nil
	}
	if len(snapshot.Players) == 0 {
		return r.Close(ctx, roomID)
	}
	return nil
}

// Run drives the cleanup sweep until the context ends, then stops every
// actor.
func (r *Registry) Run(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep(ctx)
		case <-ctx.Done():
			r.Shutdown()
			return ctx.Err()
		}
	}
}

// sweep deletes rooms whose players have all been gone for the idle TTL.
func (r *Registry) sweep(ctx context.Context) {
	now := r.clock.Now()
	for _, state := range r.List(ctx) {
		if state.LastAllDisconnectedAt == nil {
			continue
		}
		if now.Sub(*state.LastAllDisconnectedAt) < r.idleRoomTTL {
			continue
		}
		r.logger.Info("reaping idle room", "room", state.ID)
		if err := r.Close(ctx, state.ID); err != nil && !errors.Is(err, ErrNotFound) {
			r.logger.Error("failed to reap room", "room", state.ID, "error", err)
		}
	}
}

// Shutdown stops every actor without deleting snapshots.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	actors := make([]*Actor, 0, len(r.rooms))
	for id, a := range r.rooms {
		actors = append(actors, a)
		delete(r.rooms, id)
	}
	r.metrics.RoomsOpen.Set(0)
	r.mu.Unlock()

	for _, a := range actors {
		a.Stop()
	}
}
