// Package room runs one actor goroutine per live room. The actor owns the
// authoritative snapshot: every mutation funnels through its inbox and is
// applied, persisted and broadcast serially, so room state needs no locks.
package room

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/chiprail/chiprail/internal/engine"
	"github.com/chiprail/chiprail/internal/metrics"
	"github.com/chiprail/chiprail/internal/protocol"
	"github.com/chiprail/chiprail/internal/store"
)

// Policy is the lifecycle tuning shared by every actor.
type Policy struct {
	LivenessTimeout      time.Duration
	AutoFoldDisconnected bool
}

// ErrClosed is returned for commands submitted after the actor stopped.
var ErrClosed = errors.New("room closed")

const (
	inboxSize    = 64
	tickInterval = 500 * time.Millisecond
	saveTimeout  = 3 * time.Second
)

// Actor serializes all access to one room.
type Actor struct {
	ID string

	state   *engine.Room
	store   store.Store
	logger  *log.Logger
	clock   quartz.Clock
	metrics *metrics.Metrics
	policy  Policy

	inbox chan Command
	done  chan struct{}

	subs        map[*Subscriber]bool
	lastSeen    map[string]time.Time
	handStartAt time.Time
}

// NewActor starts the actor goroutine over an existing snapshot.
func NewActor(state *engine.Room, st store.Store, logger *log.Logger, clock quartz.Clock, m *metrics.Metrics, policy Policy) *Actor {
	a := &Actor{
		ID:       state.ID,
		state:    state,
		store:    st,
		logger:   logger.WithPrefix("room").With("room", state.ID),
		clock:    clock,
		metrics:  m,
		policy:   policy,
		inbox:    make(chan Command, inboxSize),
		done:     make(chan struct{}),
		subs:     make(map[*Subscriber]bool),
		lastSeen: make(map[string]time.Time),
	}
	go a.run()
	return a
}

// Submit sends a command and waits for the actor's verdict.
func (a *Actor) Submit(ctx context.Context, cmd Command) error {
	_, err := a.submit(ctx, cmd)
	return err
}

// Inspect returns a deep copy of the current snapshot.
func (a *Actor) Inspect(ctx context.Context) (*engine.Room, error) {
	res, err := a.submit(ctx, Command{Kind: CmdInspect})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (a *Actor) submit(ctx context.Context, cmd Command) (*engine.Room, error) {
	cmd.reply = make(chan result, 1)
	select {
	case a.inbox <- cmd:
	case <-a.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-cmd.reply:
		return res.room, res.err
	case <-a.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop terminates the actor loop and closes every subscriber.
func (a *Actor) Stop() {
	select {
	case <-a.done:
	default:
		close(a.done)
	}
}

func (a *Actor) run() {
	ticker := a.clock.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-a.inbox:
			res := a.handle(cmd)
			cmd.reply <- res
			a.metrics.CommandsTotal.WithLabelValues(cmd.Kind.String()).Inc()
			if res.err != nil {
				a.metrics.CommandErrors.WithLabelValues(engine.KindOf(res.err).String()).Inc()
			}
		case <-ticker.C:
			a.tick()
		case <-a.done:
			for sub := range a.subs {
				sub.Close()
			}
			a.logger.Debug("actor stopped")
			return
		}
	}
}

// handle applies one command to completion.
func (a *Actor) handle(cmd Command) result {
	switch cmd.Kind {
	case CmdInspect:
		return result{room: a.state.Clone()}
	case CmdSubscribe:
		a.subs[cmd.Sub] = true
		// The new subscriber starts from the current authoritative state.
		if data, err := protocol.RoomState(a.state); err == nil {
			cmd.Sub.pushSnapshot(data)
		}
		return result{}
	case CmdUnsubscribe:
		delete(a.subs, cmd.Sub)
		cmd.Sub.Close()
		return result{}
	case CmdHeartbeat:
		a.lastSeen[cmd.PlayerID] = a.clock.Now()
		return result{}
	}

	return result{err: a.transition(cmd)}
}

// transition runs an engine operation with rollback on persistence failure.
func (a *Actor) transition(cmd Command) error {
	before := a.state.Clone()

	events, err := a.applyEngine(cmd)
	if err != nil {
		return err
	}

	// Readiness may have been satisfied or broken by this command.
	events = a.reschedule(events)

	if err := a.commit(events); err != nil {
		a.state = before
		return err
	}
	return nil
}

func (a *Actor) applyEngine(cmd Command) ([]engine.Event, error) {
	switch cmd.Kind {
	case CmdJoin:
		a.state.AddPlayer(cmd.PlayerID, cmd.Name, cmd.Emoji)
		return nil, nil
	case CmdLeave:
		return nil, a.state.RemovePlayer(cmd.PlayerID)
	case CmdSit:
		return a.state.Sit(cmd.PlayerID, cmd.Seat)
	case CmdStand:
		return a.state.Stand(cmd.PlayerID)
	case CmdReady:
		// The ready frame is a toggle; the engine takes the explicit flag.
		p, err := a.state.Player(cmd.PlayerID)
		if err != nil {
			return nil, err
		}
		return a.state.SetReady(cmd.PlayerID, !p.Ready)
	case CmdAction:
		return a.state.Action(cmd.PlayerID, cmd.Action, cmd.Amount)
	case CmdPropose:
		return a.state.ProposeSettlement(cmd.PlayerID, cmd.PotWinners)
	case CmdConfirm:
		return a.state.ConfirmSettlement(cmd.PlayerID)
	case CmdReject:
		return a.state.RejectSettlement(cmd.PlayerID)
	case CmdRebuy:
		return a.state.Rebuy(cmd.PlayerID)
	case CmdCashout:
		return a.state.Cashout(cmd.PlayerID)
	case CmdEndGame:
		return a.state.EndGame(cmd.PlayerID)
	case CmdConnect:
		a.lastSeen[cmd.PlayerID] = a.clock.Now()
		events, err := a.state.MarkConnected(cmd.PlayerID, true)
		a.noteDisconnection()
		return events, err
	case CmdDisconnect:
		events, err := a.state.MarkConnected(cmd.PlayerID, false)
		a.noteDisconnection()
		return events, err
	}
	return nil, engine.Errorf(engine.KindValidation, "unknown command %s", cmd.Kind)
}

// reschedule keeps the delayed hand start in step with room readiness.
func (a *Actor) reschedule(events []engine.Event) []engine.Event {
	if !a.state.ReadyToStart() {
		a.handStartAt = time.Time{}
		return events
	}
	if a.state.HandInterval <= 0 {
		started, err := a.state.StartHand()
		if err != nil {
			a.logger.Error("immediate hand start failed", "error", err)
			return events
		}
		a.handStartAt = time.Time{}
		return append(events, started...)
	}
	if a.handStartAt.IsZero() {
		a.handStartAt = a.clock.Now().Add(time.Duration(a.state.HandInterval) * time.Second)
		events = append(events, engine.NewEvent(engine.EventHandStarting,
			"seconds", a.state.HandInterval))
	}
	return events
}

// commit persists the snapshot and fans it out with its events. An error
// here means the store rejected the write; the caller rolls back.
func (a *Actor) commit(events []engine.Event) error {
	blob, err := a.state.MarshalSnapshot()
	if err != nil {
		return engine.Errorf(engine.KindInternal, "encode snapshot: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := a.store.Save(ctx, a.ID, blob); err != nil {
		a.metrics.SnapshotFailures.Inc()
		a.logger.Error("snapshot save failed", "error", err)
		return engine.Errorf(engine.KindInternal, "persist snapshot: %v", err)
	}
	a.metrics.SnapshotSaves.Inc()

	a.broadcast(events)

	for _, e := range events {
		if e.Name == engine.EventSingleWinner || e.Name == engine.EventSettled {
			a.metrics.HandsCompleted.Inc()
		}
	}
	return nil
}

func (a *Actor) broadcast(events []engine.Event) {
	snapshot, err := protocol.RoomState(a.state)
	if err != nil {
		a.logger.Error("encode broadcast snapshot", "error", err)
		return
	}
	frames := make([][]byte, 0, len(events))
	for _, e := range events {
		frame, err := protocol.Event(e.Name, e.Fields)
		if err != nil {
			a.logger.Error("encode event", "event", e.Name, "error", err)
			continue
		}
		frames = append(frames, frame)
	}

	for sub := range a.subs {
		sub.pushSnapshot(snapshot)
		for _, frame := range frames {
			sub.pushEvent(frame)
		}
		if n := sub.takeCoalesced(); n > 0 {
			a.metrics.BroadcastsCoalesced.Add(float64(n))
		}
	}
}

// tick drives the timer-driven transitions: liveness, auto-fold and the
// delayed hand start.
func (a *Actor) tick() {
	now := a.clock.Now()

	a.sweepLiveness(now)

	if !a.handStartAt.IsZero() && !now.Before(a.handStartAt) {
		if !a.state.ReadyToStart() {
			a.handStartAt = time.Time{}
			return
		}
		before := a.state.Clone()
		events, err := a.state.StartHand()
		if err != nil {
			a.handStartAt = time.Time{}
			a.logger.Error("scheduled hand start failed", "error", err)
			return
		}
		if err := a.commit(events); err != nil {
			// Leave the deadline armed; the next tick retries the start.
			a.state = before
			a.logger.Error("scheduled hand start not persisted", "error", err)
			return
		}
		a.handStartAt = time.Time{}
	}
}

func (a *Actor) sweepLiveness(now time.Time) {
	for id, p := range a.state.Players {
		if !p.IsConnected {
			continue
		}
		seen, ok := a.lastSeen[id]
		if !ok || now.Sub(seen) <= a.policy.LivenessTimeout {
			continue
		}
		before := a.state.Clone()
		events, err := a.state.MarkConnected(id, false)
		if err != nil || len(events) == 0 {
			continue
		}
		a.noteDisconnection()
		a.logger.Info("player timed out", "player", id)

		// Policy knob: a silent player's turn normally stays blocking.
		if a.policy.AutoFoldDisconnected &&
			a.state.Hand != nil && a.state.Hand.CurrentPlayerID == id {
			folded, err := a.state.Action(id, engine.ActionFold, 0)
			if err != nil {
				a.logger.Error("auto-fold failed", "player", id, "error", err)
			} else {
				events = append(events, folded...)
			}
		}
		if err := a.commit(events); err != nil {
			// Abandon this sweep; the player is still stale next tick.
			a.state = before
			a.logger.Error("liveness update not persisted", "error", err)
			return
		}
	}
}

// noteDisconnection maintains the idle-room bookkeeping the registry sweep
// reads when deciding which rooms to reap.
func (a *Actor) noteDisconnection() {
	anyConnected := false
	for _, p := range a.state.Players {
		if p.IsConnected {
			anyConnected = true
			break
		}
	}
	if anyConnected || len(a.state.Players) == 0 {
		a.state.LastAllDisconnectedAt = nil
		return
	}
	if a.state.LastAllDisconnectedAt == nil {
		now := a.clock.Now()
		a.state.LastAllDisconnectedAt = &now
	}
}
