package engine

import (
	"fmt"
	"testing"
	"time"
)

var testCreated = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestRoom builds a waiting room with players p1..pN seated in order at
// seats 0..N-1 with the given stacks, all marked ready.
func newTestRoom(t *testing.T, sb int, stacks ...int) *Room {
	t.Helper()
	r := NewRoom("ROOM01", Settings{SBAmount: sb, InitialChips: 1000}, testCreated)
	for i, chips := range stacks {
		id := fmt.Sprintf("p%d", i+1)
		r.AddPlayer(id, fmt.Sprintf("Player %d", i+1), "🦊")
		if _, err := r.Sit(id, i); err != nil {
			t.Fatalf("sit %s: %v", id, err)
		}
		r.Players[id].Chips = chips
		if _, err := r.SetReady(id, true); err != nil {
			t.Fatalf("ready %s: %v", id, err)
		}
	}
	r.OwnerID = "p1"
	return r
}

func startHand(t *testing.T, r *Room) []Event {
	t.Helper()
	events, err := r.StartHand()
	if err != nil {
		t.Fatalf("start hand: %v", err)
	}
	return events
}

func act(t *testing.T, r *Room, playerID string, kind ActionKind, amount int) []Event {
	t.Helper()
	events, err := r.Action(playerID, kind, amount)
	if err != nil {
		t.Fatalf("%s %s %d: %v", playerID, kind, amount, err)
	}
	return events
}

func confirmAll(t *testing.T, r *Room, playerIDs ...string) []Event {
	t.Helper()
	var last []Event
	for _, id := range playerIDs {
		events, err := r.ConfirmSettlement(id)
		if err != nil {
			t.Fatalf("confirm %s: %v", id, err)
		}
		last = events
	}
	return last
}

// totalChips sums stacks plus the live pot, for conservation checks.
func totalChips(r *Room) int {
	total := 0
	for _, p := range r.Players {
		total += p.Chips
	}
	if r.Hand != nil {
		total += r.Hand.Pot
	}
	return total
}

func hasEvent(events []Event, name string) bool {
	for _, e := range events {
		if e.Name == name {
			return true
		}
	}
	return false
}

func findEvent(t *testing.T, events []Event, name string) Event {
	t.Helper()
	for _, e := range events {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("no %s event in %v", name, events)
	return Event{}
}

func kindOfErr(t *testing.T, err error, want ErrKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s: %v", want, got, err)
	}
}
