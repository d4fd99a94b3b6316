package engine

import (
	"bytes"
	"testing"
)

func TestStandingsNetToZero(t *testing.T) {
	r := newTestRoom(t, 10, 1000, 1000, 1000)
	// One full buy-in moved from p3 to p1 over the session, plus a rebuy
	// and a cashout on the way.
	r.Players["p1"].Chips = 2000
	r.Players["p2"].Chips = 500
	r.Players["p2"].TotalRebuys = 1
	r.Players["p2"].Chips += 1000
	r.Players["p3"].Chips = 500
	r.Players["p1"].TotalCashouts = 1
	r.Players["p1"].Chips -= 1000

	standings := r.Standings()
	if len(standings) != 3 {
		t.Fatalf("standings = %d rows", len(standings))
	}
	sum := 0
	for _, s := range standings {
		sum += s.Net
	}
	if sum != 0 {
		t.Fatalf("nets sum to %d, want 0", sum)
	}
	// Sorted best first.
	if standings[0].PlayerID != "p1" || standings[0].Net != 1000 {
		t.Fatalf("top standing = %+v", standings[0])
	}
	if standings[2].PlayerID != "p3" || standings[2].Net != -500 {
		t.Fatalf("bottom standing = %+v", standings[2])
	}
}

func TestEndGameOwnerOnly(t *testing.T) {
	r := newTestRoom(t, 10, 1000, 1000)

	_, err := r.EndGame("p2")
	kindOfErr(t, err, KindIllegalAction)

	events, err := r.EndGame("p1")
	if err != nil {
		t.Fatal(err)
	}
	if !hasEvent(events, EventGameEnded) {
		t.Fatal("missing game_ended event")
	}
	if r.Status != RoomFinished {
		t.Fatalf("status = %s, want finished", r.Status)
	}

	_, err = r.EndGame("p1")
	kindOfErr(t, err, KindIllegalAction)
}

func TestEndGameBlockedMidHand(t *testing.T) {
	r := newTestRoom(t, 10, 1000, 1000)
	startHand(t, r)
	_, err := r.EndGame("p1")
	kindOfErr(t, err, KindIllegalAction)
}

func TestMarkConnected(t *testing.T) {
	r := newTestRoom(t, 10, 1000, 1000)

	events, err := r.MarkConnected("p1", true)
	if err != nil {
		t.Fatal(err)
	}
	if !hasEvent(events, EventPlayerConnected) {
		t.Fatal("missing player_connected event")
	}
	// Same state again stays silent.
	events, err = r.MarkConnected("p1", true)
	if err != nil || events != nil {
		t.Fatalf("repeat connect: events=%v err=%v", events, err)
	}
	events, err = r.MarkConnected("p1", false)
	if err != nil {
		t.Fatal(err)
	}
	if !hasEvent(events, EventPlayerDisconnected) {
		t.Fatal("missing player_disconnected event")
	}
}

func TestReadyToStart(t *testing.T) {
	r := newTestRoom(t, 10, 1000, 1000)
	if !r.ReadyToStart() {
		t.Fatal("two ready players should start")
	}
	if _, err := r.SetReady("p2", false); err != nil {
		t.Fatal(err)
	}
	if r.ReadyToStart() {
		t.Fatal("unready player should block the start")
	}
	if _, err := r.SetReady("p2", true); err != nil {
		t.Fatal(err)
	}
	r.Players["p1"].Chips = 0
	if r.ReadyToStart() {
		t.Fatal("busted player should block the start")
	}
}

func TestSnapshotRoundTripMidHand(t *testing.T) {
	r := newTestRoom(t, 10, 1000, 1000, 1000)
	startHand(t, r)
	act(t, r, "p1", ActionCall, 0)
	act(t, r, "p2", ActionCall, 0)
	act(t, r, "p3", ActionCheck, 0)
	act(t, r, "p2", ActionRaise, 50)

	data, err := r.MarshalSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	restored, err := UnmarshalSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}

	if restored.ID != r.ID || restored.HandNumber != r.HandNumber {
		t.Fatal("room identity lost")
	}
	h := restored.Hand
	if h == nil || h.Phase != PhaseFlop || h.Pot != 110 || h.CurrentBet != 50 {
		t.Fatalf("restored hand = %+v", h)
	}
	if h.CurrentPlayerID != "p3" {
		t.Fatalf("restored turn = %s, want p3", h.CurrentPlayerID)
	}
	if got := restored.Players["p2"].Chips; got != 930 {
		t.Fatalf("restored stack = %d, want 930", got)
	}

	// The restored room must accept play exactly where it stopped.
	act(t, restored, "p3", ActionFold, 0)
	act(t, restored, "p1", ActionCall, 0)
	if restored.Hand.Phase != PhaseTurn {
		t.Fatalf("phase = %s, want turn", restored.Hand.Phase)
	}
}

// TestReplayProducesIdenticalState drives the same command sequence against
// two independently built rooms and requires byte-identical snapshots. The
// engine takes no clocks and no randomness beyond its inputs, so the final
// state must be a pure function of the inbound commands.
func TestReplayProducesIdenticalState(t *testing.T) {
	run := func(t *testing.T) []byte {
		t.Helper()
		r := newTestRoom(t, 10, 1000, 1000, 1000)

		// Hand one: a raised pot checked down to showdown and settled.
		startHand(t, r)
		act(t, r, "p1", ActionCall, 0)
		act(t, r, "p2", ActionRaise, 60)
		act(t, r, "p3", ActionCall, 0)
		act(t, r, "p1", ActionFold, 0)
		for r.Hand.Phase != PhaseShowdown {
			act(t, r, r.Hand.CurrentPlayerID, ActionCheck, 0)
		}
		if _, err := r.ProposeSettlement("p2", map[string][]string{"pot-0": {"p3"}}); err != nil {
			t.Fatal(err)
		}
		confirmAll(t, r, "p3")

		// Hand two: dealer rotation plus the fold-to-one short circuit.
		for _, id := range []string{"p1", "p2", "p3"} {
			if _, err := r.SetReady(id, true); err != nil {
				t.Fatal(err)
			}
		}
		startHand(t, r)
		for r.Hand != nil {
			act(t, r, r.Hand.CurrentPlayerID, ActionFold, 0)
		}

		data, err := r.MarshalSnapshot()
		if err != nil {
			t.Fatal(err)
		}
		return data
	}

	first := run(t)
	second := run(t)
	if !bytes.Equal(first, second) {
		t.Fatalf("replayed state diverged:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestSnapshotRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalSnapshot([]byte("{")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	r := newTestRoom(t, 10, 1000, 1000, 1000)
	startHand(t, r)
	act(t, r, "p1", ActionCall, 0)

	c := r.Clone()
	act(t, r, "p2", ActionRaise, 100)
	act(t, r, "p3", ActionFold, 0)

	if c.Players["p2"].Chips != 990 {
		t.Fatalf("clone stack mutated: %d", c.Players["p2"].Chips)
	}
	if c.Hand.CurrentBet != 20 || c.Hand.Pot != 50 {
		t.Fatalf("clone hand mutated: bet=%d pot=%d", c.Hand.CurrentBet, c.Hand.Pot)
	}
	if c.Players["p3"].Status != StatusActive {
		t.Fatal("clone player status mutated")
	}

	// And mutating the clone leaves the original alone.
	c.Players["p1"].Chips = 1
	if r.Players["p1"].Chips == 1 {
		t.Fatal("original shares player structs with the clone")
	}
}
