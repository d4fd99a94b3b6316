package engine

import "testing"

func TestStartHandHeadsUpDealerPostsSmallBlind(t *testing.T) {
	r := newTestRoom(t, 10, 1000, 1000)
	events := startHand(t, r)

	if !hasEvent(events, EventHandStarted) {
		t.Fatal("missing hand_started event")
	}
	h := r.Hand
	if h.DealerSeat != 0 || h.SBSeat != 0 || h.BBSeat != 1 {
		t.Fatalf("heads-up seats dealer=%d sb=%d bb=%d", h.DealerSeat, h.SBSeat, h.BBSeat)
	}
	if got := r.Players["p1"].Chips; got != 990 {
		t.Fatalf("small blind stack = %d, want 990", got)
	}
	if got := r.Players["p2"].Chips; got != 980 {
		t.Fatalf("big blind stack = %d, want 980", got)
	}
	if h.Pot != 30 || h.CurrentBet != 20 {
		t.Fatalf("pot=%d current_bet=%d, want 30/20", h.Pot, h.CurrentBet)
	}
	// The dealer acts first pre-flop when heads-up.
	if h.CurrentPlayerID != "p1" {
		t.Fatalf("first to act = %s, want p1", h.CurrentPlayerID)
	}
}

func TestStartHandThreeHanded(t *testing.T) {
	r := newTestRoom(t, 10, 1000, 1000, 1000)
	startHand(t, r)

	h := r.Hand
	if h.DealerSeat != 0 || h.SBSeat != 1 || h.BBSeat != 2 {
		t.Fatalf("seats dealer=%d sb=%d bb=%d", h.DealerSeat, h.SBSeat, h.BBSeat)
	}
	if h.CurrentPlayerID != "p1" {
		t.Fatalf("under the gun = %s, want p1", h.CurrentPlayerID)
	}
	if total := totalChips(r); total != 3000 {
		t.Fatalf("chips leaked: total = %d", total)
	}
}

func TestStartHandRequiresReadiness(t *testing.T) {
	r := newTestRoom(t, 10, 1000, 1000)
	if _, err := r.SetReady("p2", false); err != nil {
		t.Fatal(err)
	}
	_, err := r.StartHand()
	kindOfErr(t, err, KindIllegalAction)
}

func TestStartHandBlockedByRebuyGate(t *testing.T) {
	r := newTestRoom(t, 10, 1000, 1000)
	r.Players["p2"].Chips = 0
	_, err := r.StartHand()
	kindOfErr(t, err, KindMustRebuy)
}

func TestStartHandNeedsTwoSeated(t *testing.T) {
	r := newTestRoom(t, 10, 1000)
	_, err := r.StartHand()
	kindOfErr(t, err, KindIllegalAction)
}

func TestDealerRotatesBetweenHands(t *testing.T) {
	r := newTestRoom(t, 10, 1000, 1000, 1000)
	startHand(t, r)
	act(t, r, "p1", ActionFold, 0)
	act(t, r, "p2", ActionFold, 0)

	if r.Status != RoomWaiting || r.HandNumber != 1 {
		t.Fatalf("hand did not close: status=%s hand=%d", r.Status, r.HandNumber)
	}
	for _, id := range []string{"p1", "p2", "p3"} {
		if _, err := r.SetReady(id, true); err != nil {
			t.Fatal(err)
		}
	}
	startHand(t, r)
	if r.Hand.DealerSeat != 1 {
		t.Fatalf("dealer = %d after first hand, want 1", r.Hand.DealerSeat)
	}
}

func TestFoldToBigBlindAwardsPot(t *testing.T) {
	r := newTestRoom(t, 10, 1000, 1000)
	startHand(t, r)

	events := act(t, r, "p1", ActionFold, 0)
	win := findEvent(t, events, EventSingleWinner)
	if win.Fields["winner"] != "p2" {
		t.Fatalf("winner = %v, want p2", win.Fields["winner"])
	}
	if win.Fields["pot"] != 30 {
		t.Fatalf("pot = %v, want 30", win.Fields["pot"])
	}
	if got := r.Players["p2"].Chips; got != 1010 {
		t.Fatalf("winner stack = %d, want 1010", got)
	}
	if got := r.Players["p1"].Chips; got != 990 {
		t.Fatalf("folder stack = %d, want 990", got)
	}
	if r.Hand != nil || r.Status != RoomWaiting {
		t.Fatal("room did not return to waiting")
	}
}

func TestHeadsUpLimpToFlop(t *testing.T) {
	r := newTestRoom(t, 10, 1000, 1000)
	startHand(t, r)

	act(t, r, "p1", ActionCall, 0)
	act(t, r, "p2", ActionCheck, 0)

	if r.Hand.Phase != PhaseFlop {
		t.Fatalf("phase = %s, want flop", r.Hand.Phase)
	}
	if r.Hand.Pot != 40 {
		t.Fatalf("pot = %d, want 40", r.Hand.Pot)
	}
}

func TestFourHandedFoldToBigBlind(t *testing.T) {
	r := newTestRoom(t, 10, 1000, 1000, 1000, 1000)
	startHand(t, r)

	// Under the gun is left of the big blind.
	if r.Hand.CurrentPlayerID != "p4" {
		t.Fatalf("under the gun = %s, want p4", r.Hand.CurrentPlayerID)
	}
	act(t, r, "p4", ActionFold, 0)
	act(t, r, "p1", ActionFold, 0)
	events := act(t, r, "p2", ActionFold, 0)

	win := findEvent(t, events, EventSingleWinner)
	if win.Fields["winner"] != "p3" || win.Fields["pot"] != 30 {
		t.Fatalf("single_winner = %v", win.Fields)
	}
	if got := r.Players["p3"].Chips; got != 1010 {
		t.Fatalf("big blind stack = %d, want 1010", got)
	}
}

func TestBlindShorterThanPostingGoesAllIn(t *testing.T) {
	r := newTestRoom(t, 10, 1000, 12)
	startHand(t, r)

	p2 := r.Players["p2"]
	if p2.Chips != 0 || p2.Status != StatusAllIn {
		t.Fatalf("short blind chips=%d status=%s", p2.Chips, p2.Status)
	}
	// The table bet is still the full big blind.
	if r.Hand.CurrentBet != 20 {
		t.Fatalf("current_bet = %d, want 20", r.Hand.CurrentBet)
	}
}
