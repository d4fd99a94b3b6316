package engine

// StartHand deals the next hand: rotates the button, posts blinds and opens
// pre-flop action. Fails unless every seated player is ready and clear of
// the rebuy/cashout gates.
func (r *Room) StartHand() ([]Event, error) {
	if r.Status != RoomWaiting {
		return nil, Errorf(KindIllegalAction, "hand already in progress")
	}
	seated := r.SeatedPlayers()
	if len(seated) < 2 {
		return nil, Errorf(KindIllegalAction, "need at least two seated players")
	}
	for _, p := range seated {
		if !p.Ready {
			return nil, Errorf(KindIllegalAction, "%s is not ready", p.Name)
		}
		if r.CanRebuy(p) {
			return nil, Errorf(KindMustRebuy, "%s must rebuy first", p.Name)
		}
		if r.MustCashout(p) {
			return nil, Errorf(KindMustCashout, "%s must cash out first", p.Name)
		}
	}

	dealer := r.lowestOccupiedSeat()
	if r.LastDealerSeat >= 0 {
		dealer = r.nextOccupiedSeat(r.LastDealerSeat)
	}

	// Heads-up the dealer posts the small blind and acts first pre-flop.
	headsUp := len(seated) == 2
	var sbSeat, bbSeat int
	if headsUp {
		sbSeat = dealer
		bbSeat = r.nextOccupiedSeat(dealer)
	} else {
		sbSeat = r.nextOccupiedSeat(dealer)
		bbSeat = r.nextOccupiedSeat(sbSeat)
	}

	h := &Hand{
		Phase:      PhasePreflop,
		DealerSeat: dealer,
		SBSeat:     sbSeat,
		BBSeat:     bbSeat,
	}
	r.Hand = h
	r.Status = RoomPlaying

	for _, p := range seated {
		p.Status = StatusActive
		p.CurrentBet = 0
		p.TotalBetThisHand = 0
		p.HasActedThisStreet = false
		p.Ready = false
		p.LastAction = ""
		p.LastActionAmount = 0
	}

	// A player who cannot cover a blind posts what they have and is all-in.
	// The table bet is the full big blind either way. Posting a blind does
	// not count as acting, which is what gives the big blind their option.
	r.postBlind(r.Players[r.Seats[sbSeat]], r.SBAmount)
	r.postBlind(r.Players[r.Seats[bbSeat]], r.BBAmount)
	h.CurrentBet = r.BBAmount
	h.LastRaiserID = r.Seats[bbSeat]

	first := r.nextOccupiedSeat(bbSeat)
	if headsUp {
		first = sbSeat
	}
	h.ActionOrder = r.orderFrom(first)
	h.ActionIndex = 0

	events := []Event{
		NewEvent(EventHandStarted),
		NewEvent(EventPhaseChange, "phase", string(PhasePreflop)),
	}

	if !r.firstToAct() {
		// Both blinds went all-in posting; the hand runs itself out.
		r.advanceStreet(&events)
	}
	return events, nil
}

// postBlind moves a forced bet into the pot.
func (r *Room) postBlind(p *Player, amount int) {
	pay := amount
	if pay > p.Chips {
		pay = p.Chips
	}
	p.Chips -= pay
	p.CurrentBet += pay
	p.TotalBetThisHand += pay
	r.Hand.Pot += pay
	if p.Chips == 0 {
		p.Status = StatusAllIn
	}
}

// orderFrom collects the seated players clockwise starting at the given
// seat. Sitting-out players never enter the order.
func (r *Room) orderFrom(seat int) []string {
	order := make([]string, 0, len(r.Players))
	for i := 0; i < SeatCount; i++ {
		s := (seat + i) % SeatCount
		id := r.Seats[s]
		if id == "" {
			continue
		}
		if r.Players[id].Status == StatusSittingOut {
			continue
		}
		order = append(order, id)
	}
	return order
}

// firstToAct points the turn at the first player in the order who can make
// a decision. Reports false when nobody can.
func (r *Room) firstToAct() bool {
	h := r.Hand
	for i, id := range h.ActionOrder {
		if r.Players[id].CanAct() {
			h.ActionIndex = i
			h.CurrentPlayerID = id
			return true
		}
	}
	h.CurrentPlayerID = ""
	return false
}

// teardownHand closes the hand and returns the room to the lobby state.
// The dealer seat is remembered outside the hand for the next rotation.
func (r *Room) teardownHand() {
	h := r.Hand
	r.HandNumber++
	r.LastDealerSeat = h.DealerSeat
	r.Hand = nil
	r.Status = RoomWaiting
	for _, p := range r.SeatedPlayers() {
		p.resetHandState()
	}
}
