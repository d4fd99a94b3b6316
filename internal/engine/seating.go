package engine

// Sit places a player at a free seat. Sitting at the seat the player
// already occupies is a no-op; any other move while seated is rejected.
func (r *Room) Sit(playerID string, seat int) ([]Event, error) {
	p, err := r.Player(playerID)
	if err != nil {
		return nil, err
	}
	if r.Status == RoomPlaying {
		return nil, Errorf(KindIllegalAction, "hand in progress")
	}
	if r.Status == RoomFinished {
		return nil, Errorf(KindIllegalAction, "game is over")
	}
	if seat < 0 || seat >= SeatCount {
		return nil, Errorf(KindValidation, "seat %d out of range", seat)
	}
	if p.Seat == seat {
		return nil, nil
	}
	if p.Seated() {
		return nil, Errorf(KindConflict, "already seated at %d", p.Seat)
	}
	if r.Seats[seat] != "" {
		return nil, Errorf(KindConflict, "seat %d is taken", seat)
	}

	p.Seat = seat
	p.Status = StatusActive
	p.Ready = false
	r.Seats[seat] = p.ID

	return []Event{NewEvent(EventSit, "player_id", p.ID, "seat", seat)}, nil
}

// Stand gives up the player's seat. Only allowed between hands; standing
// while unseated is a no-op.
func (r *Room) Stand(playerID string) ([]Event, error) {
	p, err := r.Player(playerID)
	if err != nil {
		return nil, err
	}
	if r.Status == RoomPlaying {
		return nil, Errorf(KindIllegalAction, "cannot stand during a hand")
	}
	if !p.Seated() {
		return nil, nil
	}

	r.Seats[p.Seat] = ""
	p.Seat = -1
	p.Status = StatusSittingOut
	p.Ready = false
	p.CurrentBet = 0
	p.TotalBetThisHand = 0
	p.HasActedThisStreet = false

	return []Event{NewEvent(EventStand, "player_id", p.ID)}, nil
}

// SetReady flips a seated player's readiness. Readying up is gated: a
// player at or under the rebuy threshold must rebuy first, a player over
// the table maximum must cash out first.
func (r *Room) SetReady(playerID string, ready bool) ([]Event, error) {
	p, err := r.Player(playerID)
	if err != nil {
		return nil, err
	}
	if r.Status != RoomWaiting {
		return nil, Errorf(KindIllegalAction, "hand in progress")
	}
	if !p.Seated() {
		return nil, Errorf(KindIllegalAction, "must sit first")
	}
	if ready {
		if r.CanRebuy(p) {
			return nil, Errorf(KindMustRebuy, "rebuy required before readying up")
		}
		if r.MustCashout(p) {
			return nil, Errorf(KindMustCashout, "cashout required before readying up")
		}
	}
	if p.Ready == ready {
		return nil, nil
	}

	p.Ready = ready

	return []Event{NewEvent(EventReadyToggle, "player_id", p.ID, "ready", ready)}, nil
}

// Rebuy adds one buy-in of initial_chips when the rebuy gate is open.
func (r *Room) Rebuy(playerID string) ([]Event, error) {
	p, err := r.Player(playerID)
	if err != nil {
		return nil, err
	}
	if r.Status != RoomWaiting {
		return nil, Errorf(KindIllegalAction, "rebuy only between hands")
	}
	if !r.CanRebuy(p) {
		return nil, Errorf(KindIllegalAction, "rebuy not allowed with %d chips", p.Chips)
	}

	p.Chips += r.InitialChips
	p.TotalRebuys++

	return []Event{NewEvent(EventRebuy, "player_id", p.ID, "chips", p.Chips)}, nil
}

// Cashout removes one buy-in of initial_chips while the player is over the
// table maximum. Repeatable until at or under the maximum.
func (r *Room) Cashout(playerID string) ([]Event, error) {
	p, err := r.Player(playerID)
	if err != nil {
		return nil, err
	}
	if r.Status != RoomWaiting {
		return nil, Errorf(KindIllegalAction, "cashout only between hands")
	}
	if !r.MustCashout(p) {
		return nil, Errorf(KindIllegalAction, "cashout not allowed with %d chips", p.Chips)
	}

	p.Chips -= r.InitialChips
	p.TotalCashouts++

	return []Event{NewEvent(EventCashout, "player_id", p.ID, "chips", p.Chips)}, nil
}
