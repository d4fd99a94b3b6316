package engine

// Action applies a betting decision by the player whose turn it is. For a
// raise, amount is the total the street bet is raised to, not the increment.
func (r *Room) Action(playerID string, kind ActionKind, amount int) ([]Event, error) {
	if r.Status != RoomPlaying || r.Hand == nil {
		return nil, Errorf(KindIllegalAction, "no hand in progress")
	}
	h := r.Hand
	if h.Phase == PhaseShowdown {
		return nil, Errorf(KindIllegalAction, "betting is closed during settlement")
	}
	p, err := r.Player(playerID)
	if err != nil {
		return nil, err
	}
	if h.CurrentPlayerID != playerID {
		return nil, Errorf(KindNotYourTurn, "not your turn")
	}

	switch kind {
	case ActionFold:
	case ActionCheck:
		if p.CurrentBet != h.CurrentBet {
			return nil, Errorf(KindIllegalAction, "cannot check facing a bet of %d", h.CurrentBet)
		}
	case ActionCall:
		if h.CurrentBet <= p.CurrentBet {
			return nil, Errorf(KindIllegalAction, "nothing to call")
		}
	case ActionRaise:
		if amount < h.CurrentBet+r.BBAmount {
			return nil, Errorf(KindIllegalAction, "raise must be to at least %d", h.CurrentBet+r.BBAmount)
		}
		if amount > p.Chips+p.CurrentBet {
			return nil, Errorf(KindIllegalAction, "raise to %d exceeds stack", amount)
		}
		if p.HasActedThisStreet {
			return nil, Errorf(KindIllegalAction, "raising is closed, call or fold")
		}
	case ActionAllIn:
		if p.Chips <= 0 {
			return nil, Errorf(KindIllegalAction, "no chips left")
		}
	default:
		return nil, Errorf(KindValidation, "unknown action %q", kind)
	}

	paid := 0
	switch kind {
	case ActionFold:
		p.Status = StatusFolded
	case ActionCheck:
	case ActionCall:
		paid = h.CurrentBet - p.CurrentBet
		if paid > p.Chips {
			paid = p.Chips
		}
		r.contribute(p, paid)
	case ActionRaise:
		paid = amount - p.CurrentBet
		r.contribute(p, paid)
		h.CurrentBet = amount
		h.LastRaiserID = p.ID
		r.reopenAction(p.ID)
	case ActionAllIn:
		total := p.CurrentBet + p.Chips
		paid = p.Chips
		r.contribute(p, paid)
		if total >= h.CurrentBet+r.BBAmount {
			// Big enough to count as a raise: everyone gets to act again.
			h.CurrentBet = total
			h.LastRaiserID = p.ID
			r.reopenAction(p.ID)
		} else if total > h.CurrentBet {
			// Short all-in: raises the bet to match but does not reopen
			// action for players who already acted.
			h.CurrentBet = total
		}
	}

	p.HasActedThisStreet = true
	p.LastAction = string(kind)
	switch kind {
	case ActionRaise, ActionAllIn:
		p.LastActionAmount = p.CurrentBet
	default:
		p.LastActionAmount = paid
	}

	events := []Event{NewEvent(EventAction,
		"player_id", p.ID,
		"action", string(kind),
		"amount", p.LastActionAmount,
	)}

	if r.nonFoldedCount() == 1 {
		r.awardLastStanding(&events)
		return events, nil
	}
	if r.bettingComplete() {
		r.advanceStreet(&events)
		return events, nil
	}
	r.advanceTurn()
	return events, nil
}

// ValidActions lists what the player could legally do right now. Advisory
// only; Action revalidates.
func (r *Room) ValidActions(playerID string) []ActionKind {
	if r.Status != RoomPlaying || r.Hand == nil || r.Hand.CurrentPlayerID != playerID {
		return nil
	}
	h := r.Hand
	p := r.Players[playerID]
	actions := []ActionKind{ActionFold}
	if p.CurrentBet == h.CurrentBet {
		actions = append(actions, ActionCheck)
	} else {
		actions = append(actions, ActionCall)
	}
	if !p.HasActedThisStreet && p.Chips+p.CurrentBet >= h.CurrentBet+r.BBAmount {
		actions = append(actions, ActionRaise)
	}
	if p.Chips > 0 {
		actions = append(actions, ActionAllIn)
	}
	return actions
}

// contribute moves chips from the player's stack into the street.
func (r *Room) contribute(p *Player, amount int) {
	p.Chips -= amount
	p.CurrentBet += amount
	p.TotalBetThisHand += amount
	r.Hand.Pot += amount
	if p.Chips == 0 {
		p.Status = StatusAllIn
	}
}

// reopenAction clears the acted flag for everyone but the raiser so they
// must respond to the new bet.
func (r *Room) reopenAction(raiserID string) {
	for _, id := range r.Hand.ActionOrder {
		if id == raiserID {
			continue
		}
		if p := r.Players[id]; p.CanAct() {
			p.HasActedThisStreet = false
		}
	}
}

// nonFoldedCount counts players still holding cards.
func (r *Room) nonFoldedCount() int {
	n := 0
	for _, id := range r.Hand.ActionOrder {
		if r.Players[id].InHand() {
			n++
		}
	}
	return n
}

// bettingComplete reports whether the street is done: every player who can
// still act has acted and matched the table bet.
func (r *Room) bettingComplete() bool {
	h := r.Hand
	for _, id := range h.ActionOrder {
		p := r.Players[id]
		if !p.CanAct() {
			continue
		}
		if !p.HasActedThisStreet || p.CurrentBet != h.CurrentBet {
			return false
		}
	}
	return true
}

// advanceTurn moves the cursor to the next player who can act.
func (r *Room) advanceTurn() {
	h := r.Hand
	n := len(h.ActionOrder)
	for i := 1; i <= n; i++ {
		idx := (h.ActionIndex + i) % n
		if p := r.Players[h.ActionOrder[idx]]; p.CanAct() {
			h.ActionIndex = idx
			h.CurrentPlayerID = p.ID
			return
		}
	}
	h.CurrentPlayerID = ""
}

// advanceStreet closes the street and opens the next one. When fewer than
// two players can still bet, the remaining streets run out to showdown so
// the table can deal the board; a phase_change event fires for each.
func (r *Room) advanceStreet(events *[]Event) {
	h := r.Hand
	for {
		for _, id := range h.ActionOrder {
			p := r.Players[id]
			p.CurrentBet = 0
			p.HasActedThisStreet = false
		}
		h.CurrentBet = 0
		h.LastRaiserID = ""
		h.Pots = r.buildPots()

		h.Phase = nextPhase(h.Phase)
		*events = append(*events, NewEvent(EventPhaseChange, "phase", string(h.Phase)))

		// Post-flop streets act from the dealer's left. The showdown order
		// matters too: it decides who collects an odd remainder chip.
		h.ActionOrder = r.orderFrom(r.nextOccupiedSeat(h.DealerSeat))
		h.ActionIndex = 0

		if h.Phase == PhaseShowdown {
			h.CurrentPlayerID = ""
			return
		}
		if r.activeCount() <= 1 {
			h.CurrentPlayerID = ""
			continue
		}
		r.firstToAct()
		return
	}
}

// awardLastStanding pays the whole pot to the only player left in the hand.
func (r *Room) awardLastStanding(events *[]Event) {
	var winner *Player
	for _, id := range r.Hand.ActionOrder {
		if p := r.Players[id]; p.InHand() {
			winner = p
			break
		}
	}
	pot := r.Hand.Pot
	winner.Chips += pot
	*events = append(*events, NewEvent(EventSingleWinner,
		"winner", winner.ID,
		"winner_name", winner.Name,
		"pot", pot,
	))
	r.teardownHand()
}

func nextPhase(p HandPhase) HandPhase {
	switch p {
	case PhasePreflop:
		return PhaseFlop
	case PhaseFlop:
		return PhaseTurn
	case PhaseTurn:
		return PhaseRiver
	case PhaseRiver:
		return PhaseShowdown
	}
	return p
}
