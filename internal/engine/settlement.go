package engine

// ProposeSettlement declares winners for every pot on the table. Only a
// player still holding cards may propose, and only the current proposer may
// replace a live proposal; anyone in the quorum can reject it instead.
func (r *Room) ProposeSettlement(playerID string, potWinners map[string][]string) ([]Event, error) {
	h := r.Hand
	if r.Status != RoomPlaying || h == nil || h.Phase != PhaseShowdown {
		return nil, Errorf(KindIllegalAction, "not in showdown")
	}
	p, err := r.Player(playerID)
	if err != nil {
		return nil, err
	}
	if !p.Seated() || !p.InHand() {
		return nil, Errorf(KindIllegalAction, "only players in the hand can propose")
	}
	if h.Proposal != nil && h.Proposal.ProposerID != playerID {
		return nil, Errorf(KindConflict, "a proposal by %s is pending", r.Players[h.Proposal.ProposerID].Name)
	}

	clean := make(map[string][]string, len(potWinners))
	for potID, winners := range potWinners {
		pot := h.potByID(potID)
		if pot == nil {
			return nil, Errorf(KindValidation, "unknown pot %s", potID)
		}
		deduped := make([]string, 0, len(winners))
		for _, w := range winners {
			if !pot.Eligible(w) {
				return nil, Errorf(KindValidation, "%s is not eligible for %s", w, potID)
			}
			dup := false
			for _, seen := range deduped {
				if seen == w {
					dup = true
					break
				}
			}
			if !dup {
				deduped = append(deduped, w)
			}
		}
		clean[potID] = deduped
	}
	for _, pot := range h.Pots {
		if len(clean[pot.ID]) == 0 {
			return nil, Errorf(KindValidation, "no winners declared for %s", pot.ID)
		}
	}

	h.Proposal = &SettlementProposal{
		ProposerID:  playerID,
		PotWinners:  clean,
		ConfirmedBy: []string{playerID},
	}

	return []Event{NewEvent(EventSettlementProposed,
		"proposer_id", p.ID,
		"proposer_name", p.Name,
		"pot_winners", clean,
	)}, nil
}

// ConfirmSettlement adds the player's confirmation. A duplicate confirm is
// a no-op. When the whole quorum has confirmed, the pots pay out and the
// hand closes.
func (r *Room) ConfirmSettlement(playerID string) ([]Event, error) {
	h := r.Hand
	if r.Status != RoomPlaying || h == nil || h.Proposal == nil {
		return nil, Errorf(KindIllegalAction, "no settlement proposal")
	}
	p, err := r.Player(playerID)
	if err != nil {
		return nil, err
	}
	if !p.Seated() || !p.InHand() {
		return nil, Errorf(KindIllegalAction, "only players in the hand can confirm")
	}
	if h.Proposal.Confirmed(playerID) {
		return nil, nil
	}

	h.Proposal.ConfirmedBy = append(h.Proposal.ConfirmedBy, playerID)

	quorum := r.nonFoldedSeated()
	if len(h.Proposal.ConfirmedBy) < len(quorum) {
		return []Event{NewEvent(EventSettlementConfirmed,
			"player_id", p.ID,
			"confirmed", len(h.Proposal.ConfirmedBy),
			"required", len(quorum),
		)}, nil
	}

	settlements := r.distributePots(h.Proposal.PotWinners)
	r.teardownHand()

	return []Event{NewEvent(EventSettled, "settlements", settlements)}, nil
}

// RejectSettlement discards the live proposal, returning the showdown to
// the pre-proposal state.
func (r *Room) RejectSettlement(playerID string) ([]Event, error) {
	h := r.Hand
	if r.Status != RoomPlaying || h == nil || h.Proposal == nil {
		return nil, Errorf(KindIllegalAction, "no settlement proposal")
	}
	p, err := r.Player(playerID)
	if err != nil {
		return nil, err
	}
	if !p.Seated() || !p.InHand() {
		return nil, Errorf(KindIllegalAction, "only players in the hand can reject")
	}

	h.Proposal = nil

	return []Event{NewEvent(EventSettlementRejected, "rejector_name", p.Name)}, nil
}
