package engine

import "sort"

// Standing is one row of the end-of-game results.
type Standing struct {
	PlayerID      string `json:"player_id"`
	Name          string `json:"name"`
	Chips         int    `json:"chips"`
	TotalRebuys   int    `json:"total_rebuys"`
	TotalCashouts int    `json:"total_cashouts"`
	Net           int    `json:"net"`
}

// EndGame finishes the session. Owner only, never mid-hand.
func (r *Room) EndGame(playerID string) ([]Event, error) {
	if playerID != r.OwnerID {
		return nil, Errorf(KindIllegalAction, "only the owner can end the game")
	}
	if r.Status == RoomPlaying {
		return nil, Errorf(KindIllegalAction, "cannot end the game during a hand")
	}
	if r.Status == RoomFinished {
		return nil, Errorf(KindIllegalAction, "game already ended")
	}

	r.Status = RoomFinished

	return []Event{NewEvent(EventGameEnded, "standings", r.Standings())}, nil
}

// Standings nets every player against their buy-ins: current chips plus
// cashed-out value, minus the initial buy-in and every rebuy. The nets of
// all players always sum to zero.
func (r *Room) Standings() []Standing {
	players := r.sortedPlayers()
	standings := make([]Standing, 0, len(players))
	for _, p := range players {
		net := p.Chips +
			p.TotalCashouts*r.InitialChips -
			p.TotalRebuys*r.InitialChips -
			r.InitialChips
		standings = append(standings, Standing{
			PlayerID:      p.ID,
			Name:          p.Name,
			Chips:         p.Chips,
			TotalRebuys:   p.TotalRebuys,
			TotalCashouts: p.TotalCashouts,
			Net:           net,
		})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Net > standings[j].Net
	})
	return standings
}
