package engine

import (
	"fmt"
	"sort"
)

// buildPots stratifies the hand's contributions at the distinct per-hand
// totals, lowest first. Folded chips stay in the strata they reached but a
// folded player is never eligible. Adjacent strata with identical eligible
// sets merge, and ids are assigned after merging, so rebuilding from the
// same contributions always yields the same pots.
func (r *Room) buildPots() []Pot {
	h := r.Hand

	participants := make([]*Player, 0, len(h.ActionOrder))
	levelSet := make(map[int]bool)
	var levels []int
	for _, id := range h.ActionOrder {
		p := r.Players[id]
		participants = append(participants, p)
		if p.TotalBetThisHand > 0 && !levelSet[p.TotalBetThisHand] {
			levelSet[p.TotalBetThisHand] = true
			levels = append(levels, p.TotalBetThisHand)
		}
	}
	sort.Ints(levels)

	var pots []Pot
	prev := 0
	for _, level := range levels {
		span := level - prev
		amount := 0
		var eligible []string
		for _, p := range participants {
			if p.TotalBetThisHand < level {
				continue
			}
			amount += span
			if p.Status != StatusFolded {
				eligible = append(eligible, p.ID)
			}
		}
		prev = level
		if amount == 0 {
			continue
		}
		if len(eligible) == 0 {
			// A stratum whose contributors all folded merges downward so
			// no chips fall out of the hand.
			if n := len(pots); n > 0 {
				pots[n-1].Amount += amount
				continue
			}
		}
		pots = append(pots, Pot{Amount: amount, EligiblePlayers: eligible})
	}

	merged := pots[:0]
	for _, pot := range pots {
		if n := len(merged); n > 0 && sameEligibles(merged[n-1].EligiblePlayers, pot.EligiblePlayers) {
			merged[n-1].Amount += pot.Amount
			continue
		}
		merged = append(merged, pot)
	}
	for i := range merged {
		merged[i].ID = fmt.Sprintf("pot-%d", i)
	}
	return merged
}

func sameEligibles(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Settlement is one payout line of a ratified proposal.
type Settlement struct {
	PotID      string `json:"pot_id"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Amount     int    `json:"amount"`
}

// distributePots pays every pot to its declared winners. Each winner takes
// the integer share; the remainder goes to the winner seated earliest in
// the street order, which starts left of the dealer.
func (r *Room) distributePots(potWinners map[string][]string) []Settlement {
	h := r.Hand
	var settlements []Settlement
	for _, pot := range h.Pots {
		winners := potWinners[pot.ID]
		if len(winners) == 0 {
			continue
		}
		share := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)

		first := winners[0]
		for _, w := range winners[1:] {
			if r.orderIndex(w) < r.orderIndex(first) {
				first = w
			}
		}
		for _, w := range winners {
			award := share
			if w == first {
				award += remainder
			}
			if award == 0 {
				continue
			}
			p := r.Players[w]
			p.Chips += award
			settlements = append(settlements, Settlement{
				PotID:      pot.ID,
				PlayerID:   w,
				PlayerName: p.Name,
				Amount:     award,
			})
		}
	}
	return settlements
}

// orderIndex locates a player in the current street order.
func (r *Room) orderIndex(id string) int {
	for i, pid := range r.Hand.ActionOrder {
		if pid == id {
			return i
		}
	}
	return len(r.Hand.ActionOrder)
}
