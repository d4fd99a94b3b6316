package engine

// SeatCount is the fixed number of seats at every table.
const SeatCount = 12

// RoomStatus is the room lifecycle state.
type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

// HandPhase is the stage of the current hand.
type HandPhase string

const (
	PhaseHandStart HandPhase = "hand_start"
	PhasePreflop   HandPhase = "preflop"
	PhaseFlop      HandPhase = "flop"
	PhaseTurn      HandPhase = "turn"
	PhaseRiver     HandPhase = "river"
	PhaseShowdown  HandPhase = "showdown"
	PhaseHandEnd   HandPhase = "hand_end"
)

// PlayerStatus is a player's standing within the current hand.
type PlayerStatus string

const (
	StatusActive     PlayerStatus = "active"
	StatusFolded     PlayerStatus = "folded"
	StatusAllIn      PlayerStatus = "all_in"
	StatusSittingOut PlayerStatus = "sitting_out"
)

// ActionKind is a betting action requested by a player.
type ActionKind string

const (
	ActionFold  ActionKind = "fold"
	ActionCheck ActionKind = "check"
	ActionCall  ActionKind = "call"
	ActionRaise ActionKind = "raise"
	ActionAllIn ActionKind = "all_in"
)

// Player is one participant in a room. Field names are the wire contract:
// the same struct serializes into snapshots, broadcasts and the store.
type Player struct {
	ID                 string       `json:"player_id"`
	Name               string       `json:"name"`
	Emoji              string       `json:"emoji"`
	Chips              int          `json:"chips"`
	Seat               int          `json:"seat"`
	Ready              bool         `json:"ready"`
	Status             PlayerStatus `json:"status"`
	CurrentBet         int          `json:"current_bet"`
	TotalBetThisHand   int          `json:"total_bet_this_hand"`
	HasActedThisStreet bool         `json:"has_acted_this_street"`
	IsConnected        bool         `json:"is_connected"`
	LastAction         string       `json:"last_action,omitempty"`
	LastActionAmount   int          `json:"last_action_amount,omitempty"`
	TotalRebuys        int          `json:"total_rebuys"`
	TotalCashouts      int          `json:"total_cashouts"`
	JoinOrder          int          `json:"join_order"`
}

// Seated reports whether the player holds a seat.
func (p *Player) Seated() bool { return p.Seat >= 0 }

// CanAct reports whether the player can still make betting decisions.
func (p *Player) CanAct() bool { return p.Status == StatusActive }

// InHand reports whether the player has cards in front of them.
func (p *Player) InHand() bool { return p.Status == StatusActive || p.Status == StatusAllIn }

// resetHandState clears the per-hand fields between hands.
func (p *Player) resetHandState() {
	if p.Seated() {
		p.Status = StatusActive
	} else {
		p.Status = StatusSittingOut
	}
	p.CurrentBet = 0
	p.TotalBetThisHand = 0
	p.HasActedThisStreet = false
	p.Ready = false
}

// Pot is one stratum of the hand's chips. Ids are deterministic within a
// hand ("pot-0", "pot-1", ...) so settlement references survive rebuilds.
type Pot struct {
	ID              string   `json:"id"`
	Amount          int      `json:"amount"`
	EligiblePlayers []string `json:"eligible_players"`
}

// Eligible reports whether the player may win this pot.
func (p *Pot) Eligible(playerID string) bool {
	for _, id := range p.EligiblePlayers {
		if id == playerID {
			return true
		}
	}
	return false
}

// SettlementProposal is a pending winner declaration awaiting unanimous
// confirmation from the non-folded seated players.
type SettlementProposal struct {
	ProposerID  string              `json:"proposer_id"`
	PotWinners  map[string][]string `json:"pot_winners"`
	ConfirmedBy []string            `json:"confirmed_by"`
}

// ConfirmedBy reports whether the player has already confirmed.
func (sp *SettlementProposal) Confirmed(playerID string) bool {
	for _, id := range sp.ConfirmedBy {
		if id == playerID {
			return true
		}
	}
	return false
}

// Hand is the state of one deal from blinds to settlement.
type Hand struct {
	Phase           HandPhase           `json:"phase"`
	DealerSeat      int                 `json:"dealer_seat"`
	SBSeat          int                 `json:"sb_seat"`
	BBSeat          int                 `json:"bb_seat"`
	CurrentBet      int                 `json:"current_bet"`
	Pot             int                 `json:"pot"`
	Pots            []Pot               `json:"pots"`
	CurrentPlayerID string              `json:"current_player_id,omitempty"`
	ActionOrder     []string            `json:"action_order"`
	ActionIndex     int                 `json:"action_index"`
	LastRaiserID    string              `json:"last_raiser_id,omitempty"`
	Proposal        *SettlementProposal `json:"settlement_proposal,omitempty"`
}

// potByID finds a pot in the current build, or nil.
func (h *Hand) potByID(id string) *Pot {
	for i := range h.Pots {
		if h.Pots[i].ID == id {
			return &h.Pots[i]
		}
	}
	return nil
}
