package engine

import (
	"encoding/json"
	"sort"
	"time"
)

// Settings are the table parameters fixed at room creation.
type Settings struct {
	SBAmount     int
	InitialChips int
	RebuyMinimum int
	MaxChips     int
	HandInterval int
}

// Room is the authoritative state of one table. It is owned by a single
// room actor; nothing outside that actor may mutate it. Field names are the
// wire contract shared by broadcasts and the snapshot store.
type Room struct {
	ID           string             `json:"id"`
	Status       RoomStatus         `json:"status"`
	OwnerID      string             `json:"owner_id"`
	SBAmount     int                `json:"sb_amount"`
	BBAmount     int                `json:"bb_amount"`
	InitialChips int                `json:"initial_chips"`
	RebuyMinimum int                `json:"rebuy_minimum"`
	MaxChips     int                `json:"max_chips"`
	HandInterval int                `json:"hand_interval"`
	Players      map[string]*Player `json:"players"`
	Seats        []string           `json:"seats"`
	Hand         *Hand              `json:"hand,omitempty"`
	HandNumber   int                `json:"hand_number"`

	// Bookkeeping that rides the snapshot but is not part of the client
	// contract.
	LastDealerSeat        int        `json:"last_dealer_seat"`
	JoinCounter           int        `json:"join_counter"`
	CreatedAt             time.Time  `json:"created_at"`
	LastAllDisconnectedAt *time.Time `json:"last_all_disconnected_at,omitempty"`
}

// NewRoom creates an empty waiting room with the given settings. The room
// starts with nobody connected, so the idle clock runs from creation until
// the first session arrives.
func NewRoom(id string, s Settings, createdAt time.Time) *Room {
	return &Room{
		ID:             id,
		Status:         RoomWaiting,
		SBAmount:       s.SBAmount,
		BBAmount:       s.SBAmount * 2,
		InitialChips:   s.InitialChips,
		RebuyMinimum:   s.RebuyMinimum,
		MaxChips:       s.MaxChips,
		HandInterval:   s.HandInterval,
		Players:        make(map[string]*Player),
		Seats:          make([]string, SeatCount),
		LastDealerSeat: -1,
		CreatedAt:      createdAt,

		LastAllDisconnectedAt: &createdAt,
	}
}

// Player resolves a player id or fails with KindNotFound.
func (r *Room) Player(id string) (*Player, error) {
	p, ok := r.Players[id]
	if !ok {
		return nil, Errorf(KindNotFound, "player %s not in room", id)
	}
	return p, nil
}

// AddPlayer registers a player, or refreshes the profile of an existing one.
// Joining is idempotent under a stable device identity.
func (r *Room) AddPlayer(id, name, emoji string) *Player {
	if p, ok := r.Players[id]; ok {
		p.Name = name
		p.Emoji = emoji
		return p
	}
	r.JoinCounter++
	p := &Player{
		ID:        id,
		Name:      name,
		Emoji:     emoji,
		Chips:     r.InitialChips,
		Seat:      -1,
		Status:    StatusSittingOut,
		JoinOrder: r.JoinCounter,
	}
	r.Players[id] = p
	return p
}

// RemovePlayer takes a player out of the room. Forbidden while they are in
// a live hand. Ownership passes to the earliest-joined remaining player.
func (r *Room) RemovePlayer(id string) error {
	p, err := r.Player(id)
	if err != nil {
		return err
	}
	if r.Status == RoomPlaying && p.Seated() {
		return Errorf(KindIllegalAction, "cannot leave during a hand")
	}
	if p.Seated() {
		r.Seats[p.Seat] = ""
	}
	delete(r.Players, id)
	if r.OwnerID == id {
		r.OwnerID = ""
		for _, q := range r.sortedPlayers() {
			r.OwnerID = q.ID
			break
		}
	}
	return nil
}

// MarkConnected records session liveness for a player.
func (r *Room) MarkConnected(id string, connected bool) ([]Event, error) {
	p, err := r.Player(id)
	if err != nil {
		return nil, err
	}
	if p.IsConnected == connected {
		return nil, nil
	}
	p.IsConnected = connected
	name := EventPlayerDisconnected
	if connected {
		name = EventPlayerConnected
	}
	return []Event{NewEvent(name, "player_id", id)}, nil
}

// SeatedPlayers returns the seated players in seat order.
func (r *Room) SeatedPlayers() []*Player {
	out := make([]*Player, 0, len(r.Players))
	for seat := 0; seat < SeatCount; seat++ {
		if id := r.Seats[seat]; id != "" {
			out = append(out, r.Players[id])
		}
	}
	return out
}

// sortedPlayers returns every player ordered by arrival.
func (r *Room) sortedPlayers() []*Player {
	out := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinOrder != out[j].JoinOrder {
			return out[i].JoinOrder < out[j].JoinOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// nonFoldedSeated is the settlement quorum: everyone still holding cards.
func (r *Room) nonFoldedSeated() []*Player {
	out := make([]*Player, 0, len(r.Players))
	for _, p := range r.SeatedPlayers() {
		if p.InHand() {
			out = append(out, p)
		}
	}
	return out
}

// activeCount counts players who can still make betting decisions.
func (r *Room) activeCount() int {
	n := 0
	for _, p := range r.SeatedPlayers() {
		if p.CanAct() {
			n++
		}
	}
	return n
}

// nextOccupiedSeat walks clockwise from seat+1 to the next taken seat.
// Returns -1 when no seat is occupied.
func (r *Room) nextOccupiedSeat(seat int) int {
	for i := 1; i <= SeatCount; i++ {
		s := (seat + i) % SeatCount
		if s < 0 {
			s += SeatCount
		}
		if r.Seats[s] != "" {
			return s
		}
	}
	return -1
}

// lowestOccupiedSeat returns the first taken seat, or -1.
func (r *Room) lowestOccupiedSeat() int {
	for s := 0; s < SeatCount; s++ {
		if r.Seats[s] != "" {
			return s
		}
	}
	return -1
}

// CanRebuy reports whether the rebuy gate is open for the player: at zero
// chips when no minimum is set, otherwise at or below the minimum.
func (r *Room) CanRebuy(p *Player) bool {
	if r.RebuyMinimum == 0 {
		return p.Chips == 0
	}
	return p.Chips <= r.RebuyMinimum
}

// MustCashout reports whether the player is over the table maximum and has
// to cash out before the next hand.
func (r *Room) MustCashout(p *Player) bool {
	return r.MaxChips > 0 && p.Chips > r.MaxChips
}

// ReadyToStart reports whether the next hand may begin: at least two seated
// players, everyone seated ready, nobody gated on a rebuy or cashout.
func (r *Room) ReadyToStart() bool {
	if r.Status != RoomWaiting {
		return false
	}
	seated := r.SeatedPlayers()
	if len(seated) < 2 {
		return false
	}
	for _, p := range seated {
		if !p.Ready || r.CanRebuy(p) || r.MustCashout(p) {
			return false
		}
	}
	return true
}

// Clone deep-copies the room so the actor can roll back a failed command.
func (r *Room) Clone() *Room {
	c := *r
	c.Players = make(map[string]*Player, len(r.Players))
	for id, p := range r.Players {
		pc := *p
		c.Players[id] = &pc
	}
	c.Seats = append([]string(nil), r.Seats...)
	if r.LastAllDisconnectedAt != nil {
		t := *r.LastAllDisconnectedAt
		c.LastAllDisconnectedAt = &t
	}
	if r.Hand != nil {
		h := *r.Hand
		h.Pots = make([]Pot, len(r.Hand.Pots))
		for i, pot := range r.Hand.Pots {
			h.Pots[i] = pot
			h.Pots[i].EligiblePlayers = append([]string(nil), pot.EligiblePlayers...)
		}
		h.ActionOrder = append([]string(nil), r.Hand.ActionOrder...)
		if r.Hand.Proposal != nil {
			pr := *r.Hand.Proposal
			pr.PotWinners = make(map[string][]string, len(r.Hand.Proposal.PotWinners))
			for k, v := range r.Hand.Proposal.PotWinners {
				pr.PotWinners[k] = append([]string(nil), v...)
			}
			pr.ConfirmedBy = append([]string(nil), r.Hand.Proposal.ConfirmedBy...)
			h.Proposal = &pr
		}
		c.Hand = &h
	}
	return &c
}

// MarshalSnapshot encodes the room for the snapshot store.
func (r *Room) MarshalSnapshot() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalSnapshot decodes a stored room snapshot.
func UnmarshalSnapshot(data []byte) (*Room, error) {
	var r Room
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, Errorf(KindInternal, "decode snapshot: %v", err)
	}
	if r.Players == nil {
		r.Players = make(map[string]*Player)
	}
	if len(r.Seats) != SeatCount {
		seats := make([]string, SeatCount)
		copy(seats, r.Seats)
		r.Seats = seats
	}
	return &r, nil
}
