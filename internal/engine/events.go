package engine

// Event names broadcast to room subscribers. Snapshots are authoritative;
// events are advisory and clients may use them for notices and animation.
const (
	EventSit                 = "sit"
	EventStand               = "stand"
	EventReadyToggle         = "ready_toggle"
	EventHandStarting        = "hand_starting"
	EventHandStarted         = "hand_started"
	EventPhaseChange         = "phase_change"
	EventAction              = "action"
	EventSingleWinner        = "single_winner"
	EventSettlementProposed  = "settlement_proposed"
	EventSettlementConfirmed = "settlement_confirmed"
	EventSettlementRejected  = "settlement_rejected"
	EventSettled             = "settled"
	EventRebuy               = "rebuy"
	EventCashout             = "cashout"
	EventGameEnded           = "game_ended"
	EventPlayerConnected     = "player_connected"
	EventPlayerDisconnected  = "player_disconnected"
)

// Event is a discrete advisory emitted alongside a state transition. On the
// wire it flattens into the event frame next to the "event" tag.
type Event struct {
	Name   string
	Fields map[string]any
}

// NewEvent builds an event from alternating key/value pairs.
func NewEvent(name string, kv ...any) Event {
	e := Event{Name: name, Fields: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e.Fields[key] = kv[i+1]
	}
	return e
}
