// Package protocol defines the JSON frames exchanged over the room
// WebSocket. Frames are flat objects discriminated by a "type" tag; field
// names are the client wire contract and must not change spelling.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Inbound frame types (client to server).
const (
	InPing          = "ping"
	InSit           = "sit"
	InStand         = "stand"
	InReady         = "ready"
	InAction        = "action"
	InProposeSettle = "propose_settle"
	InConfirmSettle = "confirm_settle"
	InRejectSettle  = "reject_settle"
	InRebuy         = "rebuy"
	InCashout       = "cashout"
	InEndGame       = "end_game"
)

// Outbound frame types (server to client).
const (
	OutPong      = "pong"
	OutRoomState = "room_state"
	OutEvent     = "event"
	OutError     = "error"
)

// Inbound is a decoded client frame. Only the fields relevant to the tagged
// type are populated; Timestamp stays raw so pong can echo it verbatim.
type Inbound struct {
	Type       string              `json:"type"`
	Timestamp  json.RawMessage     `json:"timestamp,omitempty"`
	Seat       *int                `json:"seat,omitempty"`
	Action     string              `json:"action,omitempty"`
	Amount     int                 `json:"amount,omitempty"`
	PotWinners map[string][]string `json:"pot_winners,omitempty"`
}

// ParseInbound decodes and validates one client frame. Unknown tags and
// missing required fields are rejected here so the actor only ever sees
// well-formed commands.
func ParseInbound(data []byte) (*Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	switch in.Type {
	case InPing, InStand, InReady, InConfirmSettle, InRejectSettle,
		InRebuy, InCashout, InEndGame:
	case InSit:
		if in.Seat == nil {
			return nil, fmt.Errorf("sit frame requires a seat")
		}
	case InAction:
		if in.Action == "" {
			return nil, fmt.Errorf("action frame requires an action")
		}
	case InProposeSettle:
		if len(in.PotWinners) == 0 {
			return nil, fmt.Errorf("propose_settle frame requires pot_winners")
		}
	case "":
		return nil, fmt.Errorf("frame has no type")
	default:
		return nil, fmt.Errorf("unknown frame type %q", in.Type)
	}
	return &in, nil
}

// Pong builds the heartbeat reply. The timestamp is echoed byte for byte so
// clients can use whatever clock representation they sent.
func Pong(timestamp json.RawMessage) []byte {
	if len(timestamp) == 0 {
		timestamp = json.RawMessage("null")
	}
	data, _ := json.Marshal(map[string]json.RawMessage{
		"type":      json.RawMessage(`"pong"`),
		"timestamp": timestamp,
	})
	return data
}

// RoomState wraps a full room snapshot for broadcast.
func RoomState(room any) ([]byte, error) {
	return json.Marshal(map[string]any{
		"type": OutRoomState,
		"room": room,
	})
}

// Event flattens a named advisory event and its fields into one frame.
func Event(name string, fields map[string]any) ([]byte, error) {
	frame := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		frame[k] = v
	}
	frame["type"] = OutEvent
	frame["event"] = name
	return json.Marshal(frame)
}

// Error builds a transient error frame for the originating client.
func Error(message string) []byte {
	data, _ := json.Marshal(map[string]string{
		"type":    OutError,
		"message": message,
	})
	return data
}
