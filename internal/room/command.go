package room

import (
	"github.com/chiprail/chiprail/internal/engine"
)

// CommandKind discriminates actor inbox messages.
type CommandKind int

const (
	CmdJoin CommandKind = iota
	CmdLeave
	CmdSit
	CmdStand
	CmdReady
	CmdAction
	CmdPropose
	CmdConfirm
	CmdReject
	CmdRebuy
	CmdCashout
	CmdEndGame
	CmdSubscribe
	CmdUnsubscribe
	CmdConnect
	CmdDisconnect
	CmdHeartbeat
	CmdInspect
)

func (k CommandKind) String() string {
	return [...]string{
		"join", "leave", "sit", "stand", "ready", "action", "propose",
		"confirm", "reject", "rebuy", "cashout", "end_game", "subscribe",
		"unsubscribe", "connect", "disconnect", "heartbeat", "inspect",
	}[k]
}

// Command is one actor inbox message. Reply is buffered so the actor never
// blocks answering; Submit always provides it.
type Command struct {
	Kind     CommandKind
	PlayerID string

	Name       string // join
	Emoji      string // join
	Seat       int    // sit
	Action     engine.ActionKind
	Amount     int
	PotWinners map[string][]string
	Sub        *Subscriber

	reply chan result
}

type result struct {
	room *engine.Room // Inspect only: deep copy of the snapshot
	err  error
}
