package engine

import (
	"errors"
	"fmt"
)

// ErrKind classifies engine failures so the transport layers can map them
// to HTTP statuses or error frames without matching on message text.
type ErrKind int

const (
	KindNotFound ErrKind = iota
	KindValidation
	KindIllegalAction
	KindNotYourTurn
	KindMustRebuy
	KindMustCashout
	KindConflict
	KindInternal
)

func (k ErrKind) String() string {
	return [...]string{
		"not_found",
		"validation",
		"illegal_action",
		"not_your_turn",
		"must_rebuy",
		"must_cashout",
		"conflict",
		"internal",
	}[k]
}

// Error is a typed engine failure. Every engine operation guarantees the
// room snapshot is unchanged when it returns one.
type Error struct {
	Kind    ErrKind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Errorf builds a typed engine error.
func Errorf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from an error chain. Errors that did not
// originate in the engine report as KindInternal.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
