package combat

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable error code. Callers branch on codes;
// messages are for humans and may change.
type Code string

const (
	// CodeValidation marks a malformed action rejected before any session
	// lookup or mutation.
	CodeValidation Code = "VALIDATION"
	// CodeInvalidAction marks a structurally valid action that the session
	// state rejects: missing/inactive session, actor not a participant, or
	// not the actor's turn. Recoverable; the caller may retry with
	// corrected input.
	CodeInvalidAction Code = "INVALID_ACTION"
	// CodeInsufficientResources marks an affordable-check failure. The turn
	// is not consumed; the caller may resubmit a cheaper action.
	CodeInsufficientResources Code = "INSUFFICIENT_RESOURCES"
	// CodeCombatTimeout marks a session past its round limit. Terminal.
	CodeCombatTimeout Code = "COMBAT_TIMEOUT"
	// CodeAlreadyInCombat rejects starting a session for an actor that
	// already holds an active one.
	CodeAlreadyInCombat Code = "ALREADY_IN_COMBAT"
	// CodeInvalidTarget rejects a startCombat target list that is empty,
	// includes the initiator, or names an unknown character.
	CodeInvalidTarget Code = "INVALID_TARGET"
	// CodeInsufficientParticipants rejects a session with fewer than two
	// distinct sides.
	CodeInsufficientParticipants Code = "INSUFFICIENT_PARTICIPANTS"
	// CodeStoreUnavailable marks a persistence failure. No partial mutation
	// is visible; the engine computes fully, then commits.
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
)

// Error is the tagged error type crossing the engine boundary. Every engine
// operation returns either a success value or an *Error (store failures are
// wrapped with CodeStoreUnavailable).
type Error struct {
	Code    Code
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// NewError creates an *Error with the given code and formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapStoreError wraps a store failure with CodeStoreUnavailable.
func WrapStoreError(err error) *Error {
	return &Error{Code: CodeStoreUnavailable, Message: "session store unavailable", cause: err}
}

// CodeOf extracts the Code from err, or "" if err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// ErrSessionNotFound is the sentinel returned by session stores when a key
// is absent or its TTL has expired. Absence is an expected outcome, not an
// engine Error.
var ErrSessionNotFound = errors.New("session not found")
