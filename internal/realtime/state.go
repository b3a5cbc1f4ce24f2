package realtime

import (
	"errors"
	"strings"
)

// State is the lifecycle state of a websocket connection.
//
// A connection is created UNAUTHENTICATED, moves to AUTHENTICATED on a
// verified authenticate event, toggles between AUTHENTICATED and TRACKING on
// tracking start/stop, and ends CLOSED. There is no way back out of CLOSED.
type State string

const (
	StateUnauthenticated State = "UNAUTHENTICATED"
	StateAuthenticated   State = "AUTHENTICATED"
	StateTracking        State = "TRACKING"
	StateClosed          State = "CLOSED"
)

var ErrInvalidState = errors.New("invalid connection state")

// ParseState normalizes (uppercases+trims) and validates a state string.
func ParseState(s string) (State, error) {
	state := State(strings.ToUpper(strings.TrimSpace(s)))
	if state.Valid() {
		return state, nil
	}
	return "", ErrInvalidState
}

// Valid reports whether state is one of the allowed state constants.
func (state State) Valid() bool {
	switch state {
	case StateUnauthenticated, StateAuthenticated, StateTracking, StateClosed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the State.
func (state State) String() string {
	return string(state)
}

// Authenticated reports whether the connection has a verified identity and
// is still open (TRACKING implies authenticated).
func (state State) Authenticated() bool {
	return state == StateAuthenticated || state == StateTracking
}

func (state State) IsTracking() bool { return state == StateTracking }
func (state State) IsClosed() bool   { return state == StateClosed }
