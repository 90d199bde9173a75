package capture

import (
	"errors"
	"fmt"
)

// State is the capture phase of a session
type State int32

const (
	// Disabled forwards calls and records nothing.
	Disabled State = iota
	// Idle records resource-durable calls into per-resource records.
	Idle
	// ActiveCapture records frame-scoped calls into the session log.
	ActiveCapture
	// Replaying produces no chunks.
	Replaying
)

// String returns the string representation of the State
func (s State) String() string {
	switch s {
	case Disabled:
		return "Disabled"
	case Idle:
		return "Idle"
	case ActiveCapture:
		return "ActiveCapture"
	case Replaying:
		return "Replaying"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Recording reports whether calls in this state can produce chunks
func (s State) Recording() bool {
	return s == Idle || s == ActiveCapture
}

// ErrInvalidTransition is returned when a trigger does not apply to the
// current state.
var ErrInvalidTransition = errors.New("invalid capture state transition")

// transitions lists the states each state may move to
var transitions = map[State][]State{
	Disabled:      {Idle, Replaying},
	Idle:          {Disabled, ActiveCapture, Replaying},
	ActiveCapture: {Idle},
	Replaying:     {Disabled, Idle},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
