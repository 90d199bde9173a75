// Package invariant defines the fatal invariant violations raised by capture
// and replay. Violations are ordinary error values so that a test harness can
// observe them, while production replay treats any of them as session fatal.
package invariant

import (
	"errors"
	"fmt"

	"github.com/willibrandon/ChronoGL/pkg/resource"
)

// Kind classifies a violation
type Kind int

const (
	// Retarget: a resource was bound under a target different from the one
	// it was first bound to.
	Retarget Kind = iota + 1
	// UnboundResource: replay tried to resolve an ID with no live handle.
	UnboundResource
	// SchemaMismatch: a chunk's encoding does not match its opcode's schema.
	SchemaMismatch
	// UnknownOpcode: a chunk carries an opcode with no descriptor.
	UnknownOpcode
)

// String returns the string representation of the Kind
func (k Kind) String() string {
	switch k {
	case Retarget:
		return "Retarget"
	case UnboundResource:
		return "UnboundResource"
	case SchemaMismatch:
		return "SchemaMismatch"
	case UnknownOpcode:
		return "UnknownOpcode"
	default:
		return "Unknown"
	}
}

// Violation reports a broken invariant together with the opcode and
// resource involved, for diagnosis.
type Violation struct {
	Kind     Kind
	Opcode   string
	Resource resource.ID
	Detail   string
}

func (v *Violation) Error() string {
	msg := fmt.Sprintf("invariant violation %s", v.Kind)
	if v.Opcode != "" {
		msg += " in " + v.Opcode
	}
	if !v.Resource.IsNull() {
		msg += " on " + v.Resource.String()
	}
	if v.Detail != "" {
		msg += ": " + v.Detail
	}
	return msg
}

// New creates a violation
func New(kind Kind, opcode string, id resource.ID, format string, args ...any) *Violation {
	return &Violation{
		Kind:     kind,
		Opcode:   opcode,
		Resource: id,
		Detail:   fmt.Sprintf(format, args...),
	}
}

// As extracts a *Violation from err's chain
func As(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// Is reports whether err carries a violation of the given kind
func Is(err error, kind Kind) bool {
	v, ok := As(err)
	return ok && v.Kind == kind
}

// Handler receives violations. Capture calls it for failures that abort the
// recording of a single call; replay calls it once before aborting.
type Handler func(*Violation)

// Discard ignores violations
func Discard(*Violation) {}
