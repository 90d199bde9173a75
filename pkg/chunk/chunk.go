package chunk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/willibrandon/ChronoGL/pkg/gl"
	"github.com/willibrandon/ChronoGL/pkg/invariant"
	"github.com/willibrandon/ChronoGL/pkg/resource"
)

var (
	// ErrShortPayload is returned by Build when the caller's buffer holds
	// fewer bytes than the fields say the call reads.
	ErrShortPayload = errors.New("payload shorter than derived size")
	// ErrPayloadSize is returned when a declared payload size disagrees with
	// the size derived from the other fields.
	ErrPayloadSize = errors.New("payload size mismatch")
	// ErrUnexpectedPayload is returned when a payload is given to an opcode
	// that declares none.
	ErrUnexpectedPayload = errors.New("opcode carries no payload")
	// ErrUnknownPixelFormat is returned when no payload size can be derived
	// for a format/type pair.
	ErrUnknownPixelFormat = errors.New("unknown pixel format")
)

// Args is the ordered field list of one chunk, addressed by field name.
// Accessors panic when the name is not part of the opcode's schema or holds
// another kind; both are programming errors, not data errors.
type Args struct {
	desc   *Descriptor
	values []any
}

// Len returns the number of populated fields
func (a Args) Len() int {
	return len(a.values)
}

// Has reports whether the named field is populated
func (a Args) Has(name string) bool {
	i, ok := a.desc.index[name]
	return ok && i < len(a.values)
}

// Value returns the named field as stored
func (a Args) Value(name string) any {
	i, ok := a.desc.index[name]
	if !ok || i >= len(a.values) {
		panic(fmt.Sprintf("chunk: %s has no field %q", a.desc.Name, name))
	}
	return a.values[i]
}

// Values returns a copy of all field values in schema order
func (a Args) Values() []any {
	out := make([]any, len(a.values))
	copy(out, a.values)
	return out
}

func (a Args) Enum(name string) gl.Enum { return a.Value(name).(gl.Enum) }
func (a Args) Int32(name string) int32 { return a.Value(name).(int32) }
func (a Args) Uint32(name string) uint32 { return a.Value(name).(uint32) }
func (a Args) Float32(name string) float32 { return a.Value(name).(float32) }
func (a Args) ID(name string) resource.ID { return a.Value(name).(resource.ID) }
func (a Args) Int32s(name string) []int32 { return a.Value(name).([]int32) }
func (a Args) Float32s(name string) []float32 { return a.Value(name).([]float32) }

// Chunk is one recorded call: opcode, typed fields in declared order, and an
// optional payload whose length was derived from the fields.
type Chunk struct {
	Op Opcode
	Args
	Payload []byte
}

// Descriptor returns the chunk's opcode descriptor
func (c *Chunk) Descriptor() *Descriptor {
	return c.desc
}

// Resource returns the resource the chunk refers to, or resource.Null
func (c *Chunk) Resource() resource.ID {
	if c.Has(FieldID) {
		return c.ID(FieldID)
	}
	return resource.Null
}

// String renders the chunk for logs and the inspect command
func (c *Chunk) String() string {
	var b strings.Builder
	b.WriteString(c.desc.Name)
	b.WriteByte('(')
	for i, f := range c.desc.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", f.Name, c.values[i])
	}
	if c.desc.HasPayload() {
		fmt.Fprintf(&b, ", payload=%dB", len(c.Payload))
	}
	b.WriteByte(')')
	return b.String()
}

// Build validates args against op's schema and returns a chunk. Array fields
// are truncated to their count rule and the payload to its derived size; both
// are copied so the caller may reuse its buffers.
func Build(op Opcode, payload []byte, args ...any) (*Chunk, error) {
	d, ok := Lookup(op)
	if !ok {
		return nil, invariant.New(invariant.UnknownOpcode, op.String(), resource.Null,
			"no descriptor for opcode %d", uint16(op))
	}
	if len(args) != len(d.Fields) {
		return nil, invariant.New(invariant.SchemaMismatch, d.Name, resource.Null,
			"got %d fields, schema declares %d", len(args), len(d.Fields))
	}

	values := make([]any, len(args))
	for i, f := range d.Fields {
		v, err := checkField(d, f, args[i], Args{desc: d, values: values[:i]})
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	c := &Chunk{Op: op, Args: Args{desc: d, values: values}}

	if !d.HasPayload() {
		if len(payload) > 0 {
			return nil, fmt.Errorf("%s: %w", d.Name, ErrUnexpectedPayload)
		}
		return c, nil
	}

	size, err := d.Payload(c.Args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name, err)
	}
	if len(payload) < size {
		return nil, fmt.Errorf("%s: %w: have %d bytes, need %d", d.Name, ErrShortPayload, len(payload), size)
	}
	c.Payload = make([]byte, size)
	copy(c.Payload, payload)
	return c, nil
}

// MustBuild is like Build but panics on error
func MustBuild(op Opcode, payload []byte, args ...any) *Chunk {
	c, err := Build(op, payload, args...)
	if err != nil {
		panic(err)
	}
	return c
}

func checkField(d *Descriptor, f Field, v any, prefix Args) (any, error) {
	mismatch := func() error {
		return invariant.New(invariant.SchemaMismatch, d.Name, resource.Null,
			"field %s wants %s, got %T", f.Name, f.Kind, v)
	}

	switch f.Kind {
	case KindEnum:
		if _, ok := v.(gl.Enum); !ok {
			return nil, mismatch()
		}
	case KindInt32:
		if _, ok := v.(int32); !ok {
			return nil, mismatch()
		}
	case KindUint32:
		if _, ok := v.(uint32); !ok {
			return nil, mismatch()
		}
	case KindFloat32:
		if _, ok := v.(float32); !ok {
			return nil, mismatch()
		}
	case KindResource:
		if _, ok := v.(resource.ID); !ok {
			return nil, mismatch()
		}
	case KindInt32Array:
		s, ok := v.([]int32)
		if !ok {
			return nil, mismatch()
		}
		n := f.Count(prefix)
		if len(s) < n {
			return nil, fmt.Errorf("%s: field %s needs %d values, got %d", d.Name, f.Name, n, len(s))
		}
		return append([]int32(nil), s[:n]...), nil
	case KindFloat32Array:
		s, ok := v.([]float32)
		if !ok {
			return nil, mismatch()
		}
		n := f.Count(prefix)
		if len(s) < n {
			return nil, fmt.Errorf("%s: field %s needs %d values, got %d", d.Name, f.Name, n, len(s))
		}
		return append([]float32(nil), s[:n]...), nil
	default:
		return nil, mismatch()
	}
	return v, nil
}
