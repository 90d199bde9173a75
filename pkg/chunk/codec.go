package chunk

import (
	"encoding/binary"
	"math"

	"github.com/willibrandon/ChronoGL/pkg/gl"
	"github.com/willibrandon/ChronoGL/pkg/invariant"
	"github.com/willibrandon/ChronoGL/pkg/resource"
)

var le = binary.LittleEndian

// Encode serializes a chunk in its opcode's declared field order
func Encode(c *Chunk) []byte {
	return AppendEncode(nil, c)
}

// AppendEncode appends the encoding of c to dst
func AppendEncode(dst []byte, c *Chunk) []byte {
	dst = le.AppendUint16(dst, uint16(c.Op))
	for i, f := range c.desc.Fields {
		v := c.values[i]
		switch f.Kind {
		case KindEnum:
			dst = le.AppendUint32(dst, uint32(v.(gl.Enum)))
		case KindInt32:
			dst = le.AppendUint32(dst, uint32(v.(int32)))
		case KindUint32:
			dst = le.AppendUint32(dst, v.(uint32))
		case KindFloat32:
			dst = le.AppendUint32(dst, math.Float32bits(v.(float32)))
		case KindResource:
			dst = le.AppendUint64(dst, uint64(v.(resource.ID)))
		case KindInt32Array:
			for _, x := range v.([]int32) {
				dst = le.AppendUint32(dst, uint32(x))
			}
		case KindFloat32Array:
			for _, x := range v.([]float32) {
				dst = le.AppendUint32(dst, math.Float32bits(x))
			}
		}
	}
	if c.desc.HasPayload() {
		dst = le.AppendUint32(dst, uint32(len(c.Payload)))
		dst = append(dst, c.Payload...)
	}
	return dst
}

// decoder reads fields off one encoded chunk and remembers the first short
// read so callers can check once at the end.
type decoder struct {
	buf   []byte
	off   int
	short bool
}

func (d *decoder) u32() uint32 {
	if d.off+4 > len(d.buf) {
		d.short = true
		return 0
	}
	v := le.Uint32(d.buf[d.off:])
	d.off += 4
	return v
}

func (d *decoder) u64() uint64 {
	if d.off+8 > len(d.buf) {
		d.short = true
		return 0
	}
	v := le.Uint64(d.buf[d.off:])
	d.off += 8
	return v
}

func (d *decoder) bytes(n int) []byte {
	if n < 0 || d.off+n > len(d.buf) {
		d.short = true
		return nil
	}
	out := make([]byte, n)
	copy(out, d.buf[d.off:d.off+n])
	d.off += n
	return out
}

// Decode parses one encoded chunk. It must consume b exactly: unknown
// opcodes, short reads, trailing bytes and payload lengths that disagree with
// the derived size are all reported as *invariant.Violation.
func Decode(b []byte) (*Chunk, error) {
	if len(b) < 2 {
		return nil, invariant.New(invariant.SchemaMismatch, "", resource.Null,
			"chunk of %d bytes has no opcode", len(b))
	}
	op := Opcode(le.Uint16(b))
	desc, ok := Lookup(op)
	if !ok {
		return nil, invariant.New(invariant.UnknownOpcode, op.String(), resource.Null,
			"no descriptor for opcode %d", uint16(op))
	}

	d := &decoder{buf: b, off: 2}
	values := make([]any, 0, len(desc.Fields))
	for _, f := range desc.Fields {
		switch f.Kind {
		case KindEnum:
			values = append(values, gl.Enum(d.u32()))
		case KindInt32:
			values = append(values, int32(d.u32()))
		case KindUint32:
			values = append(values, d.u32())
		case KindFloat32:
			values = append(values, math.Float32frombits(d.u32()))
		case KindResource:
			values = append(values, resource.ID(d.u64()))
		case KindInt32Array:
			n := f.Count(Args{desc: desc, values: values})
			s := make([]int32, n)
			for i := range s {
				s[i] = int32(d.u32())
			}
			values = append(values, s)
		case KindFloat32Array:
			n := f.Count(Args{desc: desc, values: values})
			s := make([]float32, n)
			for i := range s {
				s[i] = math.Float32frombits(d.u32())
			}
			values = append(values, s)
		}
		if d.short {
			return nil, invariant.New(invariant.SchemaMismatch, desc.Name, resource.Null,
				"chunk ends inside field %s", f.Name)
		}
	}

	c := &Chunk{Op: op, Args: Args{desc: desc, values: values}}
	id := c.Resource()

	if desc.HasPayload() {
		n := d.u32()
		if d.short {
			return nil, invariant.New(invariant.SchemaMismatch, desc.Name, id, "chunk ends before payload length")
		}
		want, err := desc.Payload(c.Args)
		if err != nil {
			return nil, invariant.New(invariant.SchemaMismatch, desc.Name, id, "%v", err)
		}
		if int(n) != want {
			return nil, invariant.New(invariant.SchemaMismatch, desc.Name, id,
				"payload length %d, fields derive %d", n, want)
		}
		c.Payload = d.bytes(int(n))
		if d.short {
			return nil, invariant.New(invariant.SchemaMismatch, desc.Name, id,
				"payload truncated: %d of %d bytes", len(b)-d.off, n)
		}
	}

	if d.off != len(b) {
		return nil, invariant.New(invariant.SchemaMismatch, desc.Name, id,
			"%d trailing bytes after last field", len(b)-d.off)
	}
	return c, nil
}
