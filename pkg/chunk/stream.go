package chunk

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/willibrandon/ChronoGL/pkg/invariant"
	"github.com/willibrandon/ChronoGL/pkg/resource"
)

// MaxFrameSize bounds a single framed chunk. Anything larger is treated as a
// corrupt length prefix rather than allocated.
const MaxFrameSize = 256 << 20

// maxPrealloc caps the slice ReadN reserves up front
const maxPrealloc = 1024

// Writer frames chunks as [u32 length][chunk bytes]
type Writer struct {
	w   io.Writer
	buf []byte
	n   int
}

// NewWriter creates a framing writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write encodes and frames one chunk
func (w *Writer) Write(c *Chunk) error {
	w.buf = append(w.buf[:0], 0, 0, 0, 0)
	w.buf = AppendEncode(w.buf, c)
	binary.LittleEndian.PutUint32(w.buf, uint32(len(w.buf)-4))
	if _, err := w.w.Write(w.buf); err != nil {
		return fmt.Errorf("write %s: %w", c.desc.Name, err)
	}
	w.n++
	return nil
}

// Count returns how many chunks have been written
func (w *Writer) Count() int {
	return w.n
}

// Reader reads framed chunks
type Reader struct {
	r *bufio.Reader
}

// NewReader creates a framing reader. A *bufio.Reader is used as is, so the
// caller can interleave its own reads between chunks.
func NewReader(r io.Reader) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br}
}

// Read returns the next chunk, or io.EOF after the last complete frame. A frame
// cut short is reported as a schema mismatch, never as a clean end.
func (r *Reader) Read() (*Chunk, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, invariant.New(invariant.SchemaMismatch, "", resource.Null, "truncated frame header: %v", err)
	}
	n := binary.LittleEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return nil, invariant.New(invariant.SchemaMismatch, "", resource.Null, "frame length %d exceeds limit", n)
	}
	// n is read from the stream, so the buffer grows with the bytes that
	// actually arrive
	body, err := io.ReadAll(io.LimitReader(r.r, int64(n)))
	if err != nil {
		return nil, invariant.New(invariant.SchemaMismatch, "", resource.Null, "frame of %d bytes: %v", n, err)
	}
	if len(body) != int(n) {
		return nil, invariant.New(invariant.SchemaMismatch, "", resource.Null,
			"truncated frame of %d bytes: got %d", n, len(body))
	}
	return Decode(body)
}

// ReadN reads exactly n chunks. n usually comes from the stream itself, so
// it only bounds the loop, not the allocation.
func (r *Reader) ReadN(n int) ([]*Chunk, error) {
	out := make([]*Chunk, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		c, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil, invariant.New(invariant.SchemaMismatch, "", resource.Null,
				"stream ended after %d of %d chunks", i, n)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ReadAll reads chunks until io.EOF
func (r *Reader) ReadAll() ([]*Chunk, error) {
	var out []*Chunk
	for {
		c, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
}
