// Package recorder holds the ordered chunk logs produced by capture: the
// persistent per-resource records, the frame-scoped session log, and the
// capture container that carries both to replay.
package recorder

import (
	"sync"

	"github.com/willibrandon/ChronoGL/pkg/chunk"
)

// Recorder is an ordered, append-only chunk log
type Recorder interface {
	Record(c *chunk.Chunk) error
	Chunks() []*chunk.Chunk
	Len() int
	Clear()
}

// InMemoryRecorder keeps chunks in a slice. It does no locking of its own;
// callers serialize access the same way they serialize the API context.
type InMemoryRecorder struct {
	chunks []*chunk.Chunk
}

func NewInMemoryRecorder() *InMemoryRecorder {
	return &InMemoryRecorder{chunks: []*chunk.Chunk{}}
}

func (r *InMemoryRecorder) Record(c *chunk.Chunk) error {
	r.chunks = append(r.chunks, c)
	return nil
}

// Chunks returns a copy of the log in append order
func (r *InMemoryRecorder) Chunks() []*chunk.Chunk {
	out := make([]*chunk.Chunk, len(r.chunks))
	copy(out, r.chunks)
	return out
}

func (r *InMemoryRecorder) Len() int {
	return len(r.chunks)
}

func (r *InMemoryRecorder) Clear() {
	r.chunks = []*chunk.Chunk{}
}

// SessionLog is the frame-scoped log of one active capture. Calls from every
// context sharing the session land here in the order they were issued.
type SessionLog struct {
	mu  sync.Mutex
	log InMemoryRecorder
}

func NewSessionLog() *SessionLog {
	return &SessionLog{}
}

func (s *SessionLog) Record(c *chunk.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Record(c)
}

func (s *SessionLog) Chunks() []*chunk.Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Chunks()
}

func (s *SessionLog) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Len()
}

func (s *SessionLog) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Clear()
}
