package recorder

import (
	"sync"

	"github.com/willibrandon/ChronoGL/pkg/chunk"
	"github.com/willibrandon/ChronoGL/pkg/gl"
	"github.com/willibrandon/ChronoGL/pkg/invariant"
	"github.com/willibrandon/ChronoGL/pkg/resource"
)

// Storage is the allocation metadata persisted by the first storage call
type Storage struct {
	InternalFormat gl.Enum
	Levels         int32
	Width          uint32
	Height         uint32
	Depth          uint32
}

// ResourceRecord is a resource's persistent reconstruction log: every chunk
// needed to rebuild it from creation, plus its immutable target.
type ResourceRecord struct {
	mu      sync.Mutex
	id      resource.ID
	target  gl.Enum
	storage *Storage
	chunks  []*chunk.Chunk
}

// NewResourceRecord creates an empty record for id
func NewResourceRecord(id resource.ID) *ResourceRecord {
	return &ResourceRecord{id: id}
}

// ID returns the resource the record belongs to
func (r *ResourceRecord) ID() resource.ID {
	return r.id
}

// Target returns the established target, zero before the first bind
func (r *ResourceRecord) Target() gl.Enum {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target
}

// BindTarget establishes the record's target. It reports true the first time,
// false when target matches the established one, and a Retarget violation
// when it does not.
func (r *ResourceRecord) BindTarget(target gl.Enum, opcode string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.target {
	case 0:
		r.target = target
		return true, nil
	case target:
		return false, nil
	default:
		return false, invariant.New(invariant.Retarget, opcode, r.id,
			"bound as %s, previously %s", target, r.target)
	}
}

// SetStorage persists allocation metadata. Only the first call takes effect,
// matching immutable storage in the API.
func (r *ResourceRecord) SetStorage(s Storage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.storage != nil {
		return false
	}
	r.storage = &s
	return true
}

// Storage returns the allocation metadata if storage has been allocated
func (r *ResourceRecord) Storage() (Storage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.storage == nil {
		return Storage{}, false
	}
	return *r.storage, true
}

func (r *ResourceRecord) Record(c *chunk.Chunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = append(r.chunks, c)
	return nil
}

// Chunks returns a copy of the record in append order
func (r *ResourceRecord) Chunks() []*chunk.Chunk {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*chunk.Chunk, len(r.chunks))
	copy(out, r.chunks)
	return out
}

func (r *ResourceRecord) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chunks)
}

func (r *ResourceRecord) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = nil
}

// Snapshot freezes the record for a capture
func (r *ResourceRecord) Snapshot() Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := Record{ID: r.id, Target: r.target, Chunks: make([]*chunk.Chunk, len(r.chunks))}
	copy(out.Chunks, r.chunks)
	return out
}
