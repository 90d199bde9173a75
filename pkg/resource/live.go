package resource

import (
	"bytes"
	"encoding/binary"
	"sort"
	"sync"

	"github.com/gogpu/gputypes"
)

// LiveResource is the replay-side state known about one resource
type LiveResource struct {
	ID     ID
	Handle Handle

	// Target is the GL target the resource was last bound to, zero until the
	// first bind is replayed.
	Target uint32

	// InternalFormat and Levels are set when storage is allocated.
	InternalFormat uint32
	Levels         int32

	Extent    gputypes.Extent3D
	Dimension gputypes.TextureDimension
	Format    gputypes.TextureFormat
}

// LiveTable maps resource IDs to the live objects created during replay.
// It is the artifact replay hands to analysis and visualization consumers.
//
// LiveTable is safe for concurrent use.
type LiveTable struct {
	mu      sync.RWMutex
	entries map[ID]*LiveResource
}

// NewLiveTable creates an empty table
func NewLiveTable() *LiveTable {
	return &LiveTable{entries: make(map[ID]*LiveResource)}
}

// Put inserts or replaces the entry for id with the given handle, dropping
// any metadata cached for a previous handle.
func (t *LiveTable) Put(id ID, h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id] = &LiveResource{ID: id, Handle: h}
}

// Update applies fn to the entry for id. It returns false when no entry exists.
func (t *LiveTable) Update(id ID, fn func(*LiveResource)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return false
	}
	fn(e)
	return true
}

// Get returns a copy of the entry for id
func (t *LiveTable) Get(id ID) (LiveResource, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id]
	if !ok {
		return LiveResource{}, false
	}
	return *e, true
}

// Remove deletes the entry for id
func (t *LiveTable) Remove(id ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

// Len returns the number of live entries
func (t *LiveTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Entries returns copies of all entries ordered by ID
func (t *LiveTable) Entries() []LiveResource {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]LiveResource, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MarshalBinary encodes the table deterministically: entries in ID order,
// fixed width little endian fields. Two tables with the same content always
// produce the same bytes.
func (t *LiveTable) MarshalBinary() ([]byte, error) {
	entries := t.Entries()

	var buf bytes.Buffer
	le := binary.LittleEndian
	var scratch [8]byte

	le.PutUint32(scratch[:4], uint32(len(entries)))
	buf.Write(scratch[:4])
	for _, e := range entries {
		le.PutUint64(scratch[:], uint64(e.ID))
		buf.Write(scratch[:])
		buf.WriteByte(byte(e.Handle.Kind))
		for _, v := range []uint32{
			e.Handle.Name,
			e.Target,
			e.InternalFormat,
			uint32(e.Levels),
			e.Extent.Width,
			e.Extent.Height,
			e.Extent.DepthOrArrayLayers,
		} {
			le.PutUint32(scratch[:4], v)
			buf.Write(scratch[:4])
		}
	}
	return buf.Bytes(), nil
}
