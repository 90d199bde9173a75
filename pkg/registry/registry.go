// Package registry maps logical resource identities to native handles on both
// sides of a capture, and owns the persistent record of every resource.
package registry

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/willibrandon/ChronoGL/pkg/invariant"
	"github.com/willibrandon/ChronoGL/pkg/recorder"
	"github.com/willibrandon/ChronoGL/pkg/resource"
)

// Registry is shared by every context of a session. All maps sit behind one
// lock that is independent of any per-context serialization.
type Registry struct {
	next atomic.Uint64

	mu      sync.RWMutex
	ids     map[resource.Handle]resource.ID
	handles map[resource.ID]resource.Handle
	records map[resource.ID]*recorder.ResourceRecord
	live    map[resource.ID]resource.Handle
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		ids:     make(map[resource.Handle]resource.ID),
		handles: make(map[resource.ID]resource.Handle),
		records: make(map[resource.ID]*recorder.ResourceRecord),
		live:    make(map[resource.ID]resource.Handle),
	}
}

// Register allocates a fresh ID for a capture-side handle. Registering a
// handle that is already tracked replaces its binding; the old ID stays valid
// in chunks that already reference it.
func (r *Registry) Register(h resource.Handle) resource.ID {
	id := resource.ID(r.next.Add(1))

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.ids[h]; ok {
		delete(r.handles, old)
	}
	r.ids[h] = id
	r.handles[id] = h
	return id
}

// Unregister severs the capture-side binding of h
func (r *Registry) Unregister(h resource.Handle) resource.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.ids[h]
	if !ok {
		return resource.Null
	}
	delete(r.ids, h)
	delete(r.handles, id)
	return id
}

// IDOf returns the ID bound to h, or resource.Null for zero and untracked
// handles.
func (r *Registry) IDOf(h resource.Handle) resource.ID {
	if h.IsZero() {
		return resource.Null
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ids[h]
}

// HandleOf returns the capture-side handle bound to id
func (r *Registry) HandleOf(id resource.ID) (resource.Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[id]
	return h, ok
}

// CreateRecord returns the record for id, creating it if needed
func (r *Registry) CreateRecord(id resource.ID) *recorder.ResourceRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		rec = recorder.NewResourceRecord(id)
		r.records[id] = rec
	}
	return rec
}

// RecordOf returns the record for id, or nil when none exists
func (r *Registry) RecordOf(id resource.ID) *recorder.ResourceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records[id]
}

// DropRecord forgets the record for id
func (r *Registry) DropRecord(id resource.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
}

// Records returns every record ordered by ID
func (r *Registry) Records() []*recorder.ResourceRecord {
	r.mu.RLock()
	out := make([]*recorder.ResourceRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// BindLive binds id to a replay-side handle
func (r *Registry) BindLive(id resource.ID, h resource.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live[id] = h
}

// UnbindLive removes the replay-side binding of id
func (r *Registry) UnbindLive(id resource.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, id)
}

// LiveHandleOf resolves id to its replay-side handle. An unbound ID means a
// corrupt capture or a dependency replayed out of order, and is reported as an
// UnboundResource violation. The caller fills in the opcode.
func (r *Registry) LiveHandleOf(id resource.ID) (resource.Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.live[id]
	if !ok {
		return resource.Handle{}, invariant.New(invariant.UnboundResource, "", id, "no live handle")
	}
	return h, nil
}

// Len returns the number of tracked capture-side handles
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}
