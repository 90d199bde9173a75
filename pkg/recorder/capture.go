package recorder

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/willibrandon/ChronoGL/pkg/chunk"
	"github.com/willibrandon/ChronoGL/pkg/gl"
	"github.com/willibrandon/ChronoGL/pkg/resource"
)

// Record is a frozen ResourceRecord as carried by a capture
type Record struct {
	ID     resource.ID
	Target gl.Enum
	Chunks []*chunk.Chunk
}

// Capture is everything replay needs for one frame: the persistent record of
// every resource alive when the frame ended, and the frame's session log.
type Capture struct {
	SessionID uuid.UUID
	Created   time.Time
	Version   string

	Records []Record
	Frame   []*chunk.Chunk
}

// SortRecords orders records by resource ID so that replay and encoding are
// deterministic.
func (c *Capture) SortRecords() {
	sort.Slice(c.Records, func(i, j int) bool { return c.Records[i].ID < c.Records[j].ID })
}

// Record returns the record for id
func (c *Capture) Record(id resource.ID) (Record, bool) {
	for _, r := range c.Records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// ChunkCount returns the total number of chunks in records and frame
func (c *Capture) ChunkCount() int {
	n := len(c.Frame)
	for _, r := range c.Records {
		n += len(r.Chunks)
	}
	return n
}
