package replay

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/willibrandon/ChronoGL/pkg/chunk"
	"github.com/willibrandon/ChronoGL/pkg/resource"
)

// BreakpointType defines the type of breakpoint
type BreakpointType int

const (
	// OpcodeBreakpoint breaks before every chunk with an opcode
	OpcodeBreakpoint BreakpointType = iota
	// ResourceBreakpoint breaks before every chunk touching a resource
	ResourceBreakpoint
	// FrameBreakpoint breaks before the first chunk of the frame pass
	FrameBreakpoint
	// StepBreakpoint breaks before one step index
	StepBreakpoint
)

// String returns the string representation of the BreakpointType
func (t BreakpointType) String() string {
	switch t {
	case OpcodeBreakpoint:
		return "opcode"
	case ResourceBreakpoint:
		return "resource"
	case FrameBreakpoint:
		return "frame"
	case StepBreakpoint:
		return "step"
	default:
		return fmt.Sprintf("BreakpointType(%d)", int(t))
	}
}

// Breakpoint is a condition replay stops at
type Breakpoint struct {
	ID       int
	Type     BreakpointType
	Opcode   chunk.Opcode // For OpcodeBreakpoint
	Resource resource.ID  // For ResourceBreakpoint
	Step     int          // For StepBreakpoint
	Enabled  bool
}

// String returns the location form AddBreakpoint accepts
func (bp *Breakpoint) String() string {
	switch bp.Type {
	case OpcodeBreakpoint:
		return bp.Opcode.String()
	case ResourceBreakpoint:
		return "id:" + strconv.FormatUint(uint64(bp.Resource), 10)
	case StepBreakpoint:
		return "step:" + strconv.Itoa(bp.Step)
	default:
		return "frame"
	}
}

// BreakpointManager manages replay breakpoints. It is safe for concurrent
// use so breakpoints can be edited while a replay is paused elsewhere.
type BreakpointManager struct {
	mu          sync.Mutex
	breakpoints []*Breakpoint
	nextID      int
}

// NewBreakpointManager creates a new breakpoint manager
func NewBreakpointManager() *BreakpointManager {
	return &BreakpointManager{
		breakpoints: make([]*Breakpoint, 0),
		nextID:      1,
	}
}

// AddBreakpoint adds a breakpoint at a location: an opcode name
// ("TexSubImage2D"), "id:N" for a resource, "step:N" for a step index, or
// "frame" for the start of the frame pass.
func (bm *BreakpointManager) AddBreakpoint(location string) (*Breakpoint, error) {
	bp := &Breakpoint{Enabled: true}

	switch {
	case location == "frame":
		bp.Type = FrameBreakpoint
	case strings.HasPrefix(location, "id:"):
		id, err := strconv.ParseUint(strings.TrimPrefix(location, "id:"), 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid resource id in %q", location)
		}
		bp.Type = ResourceBreakpoint
		bp.Resource = resource.ID(id)
	case strings.HasPrefix(location, "step:"):
		step, err := strconv.Atoi(strings.TrimPrefix(location, "step:"))
		if err != nil || step < 0 {
			return nil, fmt.Errorf("invalid step in %q", location)
		}
		bp.Type = StepBreakpoint
		bp.Step = step
	default:
		op, ok := chunk.ParseOpcode(location)
		if !ok {
			return nil, fmt.Errorf("unknown opcode %q", location)
		}
		bp.Type = OpcodeBreakpoint
		bp.Opcode = op
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()
	bp.ID = bm.nextID
	bm.nextID++
	bm.breakpoints = append(bm.breakpoints, bp)
	return bp, nil
}

// GetBreakpoints returns all breakpoints
func (bm *BreakpointManager) GetBreakpoints() []*Breakpoint {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return append([]*Breakpoint(nil), bm.breakpoints...)
}

// RemoveBreakpoint removes a breakpoint by ID
func (bm *BreakpointManager) RemoveBreakpoint(id int) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	for i, bp := range bm.breakpoints {
		if bp.ID == id {
			bm.breakpoints = append(bm.breakpoints[:i], bm.breakpoints[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("breakpoint %d not found", id)
}

// EnableBreakpoint enables a breakpoint by ID
func (bm *BreakpointManager) EnableBreakpoint(id int) error {
	return bm.setEnabled(id, true)
}

// DisableBreakpoint disables a breakpoint by ID
func (bm *BreakpointManager) DisableBreakpoint(id int) error {
	return bm.setEnabled(id, false)
}

func (bm *BreakpointManager) setEnabled(id int, enabled bool) error {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	for _, bp := range bm.breakpoints {
		if bp.ID == id {
			bp.Enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("breakpoint %d not found", id)
}

// Hit returns the first enabled breakpoint step stops at
func (bm *BreakpointManager) Hit(step Step) (*Breakpoint, bool) {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	for _, bp := range bm.breakpoints {
		if !bp.Enabled {
			continue
		}
		if bp.matches(step) {
			return bp, true
		}
	}
	return nil, false
}

func (bp *Breakpoint) matches(step Step) bool {
	switch bp.Type {
	case OpcodeBreakpoint:
		return step.Chunk.Op == bp.Opcode
	case ResourceBreakpoint:
		_, known := chunk.Lookup(step.Chunk.Op)
		return known && step.Chunk.Resource() == bp.Resource
	case FrameBreakpoint:
		return step.Pass == PassFrame && step.PassIndex == 0
	case StepBreakpoint:
		return step.Index == bp.Step
	}
	return false
}

// CheckBreakpoint reports whether any enabled breakpoint stops at step
func (bm *BreakpointManager) CheckBreakpoint(step Step) bool {
	_, hit := bm.Hit(step)
	return hit
}

// Check returns a Check backed by the manager
func (bm *BreakpointManager) Check() Check {
	return bm.CheckBreakpoint
}
