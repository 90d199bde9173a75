// Package capture implements the capture state machine and the policy that
// routes every recorded call to a resource's persistent record or to the
// frame's session log.
package capture

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/willibrandon/ChronoGL/pkg/logging"
	"github.com/willibrandon/ChronoGL/pkg/metrics"
	"github.com/willibrandon/ChronoGL/pkg/recorder"
	"github.com/willibrandon/ChronoGL/pkg/registry"
	"github.com/willibrandon/ChronoGL/pkg/resource"
	"github.com/willibrandon/ChronoGL/pkg/version"
)

// Options configures a Session
type Options struct {
	// Enabled starts the session Idle instead of Disabled.
	Enabled bool

	// OnFailure receives every capture-time failure. Recording of the failing
	// call is abandoned; the application call itself has already completed.
	// Invariant violations arrive as *invariant.Violation.
	OnFailure func(error)

	Logger *slog.Logger
}

// Session owns everything one capture needs: the identity registry with its
// records, the frame log, and the current state. Sessions are independent of
// each other; nothing is process-wide.
type Session struct {
	id  uuid.UUID
	log *slog.Logger

	// barrier is held for reading by every recorded call and for writing by
	// state transitions, so no append races a transition.
	barrier      sync.RWMutex
	state        State
	beforeReplay State

	reg   *registry.Registry
	frame *recorder.SessionLog

	// deleted holds resources deleted during the active frame. Their records
	// outlive the delete until the frame ends.
	deletedMu sync.Mutex
	deleted   []resource.ID

	onFailure   func(error)
	unsupported sync.Map
}

// NewSession creates a session
func NewSession(opts Options) *Session {
	id := uuid.New()
	l := opts.Logger
	if l == nil {
		l = logging.Logger()
	}
	s := &Session{
		id:        id,
		log:       l.With("session", id.String()),
		reg:       registry.New(),
		frame:     recorder.NewSessionLog(),
		onFailure: opts.OnFailure,
	}
	if opts.Enabled {
		s.state = Idle
	}
	s.log.Info("capture session created", "state", s.state)
	return s
}

// ID returns the session identity
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns the current state
func (s *Session) State() State {
	s.barrier.RLock()
	defer s.barrier.RUnlock()
	return s.state
}

// Registry returns the session's identity registry
func (s *Session) Registry() *registry.Registry {
	return s.reg
}

// Frame returns the session log of the frame being captured
func (s *Session) Frame() *recorder.SessionLog {
	return s.frame
}

func (s *Session) transition(to State) error {
	if !canTransition(s.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
	}
	s.log.Info("capture state changed", "from", s.state, "to", to)
	s.state = to
	return nil
}

// Enable moves a disabled session to Idle
func (s *Session) Enable() error {
	s.barrier.Lock()
	defer s.barrier.Unlock()
	if s.state != Disabled {
		return fmt.Errorf("%w: enable from %s", ErrInvalidTransition, s.state)
	}
	return s.transition(Idle)
}

// Disable moves an idle session to Disabled
func (s *Session) Disable() error {
	s.barrier.Lock()
	defer s.barrier.Unlock()
	if s.state != Idle {
		return fmt.Errorf("%w: disable from %s", ErrInvalidTransition, s.state)
	}
	return s.transition(Disabled)
}

// StartFrame begins capturing a frame. The session log starts empty.
func (s *Session) StartFrame() error {
	s.barrier.Lock()
	defer s.barrier.Unlock()
	if err := s.transition(ActiveCapture); err != nil {
		return err
	}
	s.frame.Clear()
	s.dropDeleted()
	return nil
}

// EndFrame finishes the active capture and returns it. The capture holds the
// record of every created resource tracked by the session plus the frame log.
func (s *Session) EndFrame() (*recorder.Capture, error) {
	s.barrier.Lock()
	defer s.barrier.Unlock()
	if s.state != ActiveCapture {
		return nil, fmt.Errorf("%w: end frame in %s", ErrInvalidTransition, s.state)
	}

	c := &recorder.Capture{
		SessionID: s.id,
		Created:   time.Now().UTC(),
		Version:   version.GetVersion(),
		Frame:     s.frame.Chunks(),
	}
	for _, rec := range s.reg.Records() {
		// never bound, so never created
		if rec.Len() == 0 {
			continue
		}
		c.Records = append(c.Records, rec.Snapshot())
	}
	s.frame.Clear()
	released := s.dropDeleted()

	metrics.FramesCaptured.WithLabelValues("completed").Inc()
	s.log.Info("frame captured", "records", len(c.Records), "frame_chunks", len(c.Frame),
		"released", released)
	return c, s.transition(Idle)
}

// AbortFrame discards the partial session log. Idle-phase records are kept,
// except those of resources deleted during the frame.
func (s *Session) AbortFrame() error {
	s.barrier.Lock()
	defer s.barrier.Unlock()
	if s.state != ActiveCapture {
		return fmt.Errorf("%w: abort frame in %s", ErrInvalidTransition, s.state)
	}
	dropped := s.frame.Len()
	s.frame.Clear()
	s.dropDeleted()
	metrics.FramesCaptured.WithLabelValues("aborted").Inc()
	s.log.Info("frame aborted", "dropped_chunks", dropped)
	return s.transition(Idle)
}

// deferDrop keeps the record of id until the active frame ends
func (s *Session) deferDrop(id resource.ID) {
	s.deletedMu.Lock()
	defer s.deletedMu.Unlock()
	s.deleted = append(s.deleted, id)
}

// dropDeleted releases the records of resources deleted during the frame.
// The caller holds the barrier for writing.
func (s *Session) dropDeleted() int {
	s.deletedMu.Lock()
	defer s.deletedMu.Unlock()
	for _, id := range s.deleted {
		s.reg.DropRecord(id)
	}
	n := len(s.deleted)
	s.deleted = s.deleted[:0]
	return n
}

// BeginReplay suspends recording while decoded calls are reissued through
// wrapped contexts.
func (s *Session) BeginReplay() error {
	s.barrier.Lock()
	defer s.barrier.Unlock()
	prev := s.state
	if err := s.transition(Replaying); err != nil {
		return err
	}
	s.beforeReplay = prev
	return nil
}

// EndReplay returns to the state the session was in before BeginReplay
func (s *Session) EndReplay() error {
	s.barrier.Lock()
	defer s.barrier.Unlock()
	if s.state != Replaying {
		return fmt.Errorf("%w: end replay in %s", ErrInvalidTransition, s.state)
	}
	return s.transition(s.beforeReplay)
}
