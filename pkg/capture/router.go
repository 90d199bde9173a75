package capture

import (
	"errors"
	"fmt"

	"github.com/willibrandon/ChronoGL/pkg/chunk"
	"github.com/willibrandon/ChronoGL/pkg/gl"
	"github.com/willibrandon/ChronoGL/pkg/metrics"
	"github.com/willibrandon/ChronoGL/pkg/recorder"
	"github.com/willibrandon/ChronoGL/pkg/resource"
)

var (
	// ErrNoResource is reported when a call that mutates the bound resource
	// is issued with nothing tracked bound.
	ErrNoResource = errors.New("no tracked resource bound")
	// ErrNoRecord is reported when a tracked ID has lost its record.
	ErrNoRecord = errors.New("resource has no record")
	// ErrUntracked is reported when a bound object was never registered with
	// the session, e.g. one generated while capture was disabled.
	ErrUntracked = errors.New("bound object is not tracked")
)

const (
	logRecord = "record"
	logFrame  = "frame"
)

// Created registers a freshly generated handle and opens its record. Like
// the API, the resource only comes into existence at its first bind, which
// writes the create chunk. It returns resource.Null when the session is not
// recording.
func (s *Session) Created(h resource.Handle) resource.ID {
	s.barrier.RLock()
	defer s.barrier.RUnlock()
	if !s.state.Recording() {
		return resource.Null
	}

	id := s.reg.Register(h)
	s.reg.CreateRecord(id)
	return id
}

// Deleted severs the capture binding of h. While idle the record goes with
// it. During an active capture the record stays until the frame ends so the
// frame can still resolve the ID, and the deletion itself is part of the
// frame unless the resource was never bound.
func (s *Session) Deleted(h resource.Handle) {
	s.barrier.RLock()
	defer s.barrier.RUnlock()
	if s.state == Replaying {
		return
	}

	id := s.reg.Unregister(h)
	if id.IsNull() {
		return
	}
	rec := s.reg.RecordOf(id)
	if s.state != ActiveCapture || rec == nil || rec.Target() == 0 {
		s.reg.DropRecord(id)
		return
	}
	s.deferDrop(id)

	c, err := chunk.Build(chunk.OpDeleteTexture, nil, id)
	if err != nil {
		s.fail(chunk.OpDeleteTexture, id, err)
		return
	}
	s.append(s.frame, logFrame, c)
}

// Bound records a bind of h to target and returns the bound ID. The first
// bind of a resource fixes its target and writes its create chunk to the
// record, in any recording phase. Binding it later under another target is
// reported as a Retarget violation and nothing is recorded. During an active
// capture every bind, including binding zero, is also part of the frame.
// Binding an object the session does not track records nothing.
func (s *Session) Bound(target gl.Enum, h resource.Handle) resource.ID {
	s.barrier.RLock()
	defer s.barrier.RUnlock()

	id := s.reg.IDOf(h)
	if !s.state.Recording() {
		return id
	}
	if id.IsNull() && !h.IsZero() {
		s.fail(chunk.OpBindTexture, id, fmt.Errorf("%w: %s", ErrUntracked, h))
		return id
	}

	if !id.IsNull() {
		rec := s.reg.RecordOf(id)
		if rec == nil {
			s.fail(chunk.OpBindTexture, id, fmt.Errorf("%w: %s", ErrNoRecord, id))
			return id
		}
		first, err := rec.BindTarget(target, chunk.OpBindTexture.String())
		if err != nil {
			s.fail(chunk.OpBindTexture, id, err)
			return id
		}
		if first {
			c, err := chunk.Build(chunk.OpCreateTexture, nil, target, id)
			if err != nil {
				s.fail(chunk.OpCreateTexture, id, err)
				return id
			}
			s.append(rec, logRecord, c)
		}
	}

	if s.state == ActiveCapture {
		c, err := chunk.Build(chunk.OpBindTexture, nil, target, id)
		if err != nil {
			s.fail(chunk.OpBindTexture, id, err)
			return id
		}
		s.append(s.frame, logFrame, c)
	}
	return id
}

// Record builds and routes one call by its opcode's routing class. Nothing is
// built unless the current state records the class. Creation, deletion and
// binding go through Created, Deleted and Bound instead.
func (s *Session) Record(op chunk.Opcode, payload []byte, args ...any) {
	s.barrier.RLock()
	defer s.barrier.RUnlock()

	desc, ok := chunk.Lookup(op)
	if !ok {
		s.fail(op, resource.Null, fmt.Errorf("record %s: unknown opcode", op))
		return
	}

	switch desc.Route {
	case chunk.RouteSelector:
		if s.state != ActiveCapture {
			return
		}
	case chunk.RouteState, chunk.RouteAlloc:
		if !s.state.Recording() {
			return
		}
	default:
		s.fail(op, resource.Null, fmt.Errorf("record %s: route %s has a dedicated entry point", op, desc.Route))
		return
	}

	c, err := chunk.Build(op, payload, args...)
	if err != nil {
		s.fail(op, resource.Null, err)
		return
	}
	if desc.Route == chunk.RouteSelector {
		s.append(s.frame, logFrame, c)
		return
	}

	id := c.Resource()
	if id.IsNull() {
		s.fail(op, id, ErrNoResource)
		return
	}
	rec := s.reg.RecordOf(id)
	if rec == nil {
		s.fail(op, id, fmt.Errorf("%w: %s", ErrNoRecord, id))
		return
	}

	if desc.Route == chunk.RouteAlloc {
		storage := recorder.Storage{
			InternalFormat: c.Enum(chunk.FieldFormat),
			Levels:         int32(c.Uint32(chunk.FieldLevels)),
			Width:          c.Uint32(chunk.FieldWidth),
			Height:         1,
			Depth:          1,
		}
		if c.Has(chunk.FieldHeight) {
			storage.Height = c.Uint32(chunk.FieldHeight)
		}
		if c.Has(chunk.FieldDepth) {
			storage.Depth = c.Uint32(chunk.FieldDepth)
		}
		if !rec.SetStorage(storage) {
			s.log.Debug("storage already allocated", "opcode", op.String(), "resource", id.String())
		}
		s.append(rec, logRecord, c)
		return
	}

	if s.state == ActiveCapture {
		s.append(s.frame, logFrame, c)
	} else {
		s.append(rec, logRecord, c)
	}
}

// Unsupported notes a forwarded call that cannot be recorded. It is counted
// every time and logged once per entry point.
func (s *Session) Unsupported(entryPoint string) {
	if s.State() == Disabled {
		return
	}
	metrics.UnsupportedCalls.WithLabelValues(entryPoint).Inc()
	if _, seen := s.unsupported.LoadOrStore(entryPoint, struct{}{}); !seen {
		s.log.Warn("entry point is not captured; replay of resources it creates will be incomplete",
			"entry_point", entryPoint)
	}
}

func (s *Session) append(log recorder.Recorder, name string, c *chunk.Chunk) {
	if err := log.Record(c); err != nil {
		s.fail(c.Op, c.Resource(), err)
		return
	}
	metrics.ChunksRecorded.WithLabelValues(name, c.Op.String()).Inc()
	if len(c.Payload) > 0 {
		metrics.PayloadBytes.Add(float64(len(c.Payload)))
	}
	s.log.Debug("chunk recorded", "log", name, "chunk", c)
}

func (s *Session) fail(op chunk.Opcode, id resource.ID, err error) {
	metrics.CaptureFailures.WithLabelValues(op.String()).Inc()
	s.log.Warn("call not recorded", "opcode", op.String(), "resource", id.String(), "error", err)
	if s.onFailure != nil {
		s.onFailure(err)
	}
}
