// Package replay rebuilds a captured frame against a fresh API. Replay runs
// in two passes: every resource record in ID order, then the frame's session
// log in order. Each chunk's resource IDs are resolved to live handles
// created during the first pass.
package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/willibrandon/ChronoGL/pkg/capture"
	"github.com/willibrandon/ChronoGL/pkg/chunk"
	"github.com/willibrandon/ChronoGL/pkg/gl"
	"github.com/willibrandon/ChronoGL/pkg/invariant"
	"github.com/willibrandon/ChronoGL/pkg/logging"
	"github.com/willibrandon/ChronoGL/pkg/metrics"
	"github.com/willibrandon/ChronoGL/pkg/recorder"
	"github.com/willibrandon/ChronoGL/pkg/registry"
	"github.com/willibrandon/ChronoGL/pkg/resource"
)

// Pass identifies one of the two replay passes
type Pass int

const (
	// PassRecords reconstructs resources from their persistent records.
	PassRecords Pass = iota + 1
	// PassFrame reissues the frame's session log.
	PassFrame
)

// String returns the string representation of the Pass
func (p Pass) String() string {
	switch p {
	case PassRecords:
		return "records"
	case PassFrame:
		return "frame"
	default:
		return fmt.Sprintf("Pass(%d)", int(p))
	}
}

// Step is one chunk in replay order. PassIndex counts from zero within the
// step's pass.
type Step struct {
	Index     int
	Pass      Pass
	PassIndex int
	Chunk     *chunk.Chunk
}

// Check decides whether replay stops before a step
type Check func(Step) bool

// ErrNotLoaded is returned by Run before a capture has been loaded
var ErrNotLoaded = errors.New("no capture loaded")

// Options configures a Replayer
type Options struct {
	// Handler is told about the violation that aborts a replay.
	Handler invariant.Handler

	// Session, when set, is held in Replaying for the duration of each run
	// so contexts wrapping the replay API record nothing.
	Session *capture.Session

	Logger *slog.Logger
}

// Replayer reissues captured chunks against one API. It owns the replay
// side of the identity registry and the live resource table it produces.
type Replayer struct {
	api     gl.API
	reg     *registry.Registry
	table   *resource.LiveTable
	handler invariant.Handler
	session *capture.Session
	log     *slog.Logger

	steps   []Step
	next    int
	stopped bool
}

// New creates a replayer for api
func New(api gl.API, opts Options) *Replayer {
	h := opts.Handler
	if h == nil {
		h = invariant.Discard
	}
	l := opts.Logger
	if l == nil {
		l = logging.Logger()
	}
	return &Replayer{
		api:     api,
		reg:     registry.New(),
		table:   resource.NewLiveTable(),
		handler: h,
		session: opts.Session,
		log:     l,
	}
}

// Table returns the live resource table built so far
func (r *Replayer) Table() *resource.LiveTable {
	return r.table
}

// Registry returns the replay-side registry
func (r *Replayer) Registry() *registry.Registry {
	return r.reg
}

// Snapshot returns the deterministic encoding of the live resource table
func (r *Replayer) Snapshot() ([]byte, error) {
	return r.table.MarshalBinary()
}

// Load prepares c for replay. Records are replayed in ID order regardless of
// the order they were stored in.
func (r *Replayer) Load(c *recorder.Capture) {
	c.SortRecords()
	r.steps = make([]Step, 0, c.ChunkCount())
	for _, rec := range c.Records {
		for _, ch := range rec.Chunks {
			r.steps = append(r.steps, Step{Index: len(r.steps), Pass: PassRecords, PassIndex: len(r.steps), Chunk: ch})
		}
	}
	first := len(r.steps)
	for i, ch := range c.Frame {
		r.steps = append(r.steps, Step{Index: first + i, Pass: PassFrame, PassIndex: i, Chunk: ch})
	}
	r.next = 0
	r.stopped = false
	r.log.Debug("capture loaded", "records", len(c.Records), "steps", len(r.steps))
}

// Steps returns the loaded steps in replay order
func (r *Replayer) Steps() []Step {
	return r.steps
}

// Position returns the index of the next step to replay
func (r *Replayer) Position() int {
	return r.next
}

// Done reports whether every loaded step has been replayed
func (r *Replayer) Done() bool {
	return r.steps != nil && r.next >= len(r.steps)
}

// Replay loads c and replays it to the end
func (r *Replayer) Replay(ctx context.Context, c *recorder.Capture) error {
	r.Load(c)
	_, err := r.Run(ctx, nil)
	return err
}

// ReplayUntil loads c and replays it until check stops it
func (r *Replayer) ReplayUntil(ctx context.Context, c *recorder.Capture, check Check) (*Step, error) {
	r.Load(c)
	return r.Run(ctx, check)
}

// ReplayFile reads a capture file and replays it. A capture that fails to
// decode because of a broken invariant is reported like a replay failure.
func (r *Replayer) ReplayFile(ctx context.Context, path string, sec recorder.SecurityOptions) (recorder.Header, error) {
	c, hdr, err := recorder.ReadFile(path, sec)
	if err != nil {
		if v, ok := invariant.As(err); ok {
			r.fatal(v)
		}
		return hdr, err
	}
	return hdr, r.Replay(ctx, c)
}

// Run continues from the current position. When check returns true for a
// step, Run stops before executing it and returns that step; the next Run
// starts by executing it. A nil step means the replay completed.
func (r *Replayer) Run(ctx context.Context, check Check) (*Step, error) {
	if r.steps == nil {
		return nil, ErrNotLoaded
	}
	release, err := r.hold()
	if err != nil {
		return nil, err
	}
	defer release()

	resumed := r.stopped
	r.stopped = false
	for r.next < len(r.steps) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step := r.steps[r.next]
		if check != nil && !resumed && check(step) {
			r.stopped = true
			r.log.Info("replay stopped", "step", step.Index, "pass", step.Pass, "opcode", step.Chunk.Op.String())
			return &step, nil
		}
		resumed = false

		if err := r.execStep(step); err != nil {
			return nil, err
		}
	}

	r.log.Info("replay complete", "steps", len(r.steps), "live_resources", r.table.Len())
	return nil, nil
}

// Advance executes exactly one step and returns it. It returns nil once the
// replay has completed.
func (r *Replayer) Advance(ctx context.Context) (*Step, error) {
	if r.steps == nil {
		return nil, ErrNotLoaded
	}
	if r.next >= len(r.steps) {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	release, err := r.hold()
	if err != nil {
		return nil, err
	}
	defer release()

	step := r.steps[r.next]
	r.stopped = false
	if err := r.execStep(step); err != nil {
		return nil, err
	}
	return &step, nil
}

// hold keeps the session in Replaying until the returned func is called
func (r *Replayer) hold() (func(), error) {
	if r.session == nil {
		return func() {}, nil
	}
	if err := r.session.BeginReplay(); err != nil {
		return nil, err
	}
	return func() {
		if err := r.session.EndReplay(); err != nil {
			r.log.Warn("could not leave replay state", "error", err)
		}
	}, nil
}

func (r *Replayer) execStep(step Step) error {
	if err := r.exec(step.Chunk); err != nil {
		if v, ok := invariant.As(err); ok {
			r.fatal(v)
		}
		return fmt.Errorf("replay step %d (%s pass): %w", step.Index, step.Pass, err)
	}
	metrics.ChunksReplayed.WithLabelValues(step.Pass.String()).Inc()
	r.next++
	return nil
}

func (r *Replayer) fatal(v *invariant.Violation) {
	metrics.ReplayFailures.WithLabelValues(v.Kind.String()).Inc()
	r.log.Error("replay aborted", "kind", v.Kind.String(), "opcode", v.Opcode, "resource", v.Resource.String(), "detail", v.Detail)
	r.handler(v)
}
