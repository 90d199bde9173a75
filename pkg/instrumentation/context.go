// Package instrumentation intercepts the texture entry points of one API
// context. Every call is forwarded to the real API first and then handed to
// the capture session, which decides whether and where it is recorded.
package instrumentation

import (
	"context"
	"runtime/trace"

	"github.com/willibrandon/ChronoGL/pkg/capture"
	"github.com/willibrandon/ChronoGL/pkg/gl"
	"github.com/willibrandon/ChronoGL/pkg/resource"
)

// Context wraps the real API of one logical context. It implements gl.API so
// the application talks to it instead of the real API.
//
// Like the API it wraps, a Context must be driven by one goroutine at a
// time. Many contexts may share one session.
type Context struct {
	real    gl.API
	session *capture.Session

	// per-context binding state, mirrored so calls can be attributed to the
	// resource they mutate
	active int
	bound  [gl.MaxTextureUnits]map[gl.Enum]resource.ID

	trace context.Context
}

var _ gl.API = (*Context)(nil)

// NewContext wraps api for session
func NewContext(api gl.API, session *capture.Session) *Context {
	c := &Context{
		real:    api,
		session: session,
		trace:   context.Background(),
	}
	for i := range c.bound {
		c.bound[i] = make(map[gl.Enum]resource.ID)
	}
	return c
}

// WithTrace attaches ctx to the runtime/trace regions emitted per entry
// point, so a frame's calls group under the caller's trace task.
func (c *Context) WithTrace(ctx context.Context) *Context {
	c.trace = ctx
	return c
}

// Session returns the capture session the context reports to
func (c *Context) Session() *capture.Session {
	return c.session
}

// Real returns the wrapped API
func (c *Context) Real() gl.API {
	return c.real
}

// BoundID returns the resource bound to target on the active unit
func (c *Context) BoundID(target gl.Enum) resource.ID {
	return c.bound[c.active][target]
}

func (c *Context) region(entryPoint string) *trace.Region {
	return trace.StartRegion(c.trace, entryPoint)
}

func (c *Context) recording() bool {
	return c.session.State().Recording()
}

// unpackAlignment reads the alignment the real API will apply to the upload
// being recorded.
func (c *Context) unpackAlignment() int32 {
	v := []int32{4}
	c.real.GetIntegerv(gl.UnpackAlignment, v)
	return v[0]
}
