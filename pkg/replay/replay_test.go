package replay

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/ChronoGL/pkg/capture"
	"github.com/willibrandon/ChronoGL/pkg/chunk"
	"github.com/willibrandon/ChronoGL/pkg/gl"
	"github.com/willibrandon/ChronoGL/pkg/instrumentation"
	"github.com/willibrandon/ChronoGL/pkg/invariant"
	"github.com/willibrandon/ChronoGL/pkg/recorder"
	"github.com/willibrandon/ChronoGL/pkg/resource"
	"github.com/willibrandon/ChronoGL/pkg/softgl"
)

var subRegion = []byte{
	10, 20, 30, 0,
	40, 50, 60, 0,
}

// captureScene records two textures through a wrapped software context and
// returns the capture together with the context it was recorded on.
func captureScene(t *testing.T) (*recorder.Capture, *softgl.Context, []uint32) {
	t.Helper()
	s := capture.NewSession(capture.Options{
		Enabled:   true,
		OnFailure: func(err error) { t.Errorf("capture failure: %v", err) },
	})
	app := softgl.New()
	c := instrumentation.NewContext(app, s)

	names := make([]uint32, 2)
	c.GenTextures(names)

	c.BindTexture(gl.Texture2D, names[0])
	c.TexStorage2D(gl.Texture2D, 2, gl.R8, 4, 4)
	c.TexParameteri(gl.Texture2D, gl.TextureMinFilter, int32(gl.Nearest))
	c.TexParameterfv(gl.Texture2D, gl.TextureBorderColor, []float32{0.25, 0.5, 0.75, 1})

	c.ActiveTexture(gl.Texture0 + 1)
	c.BindTexture(gl.Texture3D, names[1])
	c.TexStorage3D(gl.Texture3D, 1, gl.RGBA8, 2, 2, 2)
	c.TexParameteriv(gl.Texture3D, gl.TextureSwizzleRGBA, []int32{int32(gl.Alpha), int32(gl.Blue), int32(gl.Green), int32(gl.Red)})

	require.NoError(t, s.StartFrame())
	c.ActiveTexture(gl.Texture0)
	c.BindTexture(gl.Texture2D, names[0])
	c.TexSubImage2D(gl.Texture2D, 0, 1, 2, 3, 2, gl.Red, gl.UnsignedByte, subRegion)
	c.TexParameteri(gl.Texture2D, gl.TextureWrapS, int32(gl.ClampToEdge))
	c.GenerateMipmap(gl.Texture2D)

	c.ActiveTexture(gl.Texture0 + 1)
	c.PixelStorei(gl.UnpackAlignment, 1)
	c.TexSubImage3D(gl.Texture3D, 0, 0, 0, 1, 2, 1, 1, gl.RGBA, gl.UnsignedByte, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	c.PixelStorei(gl.UnpackAlignment, 4)

	capt, err := s.EndFrame()
	require.NoError(t, err)
	require.Equal(t, gl.NoError, app.GetError())
	return capt, app, names
}

func roundTrip(t *testing.T, c *recorder.Capture) *recorder.Capture {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, recorder.Encode(&buf, c, recorder.DefaultFileOptions()))
	out, _, err := recorder.Decode(&buf, recorder.DefaultSecurityOptions())
	require.NoError(t, err)
	return out
}

func assertSameTexture(t *testing.T, want, got softgl.Texture) {
	t.Helper()
	assert.Equal(t, want.Target, got.Target)
	assert.Equal(t, want.InternalFormat, got.InternalFormat)
	assert.Equal(t, want.Immutable, got.Immutable)
	assert.Equal(t, want.Ints, got.Ints)
	assert.Equal(t, want.Floats, got.Floats)
	require.Len(t, got.Levels, len(want.Levels))
	for i := range want.Levels {
		assert.Equal(t, want.Levels[i], got.Levels[i], "level %d", i)
	}
}

func TestReplayReproducesCapture(t *testing.T) {
	capt, app, names := captureScene(t)
	capt = roundTrip(t, capt)

	target := softgl.New()
	r := New(target, Options{})
	require.NoError(t, r.Replay(context.Background(), capt))
	assert.True(t, r.Done())
	assert.Equal(t, 2, r.Table().Len())

	for _, rec := range capt.Records {
		live, ok := r.Table().Get(rec.ID)
		require.True(t, ok)
		h, err := r.Registry().LiveHandleOf(rec.ID)
		require.NoError(t, err)
		assert.Equal(t, h, live.Handle)
	}

	for i, name := range names {
		want, ok := app.Texture(name)
		require.True(t, ok)
		live, ok := r.Table().Get(capt.Records[i].ID)
		require.True(t, ok)
		got, ok := target.Texture(live.Handle.Name)
		require.True(t, ok)
		assertSameTexture(t, want, got)
	}

	level, _ := target.Level(r.Table().Entries()[0].Handle.Name, 0)
	assert.Equal(t, []byte{10, 20, 30}, level[2*4+1:2*4+4])
	assert.Equal(t, []byte{40, 50, 60}, level[3*4+1:3*4+4])

	// the recorded alignment was restored after each upload
	v := make([]int32, 1)
	target.GetIntegerv(gl.UnpackAlignment, v)
	assert.Equal(t, int32(4), v[0])
}

func TestLiveTableMetadata(t *testing.T) {
	capt, _, _ := captureScene(t)
	r := New(softgl.New(), Options{})
	require.NoError(t, r.Replay(context.Background(), capt))

	entries := r.Table().Entries()
	require.Len(t, entries, 2)

	flat := entries[0]
	assert.Equal(t, uint32(gl.Texture2D), flat.Target)
	assert.Equal(t, uint32(gl.R8), flat.InternalFormat)
	assert.Equal(t, int32(2), flat.Levels)
	assert.Equal(t, uint32(4), flat.Extent.Width)
	assert.Equal(t, uint32(1), flat.Extent.DepthOrArrayLayers)
	assert.Equal(t, gl.GPUDimension(gl.Texture2D), flat.Dimension)

	volume := entries[1]
	assert.Equal(t, uint32(gl.Texture3D), volume.Target)
	assert.Equal(t, uint32(2), volume.Extent.DepthOrArrayLayers)
	assert.Equal(t, gl.GPUDimension(gl.Texture3D), volume.Dimension)
}

func TestReplayIsIdempotent(t *testing.T) {
	capt, _, _ := captureScene(t)

	snapshot := func() ([]byte, softgl.Texture) {
		api := softgl.New()
		r := New(api, Options{})
		require.NoError(t, r.Replay(context.Background(), capt))
		b, err := r.Snapshot()
		require.NoError(t, err)
		tex, ok := api.Texture(r.Table().Entries()[0].Handle.Name)
		require.True(t, ok)
		return b, tex
	}

	a, texA := snapshot()
	b, texB := snapshot()
	assert.Equal(t, a, b)
	assertSameTexture(t, texA, texB)
}

func TestRecordsReplayInIDOrder(t *testing.T) {
	capt, _, _ := captureScene(t)
	capt.Records[0], capt.Records[1] = capt.Records[1], capt.Records[0]

	r := New(softgl.New(), Options{})
	r.Load(capt)
	steps := r.Steps()
	require.NotEmpty(t, steps)
	assert.Equal(t, chunk.OpCreateTexture, steps[0].Chunk.Op)
	assert.Equal(t, gl.Texture2D, steps[0].Chunk.Enum(chunk.FieldTarget))
	assert.Equal(t, PassFrame, steps[len(steps)-1].Pass)
}

func TestUnboundResourceIsFatal(t *testing.T) {
	var got []*invariant.Violation
	r := New(softgl.New(), Options{Handler: func(v *invariant.Violation) { got = append(got, v) }})

	capt := &recorder.Capture{Frame: []*chunk.Chunk{
		chunk.MustBuild(chunk.OpActiveTexture, nil, gl.Texture0),
		chunk.MustBuild(chunk.OpTexParameteri, nil, gl.Texture2D, gl.TextureMinFilter, int32(gl.Linear), resource.ID(99)),
		chunk.MustBuild(chunk.OpActiveTexture, nil, gl.Texture0+1),
	}}
	err := r.Replay(context.Background(), capt)
	require.Error(t, err)
	assert.True(t, invariant.Is(err, invariant.UnboundResource))

	require.Len(t, got, 1)
	assert.Equal(t, "TexParameteri", got[0].Opcode)
	assert.Equal(t, resource.ID(99), got[0].Resource)
	assert.Equal(t, 1, r.Position())
	assert.False(t, r.Done())
}

func TestUnknownOpcodeIsFatal(t *testing.T) {
	var got []*invariant.Violation
	r := New(softgl.New(), Options{Handler: func(v *invariant.Violation) { got = append(got, v) }})

	capt := &recorder.Capture{Frame: []*chunk.Chunk{{Op: chunk.Opcode(999)}}}
	err := r.Replay(context.Background(), capt)
	assert.True(t, invariant.Is(err, invariant.UnknownOpcode))
	require.Len(t, got, 1)
	assert.Equal(t, invariant.UnknownOpcode, got[0].Kind)
}

func TestCorruptFileIsReported(t *testing.T) {
	capt, _, _ := captureScene(t)
	path := filepath.Join(t.TempDir(), "frame.cglc")
	require.NoError(t, recorder.WriteFile(path, capt, recorder.FileOptions{CompressionType: recorder.NoCompression}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// the last frame chunk is the 10 byte PixelStore; overwrite its opcode
	data[len(data)-10] = 0xFF
	data[len(data)-9] = 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o600))

	var got []*invariant.Violation
	r := New(softgl.New(), Options{Handler: func(v *invariant.Violation) { got = append(got, v) }})
	_, err = r.ReplayFile(context.Background(), path, recorder.DefaultSecurityOptions())
	require.Error(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, invariant.UnknownOpcode, got[0].Kind)
}

func TestReplayFile(t *testing.T) {
	capt, _, _ := captureScene(t)
	path := filepath.Join(t.TempDir(), "frame.cglc")
	require.NoError(t, recorder.WriteFile(path, capt, recorder.DefaultFileOptions()))

	r := New(softgl.New(), Options{})
	hdr, err := r.ReplayFile(context.Background(), path, recorder.DefaultSecurityOptions())
	require.NoError(t, err)
	assert.Equal(t, capt.SessionID, hdr.SessionID)
	assert.Equal(t, 2, r.Table().Len())
}

func TestDeleteDuringFrame(t *testing.T) {
	s := capture.NewSession(capture.Options{Enabled: true})
	c := instrumentation.NewContext(softgl.New(), s)
	names := make([]uint32, 2)
	c.GenTextures(names)
	c.BindTexture(gl.Texture2D, names[0])
	c.BindTexture(gl.Texture2D, names[1])

	require.NoError(t, s.StartFrame())
	c.DeleteTextures(names[:1])
	capt, err := s.EndFrame()
	require.NoError(t, err)

	api := softgl.New()
	r := New(api, Options{})
	require.NoError(t, r.Replay(context.Background(), capt))
	assert.Equal(t, 1, r.Table().Len())
	assert.Equal(t, 1, api.Names())

	_, err = r.Registry().LiveHandleOf(capt.Records[0].ID)
	assert.True(t, invariant.Is(err, invariant.UnboundResource))
}

func TestBreakpointsStopAndResume(t *testing.T) {
	capt, _, _ := captureScene(t)
	bm := NewBreakpointManager()
	_, err := bm.AddBreakpoint("frame")
	require.NoError(t, err)
	upload, err := bm.AddBreakpoint("TexSubImage3D")
	require.NoError(t, err)

	api := softgl.New()
	r := New(api, Options{})
	step, err := r.ReplayUntil(context.Background(), capt, bm.Check())
	require.NoError(t, err)
	require.NotNil(t, step)
	assert.Equal(t, PassFrame, step.Pass)
	assert.Equal(t, 0, step.PassIndex)
	assert.Equal(t, 2, r.Table().Len())

	step, err = r.Run(context.Background(), bm.Check())
	require.NoError(t, err)
	require.NotNil(t, step)
	assert.Equal(t, chunk.OpTexSubImage3D, step.Chunk.Op)

	require.NoError(t, bm.DisableBreakpoint(upload.ID))
	step, err = r.Run(context.Background(), bm.Check())
	require.NoError(t, err)
	assert.Nil(t, step)
	assert.True(t, r.Done())

	// a replay interrupted by breakpoints ends up where a straight one does
	straight := New(softgl.New(), Options{})
	require.NoError(t, straight.Replay(context.Background(), capt))
	a, _ := r.Snapshot()
	b, _ := straight.Snapshot()
	assert.Equal(t, b, a)
}

func TestReplayHoldsSessionInReplaying(t *testing.T) {
	capt, _, _ := captureScene(t)
	s := capture.NewSession(capture.Options{Enabled: true})

	api := softgl.New()
	wrapped := instrumentation.NewContext(api, s)
	r := New(wrapped, Options{Session: s})

	var states []capture.State
	_, err := r.ReplayUntil(context.Background(), capt, func(Step) bool {
		states = append(states, s.State())
		return false
	})
	require.NoError(t, err)
	require.NotEmpty(t, states)
	for _, st := range states {
		assert.Equal(t, capture.Replaying, st)
	}
	assert.Equal(t, capture.Idle, s.State())
	assert.Equal(t, 0, s.Registry().Len())
}

func TestRunRequiresLoad(t *testing.T) {
	r := New(softgl.New(), Options{})
	_, err := r.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotLoaded)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	capt, _, _ := captureScene(t)
	assert.ErrorIs(t, r.Replay(ctx, capt), context.Canceled)
}

func TestAdvanceStepsOneChunk(t *testing.T) {
	capt, _, _ := captureScene(t)
	r := New(softgl.New(), Options{})
	r.Load(capt)
	total := len(r.Steps())

	step, err := r.Advance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, step)
	assert.Equal(t, 0, step.Index)
	assert.Equal(t, 1, r.Position())

	// a stopped step is executed once, by whichever call resumes
	stop, err := r.Run(context.Background(), func(s Step) bool { return s.Index == 3 })
	require.NoError(t, err)
	require.NotNil(t, stop)
	step, err = r.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, step.Index)
	assert.Equal(t, 4, r.Position())

	for !r.Done() {
		_, err := r.Advance(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, total, r.Position())
	step, err = r.Advance(context.Background())
	require.NoError(t, err)
	assert.Nil(t, step)
}
