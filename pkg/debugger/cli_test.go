package debugger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/ChronoGL/pkg/chunk"
	"github.com/willibrandon/ChronoGL/pkg/gl"
	"github.com/willibrandon/ChronoGL/pkg/recorder"
	"github.com/willibrandon/ChronoGL/pkg/replay"
	"github.com/willibrandon/ChronoGL/pkg/resource"
	"github.com/willibrandon/ChronoGL/pkg/softgl"
)

func sampleCapture() *recorder.Capture {
	id := resource.ID(1)
	return &recorder.Capture{
		Records: []recorder.Record{{
			ID:     id,
			Target: gl.Texture2D,
			Chunks: []*chunk.Chunk{
				chunk.MustBuild(chunk.OpCreateTexture, nil, gl.Texture2D, id),
				chunk.MustBuild(chunk.OpTexStorage2D, nil, gl.Texture2D, uint32(1), gl.RGBA8, uint32(2), uint32(2), id),
			},
		}},
		Frame: []*chunk.Chunk{
			chunk.MustBuild(chunk.OpBindTexture, nil, gl.Texture2D, id),
			chunk.MustBuild(chunk.OpTexParameteri, nil, gl.Texture2D, gl.TextureMinFilter, int32(gl.Nearest), id),
			chunk.MustBuild(chunk.OpGenerateMipmap, nil, gl.Texture2D, id),
		},
	}
}

func run(t *testing.T, script string) (string, *replay.Replayer) {
	t.Helper()
	r := replay.New(softgl.New(), replay.Options{})
	r.Load(sampleCapture())
	var out bytes.Buffer
	NewCLI(context.Background(), r, strings.NewReader(script), &out).Start()
	return out.String(), r
}

func TestContinueStopsAtBreakpoints(t *testing.T) {
	out, r := run(t, "bp frame\nbp GenerateMipmap\nc\ni\nc\nc\nq\n")

	assert.Contains(t, out, "Breakpoint 1 set at frame (frame)")
	assert.Contains(t, out, "Breakpoint 2 set at GenerateMipmap (opcode)")
	assert.Contains(t, out, "Breakpoint 1 hit")
	assert.Contains(t, out, "Stopped before step 2 (frame pass #0): BindTexture")
	assert.Contains(t, out, "Position: 2 of 5 steps")
	assert.Contains(t, out, "Breakpoint 2 hit")
	assert.Contains(t, out, "Replay complete: 1 live resources")
	assert.True(t, r.Done())
}

func TestStepAndInspect(t *testing.T) {
	out, r := run(t, "s\ns\nt\np 1\np 7\np x\nq\n")

	assert.Contains(t, out, "Replayed step 0 (records pass #0): CreateTexture")
	assert.Contains(t, out, "Replayed step 1 (records pass #1): TexStorage2D")
	assert.Contains(t, out, "ResourceId(1) -> Texture(1) target=")
	assert.Contains(t, out, "levels=1 extent=2x2x1")
	assert.Contains(t, out, "ResourceId(7) is not live")
	assert.Contains(t, out, "Invalid resource ID")
	assert.Equal(t, 2, r.Position())
}

func TestBreakpointManagement(t *testing.T) {
	out, _ := run(t, "bp id:1\nbp nope\nbp disable 1\nl\nbp enable 1\nbp remove 1\nbp remove 1\nl\nbp\nq\n")

	assert.Contains(t, out, "Breakpoint 1 set at id:1 (resource)")
	assert.Contains(t, out, "Error setting breakpoint")
	assert.Contains(t, out, "Breakpoint 1 disabled")
	assert.Contains(t, out, "1: id:1 (resource) [disabled]")
	assert.Contains(t, out, "Breakpoint 1 enabled")
	assert.Contains(t, out, "Breakpoint 1 removed")
	assert.Contains(t, out, "Error: breakpoint 1 not found")
	assert.Contains(t, out, "No breakpoints")
	assert.Contains(t, out, "Usage: breakpoint <location>")
}

func TestUnknownCommandAndEndOfInput(t *testing.T) {
	out, r := run(t, "frobnicate\n")
	assert.Contains(t, out, "Unknown command: frobnicate")
	assert.Equal(t, 0, r.Position())
}

func TestStepPastEnd(t *testing.T) {
	out, _ := run(t, "c\ns\nc\nq\n")
	assert.Contains(t, out, "Replay complete")
	assert.Equal(t, 2, strings.Count(out, "Replay already complete"))
}
