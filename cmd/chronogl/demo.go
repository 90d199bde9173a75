package main

import (
	"context"
	"fmt"
	"io"
	"runtime/trace"

	"github.com/willibrandon/ChronoGL/pkg/capture"
	"github.com/willibrandon/ChronoGL/pkg/gl"
	"github.com/willibrandon/ChronoGL/pkg/instrumentation"
	"github.com/willibrandon/ChronoGL/pkg/recorder"
	"github.com/willibrandon/ChronoGL/pkg/softgl"
)

func runDemo(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var configPath, output string
	fs := newFlagSet("demo", stderr, &configPath)
	fs.StringVarP(&output, "output", "o", "", "capture file to write (default capture.output)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, done, err := setup(configPath, stdin, stdout, stderr)
	if err != nil {
		return err
	}
	defer done()
	if output == "" {
		output = a.cfg.Capture.Output
	}
	opts, err := a.cfg.Capture.FileOptions()
	if err != nil {
		return err
	}

	var failures int
	session := capture.NewSession(capture.Options{
		Enabled: a.cfg.Capture.Enabled,
		OnFailure: func(err error) {
			failures++
			fmt.Fprintf(stderr, "capture failure: %v\n", err)
		},
	})
	c, err := recordScene(ctx, session)
	if err != nil {
		return err
	}
	if e := c.Real().GetError(); e != gl.NoError {
		return fmt.Errorf("scene raised %s", e)
	}

	if err := recorder.WriteFile(output, c.capt, opts); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintf(stdout, "wrote %s: session %s, %d records, %d frame chunks, %d failures\n",
		output, c.capt.SessionID, len(c.capt.Records), len(c.capt.Frame), failures)
	return nil
}

// scene is the result of recording the sample frame
type scene struct {
	*instrumentation.Context
	capt *recorder.Capture
}

// recordScene drives a small texture workload through an instrumented
// software context: setup while idle, then one captured frame.
func recordScene(ctx context.Context, session *capture.Session) (*scene, error) {
	ctx, task := trace.NewTask(ctx, "chronogl.demo")
	defer task.End()

	c := instrumentation.NewContext(softgl.New(), session).WithTrace(ctx)

	names := make([]uint32, 5)
	c.GenTextures(names)
	albedo, blocks, layers, scratch, legacy := names[0], names[1], names[2], names[3], names[4]

	c.BindTexture(gl.Texture2D, albedo)
	c.TexStorage2D(gl.Texture2D, 4, gl.RGBA8, 8, 8)
	c.TexParameteri(gl.Texture2D, gl.TextureMinFilter, int32(gl.LinearMipmapLinear))
	c.TexParameteri(gl.Texture2D, gl.TextureMagFilter, int32(gl.Linear))
	c.TexParameterfv(gl.Texture2D, gl.TextureBorderColor, []float32{0, 0, 0, 1})

	c.BindTexture(gl.Texture2D, blocks)
	c.TexStorage2D(gl.Texture2D, 1, gl.CompressedRGBS3TCDXT1, 8, 8)
	c.TexParameteri(gl.Texture2D, gl.TextureWrapS, int32(gl.ClampToEdge))

	c.ActiveTexture(gl.Texture0 + 1)
	c.BindTexture(gl.Texture2DArray, layers)
	c.TexStorage3D(gl.Texture2DArray, 1, gl.RGBA8, 4, 4, 3)
	c.TexParameteriv(gl.Texture2DArray, gl.TextureSwizzleRGBA,
		[]int32{int32(gl.Red), int32(gl.Green), int32(gl.Blue), int32(gl.Alpha)})

	// never reaches a capture: deleted while idle
	c.BindTexture(gl.Texture2D, scratch)
	c.DeleteTextures([]uint32{scratch})

	// legacy allocation runs but is not recorded
	c.ActiveTexture(gl.Texture0)
	c.BindTexture(gl.Texture2D, legacy)
	c.TexImage2D(gl.Texture2D, 0, gl.RGBA8, 2, 2, 0, gl.RGBA, gl.UnsignedByte, make([]byte, 16))
	c.DeleteTextures([]uint32{legacy})

	if err := session.StartFrame(); err != nil {
		return nil, fmt.Errorf("start frame: %w", err)
	}
	trace.WithRegion(ctx, "frame", func() {
		c.BindTexture(gl.Texture2D, albedo)
		c.TexSubImage2D(gl.Texture2D, 0, 0, 0, 8, 8, gl.RGBA, gl.UnsignedByte, gradient(8, 8))
		c.GenerateMipmap(gl.Texture2D)

		c.BindTexture(gl.Texture2D, blocks)
		c.CompressedTexSubImage2D(gl.Texture2D, 0, 4, 4, 4, 4, gl.CompressedRGBS3TCDXT1, 8,
			[]byte{0xff, 0xff, 0x00, 0x00, 0x55, 0x55, 0x55, 0x55})

		c.ActiveTexture(gl.Texture0 + 1)
		c.PixelStorei(gl.UnpackAlignment, 1)
		c.TexSubImage3D(gl.Texture2DArray, 0, 1, 1, 2, 2, 2, 1, gl.RGBA, gl.UnsignedByte, gradient(2, 2))
		c.PixelStorei(gl.UnpackAlignment, 4)
		c.ActiveTexture(gl.Texture0)

		c.BindTexture(gl.Texture2D, 0)
	})
	capt, err := session.EndFrame()
	if err != nil {
		return nil, fmt.Errorf("end frame: %w", err)
	}
	return &scene{Context: c, capt: capt}, nil
}

// gradient returns w*h RGBA texels with a ramp in red and green
func gradient(w, h int) []byte {
	out := make([]byte, 0, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out = append(out, byte(x*255/max(w-1, 1)), byte(y*255/max(h-1, 1)), 0x80, 0xff)
		}
	}
	return out
}
