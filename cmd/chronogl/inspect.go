package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/willibrandon/ChronoGL/pkg/recorder"
)

func runInspect(_ context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var configPath string
	fs := newFlagSet("inspect", stderr, &configPath)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: chronogl inspect <file>")
	}

	a, done, err := setup(configPath, stdin, stdout, stderr)
	if err != nil {
		return err
	}
	defer done()
	sec, err := a.cfg.Capture.Security()
	if err != nil {
		return err
	}

	c, hdr, err := recorder.ReadFile(fs.Arg(0), sec)
	if err != nil {
		return err
	}

	w := a.stdout
	fmt.Fprintf(w, "Capture %s\n", fs.Arg(0))
	fmt.Fprintf(w, "  session:     %s\n", hdr.SessionID)
	fmt.Fprintf(w, "  created:     %s\n", hdr.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "  version:     %s\n", hdr.Version)
	fmt.Fprintf(w, "  format:      container %d, chunks %d\n", hdr.ContainerVersion, hdr.ChunkVersion)
	fmt.Fprintf(w, "  compression: %s\n", hdr.Compression)
	fmt.Fprintf(w, "  encrypted:   %t\n", hdr.Encrypted)
	fmt.Fprintf(w, "  integrity:   %t\n", hdr.Integrity)

	fmt.Fprintf(w, "\nRecords (%d):\n", len(c.Records))
	for _, r := range c.Records {
		fmt.Fprintf(w, "  %s %s, %d chunks\n", r.ID, r.Target, len(r.Chunks))
		for i, ch := range r.Chunks {
			fmt.Fprintf(w, "    [%d] %s\n", i, ch)
		}
	}

	fmt.Fprintf(w, "\nFrame (%d chunks):\n", len(c.Frame))
	for i, ch := range c.Frame {
		fmt.Fprintf(w, "  [%d] %s\n", i, ch)
	}
	return nil
}
