package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/willibrandon/ChronoGL/pkg/debugger"
	"github.com/willibrandon/ChronoGL/pkg/invariant"
	"github.com/willibrandon/ChronoGL/pkg/metrics"
	"github.com/willibrandon/ChronoGL/pkg/recorder"
	"github.com/willibrandon/ChronoGL/pkg/replay"
	"github.com/willibrandon/ChronoGL/pkg/softgl"
	"github.com/willibrandon/ChronoGL/pkg/tablestore"
)

func runReplay(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var (
		configPath  string
		breaks      []string
		exportDSN   string
		showMetrics bool
		interactive bool
	)
	fs := newFlagSet("replay", stderr, &configPath)
	fs.StringSliceVar(&breaks, "break", nil, "stop at an opcode, id:N, step:N or frame")
	fs.StringVar(&exportDSN, "export", "", "SQLite database to save the live resource table to (default export.sqlite_dsn)")
	fs.BoolVar(&showMetrics, "metrics", false, "print Prometheus metrics after the replay (default metrics.enabled)")
	fs.BoolVarP(&interactive, "interactive", "i", false, "drive the replay from the debugger prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: chronogl replay <file> [flags]")
	}

	a, done, err := setup(configPath, stdin, stdout, stderr)
	if err != nil {
		return err
	}
	defer done()
	if !fs.Changed("export") {
		exportDSN = a.cfg.Export.SQLiteDSN
	}
	if !fs.Changed("metrics") {
		showMetrics = a.cfg.Metrics.Enabled
	}
	sec, err := a.cfg.Capture.Security()
	if err != nil {
		return err
	}

	c, hdr, err := recorder.ReadFile(fs.Arg(0), sec)
	if err != nil {
		return err
	}

	r := replay.New(softgl.New(), replay.Options{
		Handler: func(v *invariant.Violation) {
			fmt.Fprintf(stderr, "replay aborted: %v\n", v)
		},
	})
	r.Load(c)

	if interactive {
		cli := debugger.NewCLI(ctx, r, a.stdin, a.stdout)
		for _, loc := range breaks {
			if _, err := cli.Breakpoints().AddBreakpoint(loc); err != nil {
				return err
			}
		}
		cli.Start()
	} else if err := replayWithBreaks(ctx, a.stdout, r, breaks); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "\nLive resources (%d):\n", r.Table().Len())
	for _, e := range r.Table().Entries() {
		fmt.Fprintf(a.stdout, "  %s\n", debugger.FormatLive(e))
	}

	if exportDSN != "" {
		store, err := tablestore.Open(exportDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(ctx, hdr.SessionID, r.Table()); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "exported session %s to %s\n", hdr.SessionID, exportDSN)
	}

	if showMetrics {
		fmt.Fprintln(a.stdout)
		if err := metrics.WritePrometheus(a.stdout); err != nil {
			return err
		}
	}
	return nil
}

// replayWithBreaks runs to the end, reporting each breakpoint stop
func replayWithBreaks(ctx context.Context, w io.Writer, r *replay.Replayer, breaks []string) error {
	bm := replay.NewBreakpointManager()
	for _, loc := range breaks {
		if _, err := bm.AddBreakpoint(loc); err != nil {
			return err
		}
	}

	for {
		step, err := r.Run(ctx, bm.Check())
		if err != nil {
			return err
		}
		if step == nil {
			break
		}
		bp, _ := bm.Hit(*step)
		fmt.Fprintf(w, "breakpoint %d (%s): step %d, %s pass, %s, %d live resources\n",
			bp.ID, bp, step.Index, step.Pass, step.Chunk, r.Table().Len())
	}
	fmt.Fprintf(w, "replayed %d steps\n", len(r.Steps()))
	return nil
}
