package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/willibrandon/ChronoGL/pkg/config"
	"github.com/willibrandon/ChronoGL/pkg/logging"
	"github.com/willibrandon/ChronoGL/pkg/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app carries what every command needs once flags and config are loaded
type app struct {
	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stdout)
		return 0
	}
	cmd, args := args[0], args[1:]

	var err error
	switch cmd {
	case "version":
		fmt.Fprintln(stdout, version.GetVersionInfo())
		return 0
	case "demo":
		err = runDemo(ctx, args, stdin, stdout, stderr)
	case "inspect":
		err = runInspect(ctx, args, stdin, stdout, stderr)
	case "replay":
		err = runReplay(ctx, args, stdin, stdout, stderr)
	case "config":
		err = runConfig(args, stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		printUsage(stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "chronogl %s: %v\n", cmd, err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: chronogl <command> [flags]")
	fmt.Fprintln(w, "  demo [-o file]                  - Capture a sample frame to a file")
	fmt.Fprintln(w, "  inspect <file>                  - Print a capture's header, records and frame")
	fmt.Fprintln(w, "  replay <file> [flags]           - Replay a capture and print the live resource table")
	fmt.Fprintln(w, "      --break loc                 - Stop at an opcode, id:N, step:N or frame (repeatable)")
	fmt.Fprintln(w, "      --interactive               - Drive the replay from the debugger prompt")
	fmt.Fprintln(w, "      --export dsn                - Save the live resource table to SQLite")
	fmt.Fprintln(w, "      --metrics                   - Print Prometheus metrics afterwards")
	fmt.Fprintln(w, "  config                          - Print the effective configuration")
	fmt.Fprintln(w, "  version                         - Show version")
	fmt.Fprintln(w, "Every command accepts --config file; CHRONOGL_* variables override it.")
}

// newFlagSet returns a flag set with the shared --config flag
func newFlagSet(name string, stderr io.Writer, configPath *string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(configPath, "config", "", "config file (YAML)")
	return fs
}

// setup loads the configuration and installs the configured logger. The
// returned func restores the previous logger and closes the log file.
func setup(configPath string, stdin io.Reader, stdout, stderr io.Writer) (*app, func(), error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	l, closer, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	prev := logging.Logger()
	logging.SetLogger(l.With("component", "chronogl"))

	a := &app{cfg: cfg, stdin: stdin, stdout: stdout, stderr: stderr}
	return a, func() {
		logging.SetLogger(prev)
		closer.Close()
	}, nil
}

// runConfig prints the configuration after defaults, file and environment
// are merged, with key material masked.
func runConfig(args []string, stdout, stderr io.Writer) error {
	var configPath string
	fs := newFlagSet("config", stderr, &configPath)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	return cfg.WriteYAML(stdout)
}
