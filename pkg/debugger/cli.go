// Package debugger drives a replay interactively: breakpoints on opcodes,
// resources and passes, single stepping, and inspection of the live
// resource table between steps.
package debugger

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/willibrandon/ChronoGL/pkg/gl"
	"github.com/willibrandon/ChronoGL/pkg/replay"
	"github.com/willibrandon/ChronoGL/pkg/resource"
)

// CLI represents the command-line interface for the replay debugger
type CLI struct {
	ctx       context.Context
	replayer  *replay.Replayer
	bpManager *replay.BreakpointManager
	in        io.Reader
	out       io.Writer
	running   bool
}

// NewCLI creates a CLI for a replayer that already has a capture loaded
func NewCLI(ctx context.Context, replayer *replay.Replayer, in io.Reader, out io.Writer) *CLI {
	return &CLI{
		ctx:       ctx,
		replayer:  replayer,
		bpManager: replay.NewBreakpointManager(),
		in:        in,
		out:       out,
	}
}

// Breakpoints returns the breakpoint manager used by continue
func (c *CLI) Breakpoints() *replay.BreakpointManager {
	return c.bpManager
}

// Start runs the command loop until quit or the end of input
func (c *CLI) Start() {
	c.running = true
	scanner := bufio.NewScanner(c.in)

	fmt.Fprintln(c.out, "ChronoGL replay debugger")
	fmt.Fprintf(c.out, "%d steps loaded\n", len(c.replayer.Steps()))
	c.printHelp()

	for c.running {
		fmt.Fprint(c.out, "(chronogl) ")
		if !scanner.Scan() {
			return
		}
		c.handleCommand(strings.TrimSpace(scanner.Text()))
	}
}

// printHelp displays available commands
func (c *CLI) printHelp() {
	fmt.Fprintln(c.out, "\nAvailable commands:")
	fmt.Fprintln(c.out, "  continue (c)          - Replay until a breakpoint or the end")
	fmt.Fprintln(c.out, "  step (s)              - Replay one chunk")
	fmt.Fprintln(c.out, "  info (i)              - Show the replay position")
	fmt.Fprintln(c.out, "  table (t)             - Show the live resource table")
	fmt.Fprintln(c.out, "  print (p) <id>        - Show one live resource")
	fmt.Fprintln(c.out, "\nBreakpoints:")
	fmt.Fprintln(c.out, "  breakpoint (bp) <loc> - Break at an opcode, id:N, step:N or frame")
	fmt.Fprintln(c.out, "  list (l)              - List all breakpoints")
	fmt.Fprintln(c.out, "  bp remove <id>        - Remove a breakpoint")
	fmt.Fprintln(c.out, "  bp enable <id>        - Enable a breakpoint")
	fmt.Fprintln(c.out, "  bp disable <id>       - Disable a breakpoint")
	fmt.Fprintln(c.out, "\nGeneral commands:")
	fmt.Fprintln(c.out, "  help (h)              - Show this help message")
	fmt.Fprintln(c.out, "  quit (q)              - Exit the debugger")
}

// handleCommand processes user input
func (c *CLI) handleCommand(input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "h", "help":
		c.printHelp()
	case "c", "continue":
		c.handleContinue()
	case "s", "step":
		c.handleStep()
	case "i", "info":
		c.handleInfo()
	case "t", "table":
		c.handleTable()
	case "p", "print":
		c.handlePrint(args)
	case "bp", "breakpoint":
		c.handleBreakpointCommand(args)
	case "l", "list":
		c.handleListBreakpoints()
	case "q", "quit", "exit":
		c.running = false
	default:
		fmt.Fprintf(c.out, "Unknown command: %s\n", cmd)
		c.printHelp()
	}
}

// handleBreakpointCommand handles all breakpoint-related commands
func (c *CLI) handleBreakpointCommand(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "Usage: breakpoint <location> or <command> [args]")
		fmt.Fprintln(c.out, "Commands: list, remove, enable, disable")
		return
	}

	command := args[0]
	switch command {
	case "list":
		c.handleListBreakpoints()
		return
	case "remove", "enable", "disable":
		if len(args) < 2 {
			fmt.Fprintf(c.out, "Usage: bp %s <id>\n", command)
			return
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(c.out, "Invalid breakpoint ID: %v\n", err)
			return
		}
		switch command {
		case "remove":
			err = c.bpManager.RemoveBreakpoint(id)
		case "enable":
			err = c.bpManager.EnableBreakpoint(id)
		default:
			err = c.bpManager.DisableBreakpoint(id)
		}
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "Breakpoint %d %sd\n", id, command)
		return
	}

	bp, err := c.bpManager.AddBreakpoint(command)
	if err != nil {
		fmt.Fprintf(c.out, "Error setting breakpoint: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Breakpoint %d set at %s (%s)\n", bp.ID, bp, bp.Type)
}

// handleListBreakpoints lists all breakpoints
func (c *CLI) handleListBreakpoints() {
	bps := c.bpManager.GetBreakpoints()
	if len(bps) == 0 {
		fmt.Fprintln(c.out, "No breakpoints")
		return
	}
	fmt.Fprintln(c.out, "\nBreakpoints:")
	for _, bp := range bps {
		status := "enabled"
		if !bp.Enabled {
			status = "disabled"
		}
		fmt.Fprintf(c.out, "%d: %s (%s) [%s]\n", bp.ID, bp, bp.Type, status)
	}
}

// handleContinue replays until the next breakpoint
func (c *CLI) handleContinue() {
	if c.replayer.Done() {
		fmt.Fprintln(c.out, "Replay already complete")
		return
	}
	step, err := c.replayer.Run(c.ctx, c.bpManager.Check())
	if err != nil {
		fmt.Fprintf(c.out, "Replay failed: %v\n", err)
		return
	}
	if step == nil {
		fmt.Fprintf(c.out, "Replay complete: %d live resources\n", c.replayer.Table().Len())
		return
	}
	if bp, ok := c.bpManager.Hit(*step); ok {
		fmt.Fprintf(c.out, "Breakpoint %d hit\n", bp.ID)
	}
	fmt.Fprintf(c.out, "Stopped before %s\n", formatStep(*step))
}

// handleStep replays exactly one chunk
func (c *CLI) handleStep() {
	step, err := c.replayer.Advance(c.ctx)
	if err != nil {
		fmt.Fprintf(c.out, "Replay failed: %v\n", err)
		return
	}
	if step == nil {
		fmt.Fprintln(c.out, "Replay already complete")
		return
	}
	fmt.Fprintf(c.out, "Replayed %s\n", formatStep(*step))
}

// handleInfo shows where the replay is
func (c *CLI) handleInfo() {
	steps := c.replayer.Steps()
	pos := c.replayer.Position()
	fmt.Fprintf(c.out, "\nPosition: %d of %d steps\n", pos, len(steps))
	if pos < len(steps) {
		fmt.Fprintf(c.out, "Next: %s\n", formatStep(steps[pos]))
	} else {
		fmt.Fprintln(c.out, "Replay complete")
	}
	fmt.Fprintf(c.out, "Live resources: %d\n", c.replayer.Table().Len())
}

// handleTable prints the live resource table
func (c *CLI) handleTable() {
	entries := c.replayer.Table().Entries()
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "Live resource table is empty")
		return
	}
	for _, e := range entries {
		fmt.Fprintln(c.out, FormatLive(e))
	}
}

// handlePrint shows the live resource for one ID
func (c *CLI) handlePrint(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: print <id>")
		return
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(args[0], "id:"), 10, 64)
	if err != nil {
		fmt.Fprintf(c.out, "Invalid resource ID: %v\n", err)
		return
	}
	e, ok := c.replayer.Table().Get(resource.ID(n))
	if !ok {
		fmt.Fprintf(c.out, "%s is not live\n", resource.ID(n))
		return
	}
	fmt.Fprintln(c.out, FormatLive(e))
}

func formatStep(s replay.Step) string {
	return fmt.Sprintf("step %d (%s pass #%d): %s", s.Index, s.Pass, s.PassIndex, s.Chunk)
}

// FormatLive renders one live table entry on a line
func FormatLive(e resource.LiveResource) string {
	return fmt.Sprintf("%s -> %s target=%s format=%s levels=%d extent=%dx%dx%d",
		e.ID, e.Handle, gl.Enum(e.Target), gl.Enum(e.InternalFormat), e.Levels,
		e.Extent.Width, e.Extent.Height, e.Extent.DepthOrArrayLayers)
}
