package console

import (
	"fmt"
	"strconv"
	"time"

	"github.com/robotalks/windctl/pkg/framework"
	"github.com/robotalks/windctl/pkg/l0/board"
	"github.com/robotalks/windctl/pkg/l0/uart"
	"github.com/robotalks/windctl/pkg/midi"
)

// BoardCommands returns the diagnostic and MIDI commands for a board.
// MIDI messages are encoded onto the board's MIDI port.
func BoardCommands(b *board.Board) []*Command {
	enc := midi.NewEncoder(b.Port(board.MIDIPort))
	send := sender(enc)
	return []*Command{
		{
			Name:  "stat",
			Usage: "stat",
			Desc:  "Show port state and counters.",
			Run: func(ctx *Context) error {
				for n, s := range b.Snapshot() {
					ctx.Printf("%d %s\n", n, FormatStatus(s))
				}
				return nil
			},
		},
		{
			Name:    "errors",
			Aliases: []string{"err"},
			Usage:   "errors [PORT] [clear]",
			Desc:    "Show error counters, optionally clearing them.",
			Run:     func(ctx *Context) error { return cmdErrors(ctx, b) },
		},
		{
			Name:  "flush",
			Usage: "flush [PORT]",
			Desc:  "Discard received bytes.",
			Run: func(ctx *Context) error {
				ports, err := selectPorts(b, ctx.Args)
				if err != nil {
					return err
				}
				for _, n := range ports {
					b.Port(n).RxFlush()
					ctx.Printf("%s flushed\n", b.Port(n).Name())
				}
				return nil
			},
		},
		{
			Name:  "note",
			Usage: "note CH NOTE VEL [DUR_MS]",
			Desc:  "Send note-on, and note-off after DUR_MS.",
			Run:   func(ctx *Context) error { return cmdNote(ctx, enc) },
		},
		{
			Name:  "cc",
			Usage: "cc CH NUM VAL",
			Desc:  "Send a control change.",
			Run: func(ctx *Context) error {
				vals, err := intArgs(ctx.Args, 3, 3)
				if err != nil {
					return err
				}
				return send(midi.ControlChange(vals[0], vals[1], vals[2]))
			},
		},
		{
			Name:  "prog",
			Usage: "prog CH PROGRAM",
			Desc:  "Send a program change.",
			Run: func(ctx *Context) error {
				vals, err := intArgs(ctx.Args, 2, 2)
				if err != nil {
					return err
				}
				return send(midi.ProgramChange(vals[0], vals[1]))
			},
		},
	}
}

// FormatStatus renders a port status on one line.
func FormatStatus(s uart.Status) string {
	return fmt.Sprintf("%-8s %-6s %6d baud rx %s %d/%d tx %s %d/%d err %d (frame %d parity %d overrun %d drop %d)",
		s.Name, s.State, s.BaudRate,
		s.RxMode, s.Buffered, s.RxBufSize,
		s.TxMode, s.Pending, s.TxBufSize,
		s.Errors, s.Stats.Framing, s.Stats.Parity, s.Stats.Overrun, s.Stats.Dropped)
}

func cmdErrors(ctx *Context, b *board.Board) error {
	args := ctx.Args
	clear := false
	if len(args) > 0 && args[len(args)-1] == "clear" {
		clear, args = true, args[:len(args)-1]
	}
	ports, err := selectPorts(b, args)
	if err != nil {
		return err
	}
	for _, n := range ports {
		port := b.Port(n)
		if clear {
			ctx.Printf("%s: %d errors cleared\n", port.Name(), port.ClearErrors())
		} else {
			ctx.Printf("%s: %d errors\n", port.Name(), port.Errors())
		}
	}
	return nil
}

func cmdNote(ctx *Context, enc *midi.Encoder) error {
	send := sender(enc)
	vals, err := intArgs(ctx.Args, 3, 4)
	if err != nil {
		return err
	}
	if err := send(midi.NoteOn(vals[0], vals[1], vals[2])); err != nil {
		return err
	}
	if len(vals) < 4 {
		return nil
	}
	off, err := midi.NoteOff(vals[0], vals[1], 0)
	if err != nil {
		return err
	}
	if ctx.Task == nil {
		time.Sleep(time.Duration(vals[3]) * time.Millisecond)
		return enc.Encode(off)
	}
	ctx.Task.After(time.Duration(vals[3])*time.Millisecond, framework.TaskFunc(func(framework.TaskContext) error {
		return enc.Encode(off)
	}))
	return nil
}

// sender encodes the result of a message constructor.
func sender(enc *midi.Encoder) func(*midi.Message, error) error {
	return func(m *midi.Message, err error) error {
		if err != nil {
			return err
		}
		return enc.Encode(m)
	}
}

// selectPorts resolves an optional port argument; no argument means all.
func selectPorts(b *board.Board, args []string) ([]int, error) {
	switch len(args) {
	case 0:
		ports := make([]int, board.NumPorts)
		for n := range ports {
			ports[n] = n
		}
		return ports, nil
	case 1:
		n, port := b.Lookup(args[0])
		if port == nil {
			return nil, fmt.Errorf("no port %q", args[0])
		}
		return []int{n}, nil
	}
	return nil, ErrUsage
}

func intArgs(args []string, min, max int) ([]int, error) {
	if len(args) < min || len(args) > max {
		return nil, ErrUsage
	}
	vals := make([]int, len(args))
	for n, arg := range args {
		val, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", arg)
		}
		vals[n] = val
	}
	return vals, nil
}
