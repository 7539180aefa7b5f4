package midi

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/windctl/pkg/cli/sh"
	"github.com/robotalks/windctl/pkg/l0/board"
	msg "github.com/robotalks/windctl/pkg/midi"
)

var (
	// NoteCmd sends a note-on, and the note-off after a duration.
	NoteCmd = ishell.Cmd{
		Name:    "midi.note",
		Aliases: []string{"note"},
		Help:    "CH NOTE VEL [DURATION]",
		Func: func(c *ishell.Context) {
			vals, ok := intArgs(c, 3, "CH", "NOTE", "VEL")
			if !ok {
				return
			}
			var dur time.Duration
			if len(c.Args) > 3 {
				d, err := time.ParseDuration(c.Args[3])
				if err != nil {
					c.Err(fmt.Errorf("Invalid DURATION: %v", err))
					return
				}
				dur = d
			}
			enc := encoder(c)
			if !send(c, enc)(msg.NoteOn(vals[0], vals[1], vals[2])) || dur <= 0 {
				return
			}
			time.Sleep(dur)
			send(c, enc)(msg.NoteOff(vals[0], vals[1], 0))
		},
	}

	// ControlChangeCmd sends a control change.
	ControlChangeCmd = ishell.Cmd{
		Name:    "midi.cc",
		Aliases: []string{"cc"},
		Help:    "CH NUM VAL",
		Func: func(c *ishell.Context) {
			if vals, ok := intArgs(c, 3, "CH", "NUM", "VAL"); ok {
				send(c, encoder(c))(msg.ControlChange(vals[0], vals[1], vals[2]))
			}
		},
	}

	// ProgramChangeCmd sends a program change.
	ProgramChangeCmd = ishell.Cmd{
		Name:    "midi.prog",
		Aliases: []string{"prog"},
		Help:    "CH PROGRAM",
		Func: func(c *ishell.Context) {
			if vals, ok := intArgs(c, 2, "CH", "PROGRAM"); ok {
				send(c, encoder(c))(msg.ProgramChange(vals[0], vals[1]))
			}
		},
	}

	// PitchBendCmd sends a pitch bend, value -8192..8191.
	PitchBendCmd = ishell.Cmd{
		Name:    "midi.bend",
		Aliases: []string{"bend"},
		Help:    "CH VALUE",
		Func: func(c *ishell.Context) {
			if vals, ok := intArgs(c, 2, "CH", "VALUE"); ok {
				send(c, encoder(c))(msg.PitchBend(vals[0], vals[1]))
			}
		},
	}

	// DecodeCmd decodes MIDI messages from the given bytes, or from the bytes
	// received on the MIDI port.
	DecodeCmd = ishell.Cmd{
		Name:    "midi.decode",
		Aliases: []string{"decode"},
		Help:    "[HEX...]",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			var data []byte
			if len(c.Args) > 0 {
				var err error
				if data, err = sh.ParseHex(c.Args); err != nil {
					c.Err(err)
					return
				}
			} else {
				data = sh.Drain(s.Board.Port(board.MIDIPort))
			}
			msgs, skipped := Decode(data)
			s.Print(c, msgs, func() string {
				var sb strings.Builder
				for _, m := range msgs {
					sb.WriteString(m.String())
					sb.WriteByte('\n')
				}
				if skipped > 0 {
					fmt.Fprintf(&sb, "(%d bytes skipped)\n", skipped)
				}
				return sb.String()
			})
		},
	}
)

// Decode parses a byte stream into messages, also returning the number of
// data bytes without a status.
func Decode(data []byte) ([]*msg.Message, int) {
	var p msg.Parser
	var msgs []*msg.Message
	for _, b := range data {
		if m := p.Parse(b); m != nil {
			msgs = append(msgs, m)
		}
	}
	return msgs, p.Skipped
}

func encoder(c *ishell.Context) *msg.Encoder {
	return msg.NewEncoder(sh.ShellFrom(c).Board.Port(board.MIDIPort))
}

func send(c *ishell.Context, enc *msg.Encoder) func(*msg.Message, error) bool {
	return func(m *msg.Message, err error) bool {
		if err == nil {
			err = enc.Encode(m)
		}
		if err != nil {
			c.Err(err)
			return false
		}
		return true
	}
}

func intArgs(c *ishell.Context, count int, names ...string) ([]int, bool) {
	if len(c.Args) < count {
		c.Err(fmt.Errorf("%s required", strings.Join(names, " ")))
		return nil, false
	}
	vals := make([]int, count)
	for n := range vals {
		val, err := strconv.Atoi(c.Args[n])
		if err != nil {
			c.Err(fmt.Errorf("Invalid %s: %v", names[n], err))
			return nil, false
		}
		vals[n] = val
	}
	return vals, true
}

func init() {
	sh.AddCmds(
		&NoteCmd,
		&ControlChangeCmd,
		&ProgramChangeCmd,
		&PitchBendCmd,
		&DecodeCmd,
	)
}
