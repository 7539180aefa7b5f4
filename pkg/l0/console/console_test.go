package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/windctl/pkg/framework"
	"github.com/robotalks/windctl/pkg/l0/board"
)

type fakePort struct {
	in  []byte
	out bytes.Buffer
}

func (p *fakePort) TryGetch() (byte, bool) {
	if len(p.in) == 0 {
		return 0, false
	}
	b := p.in[0]
	p.in = p.in[1:]
	return b, true
}

func (p *fakePort) Putch(b byte)    { p.out.WriteByte(b) }
func (p *fakePort) Putstr(s string) { p.out.WriteString(s) }

func (p *fakePort) take() string {
	s := p.out.String()
	p.out.Reset()
	return s
}

func newTestConsole() (*Console, *fakePort, *[]string) {
	port := &fakePort{}
	c := New(port)
	var calls []string
	c.MustRegister(&Command{
		Name:    "echo",
		Aliases: []string{"say"},
		Usage:   "echo WORDS...",
		Desc:    "Print arguments.",
		Run: func(ctx *Context) error {
			calls = append(calls, strings.Join(ctx.Args, "|"))
			ctx.Println(strings.Join(ctx.Args, " "))
			return nil
		},
	}, &Command{
		Name:  "need1",
		Usage: "need1 ARG",
		Run: func(ctx *Context) error {
			if len(ctx.Args) != 1 {
				return ErrUsage
			}
			return nil
		},
	})
	return c, port, &calls
}

func feedString(c *Console, s string) {
	for i := 0; i < len(s); i++ {
		c.Feed(s[i])
	}
}

func TestLineEditing(t *testing.T) {
	c, port, calls := newTestConsole()
	feedString(c, "ecjo\x7f\x7fho 'a b' c\r")
	require.Equal(t, []string{"a b|c"}, *calls)
	require.Equal(t, "ecjo\b \b\b \bho 'a b' c\r\na b c\r\n> ", port.take())

	feedString(c, "say x\r\n")
	require.Equal(t, []string{"a b|c", "x"}, *calls)
	require.Equal(t, "say x\r\nx\r\n> ", port.take(), "LF after CR ignored")

	feedString(c, "echo y\n")
	require.Len(t, *calls, 3)

	feedString(c, "echo z\x03")
	require.Len(t, *calls, 3)
	require.True(t, strings.HasSuffix(port.take(), "^C\r\n> "))

	c.Feed(0x7f)
	c.Feed(0x1b)
	require.Equal(t, "", port.take(), "nothing to erase, escape ignored")
}

func TestLineLengthBounded(t *testing.T) {
	c, port, calls := newTestConsole()
	feedString(c, "echo "+strings.Repeat("x", MaxLineLen))
	out := port.take()
	require.Equal(t, byte(keyBell), out[len(out)-1])
	c.Feed('\r')
	require.Len(t, *calls, 1)
	require.Len(t, (*calls)[0], MaxLineLen-len("echo "))
}

func TestErrors(t *testing.T) {
	c, port, _ := newTestConsole()
	feedString(c, "bogus\r")
	require.Contains(t, port.take(), `error: unknown command "bogus", try help`)

	err := c.Exec("bogus 1")
	var unknown *UnknownCommandError
	require.True(t, errors.As(err, &unknown))
	require.Equal(t, "bogus", unknown.Name)

	require.EqualError(t, c.Exec("need1"), "usage: need1 ARG")
	require.NoError(t, c.Exec("need1 x"))
	require.NoError(t, c.Exec("   "))
}

func TestHistory(t *testing.T) {
	c, port, calls := newTestConsole()
	c.HistorySize = 3
	feedString(c, "echo 1\recho 2\r")
	feedString(c, "!!\r")
	require.Equal(t, []string{"1", "2", "2"}, *calls)
	port.take()

	feedString(c, "!1\r")
	require.Equal(t, "1", (*calls)[3])
	require.Contains(t, port.take(), "echo 1\r\n1\r\n")

	require.Equal(t, []string{"echo 2", "echo 2", "echo 1"}, c.History())
	feedString(c, "!1\r")
	require.Contains(t, port.take(), "!1: no such history entry")

	feedString(c, "history\r")
	out := port.take()
	require.Contains(t, out, "   3  echo 2\r\n")
	require.Contains(t, out, "   5  history\r\n")

	require.NoError(t, c.Exec("help"))
	help := port.take()
	require.Contains(t, help, "echo WORDS...")
	require.Contains(t, help, "history")
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	c, _, _ := newTestConsole()
	require.Error(t, c.Register(&Command{Name: "echo", Run: cmdHelp}))
	require.Error(t, c.Register(&Command{Name: "other", Aliases: []string{"say"}, Run: cmdHelp}))
	require.Error(t, c.Register(&Command{Name: "nil"}))
	require.Error(t, c.Register(&Command{Name: " ", Run: cmdHelp}))
}

func TestPollInLoop(t *testing.T) {
	c, port, calls := newTestConsole()
	port.in = []byte("echo loop\r")
	l := framework.NewLoop().Add(c)
	l.Step(context.Background())
	require.Equal(t, []string{"loop"}, *calls)
	require.Empty(t, port.in)
}

// shiftAll collects bytes leaving a board UART.
func shiftAll(b *board.Board, n int) []byte {
	var out []byte
	for {
		v, ok := b.UART(n).Shift()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func TestBoardCommands(t *testing.T) {
	b, err := board.NewConfig().NewBoard()
	require.NoError(t, err)
	port := &fakePort{}
	c := New(port).MustRegister(BoardCommands(b)...)

	require.NoError(t, c.Exec("note 1 60 100"))
	require.NoError(t, c.Exec("cc 2 7 99"))
	require.NoError(t, c.Exec("prog 1 5"))
	require.Equal(t, []byte{0x90, 60, 100, 0xb1, 7, 99, 0xc0, 5}, shiftAll(b, board.MIDIPort))

	require.EqualError(t, c.Exec("note 1 60"), "usage: note CH NOTE VEL [DUR_MS]")
	require.Error(t, c.Exec("note 0 60 100"))
	require.Error(t, c.Exec("cc 1 x 1"))

	b.UART(board.ConsolePort).Deliver('z', 0)
	require.NoError(t, c.Exec("stat"))
	out := port.take()
	require.Contains(t, out, "0 console  active")
	require.Contains(t, out, "1 midi     idle")

	require.NoError(t, c.Exec("flush console"))
	require.False(t, b.Port(board.ConsolePort).RxDataAvail())
	require.Error(t, c.Exec("flush 5"))

	for i := 0; i < 20; i++ {
		b.UART(board.MIDIPort).Deliver(byte(i), 0)
	}
	port.take()
	require.NoError(t, c.Exec("errors"))
	require.Equal(t, "console: 0 errors\r\nmidi: 4 errors\r\n", port.take())
	require.NoError(t, c.Exec("err midi clear"))
	require.Equal(t, "midi: 4 errors cleared\r\n", port.take())
	require.Equal(t, uint32(0), b.Port(board.MIDIPort).Errors())
}

func TestNoteOffScheduledInLoop(t *testing.T) {
	b, err := board.NewConfig().NewBoard()
	require.NoError(t, err)
	port := &fakePort{in: []byte("note 1 60 100 0\r")}
	c := New(port).MustRegister(BoardCommands(b)...)
	l := framework.NewLoop().Add(c)

	l.Step(context.Background())
	require.Equal(t, []byte{0x90, 60, 100}, shiftAll(b, board.MIDIPort))
	l.Step(context.Background())
	require.Equal(t, []byte{0x80, 60, 0}, shiftAll(b, board.MIDIPort))
}
