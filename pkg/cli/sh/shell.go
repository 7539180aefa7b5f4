package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	fx "github.com/robotalks/windctl/pkg/framework"
	"github.com/robotalks/windctl/pkg/l0/board"
	"github.com/robotalks/windctl/pkg/l0/console"
	"github.com/robotalks/windctl/pkg/l0/uart"
	"github.com/robotalks/windctl/pkg/line"
)

// Shell provides ishell backed interactive shell over an in-process board.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Config *board.Config
	Board  *board.Board
	Loop   *fx.Loop

	cancel context.CancelFunc
}

const (
	shellKey = "$shell"
	prompt   = "wind > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&StatCmd,
		&ErrorsCmd,
		&FlushCmd,
		&InjectCmd,
		&SendCmd,
		&RecvCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *board.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// PortArg resolves the port named by the first argument.
func PortArg(c *ishell.Context) (*uart.Port, bool) {
	if len(c.Args) < 1 {
		c.Err(fmt.Errorf("PORT required"))
		return nil, false
	}
	_, port := ShellFrom(c).Board.Lookup(c.Args[0])
	if port == nil {
		c.Err(fmt.Errorf("no port %q", c.Args[0]))
		return nil, false
	}
	return port, true
}

// Start brings the board up, wires the configured lines and runs the
// polling loop in the background.
func (s *Shell) Start() error {
	b, err := s.Config.NewBoard()
	if err != nil {
		return err
	}
	s.Board = b
	s.Loop = fx.NewLoop()
	b.SetBackgroundHook(s.Loop.Background)
	for n, lineURL := range s.Config.Lines {
		l, err := line.Open(lineURL)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		s.Loop.AddRunnable(b.Wire(n, l))
	}
	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	go func() {
		if err := s.Loop.Run(ctx); err != nil && err != context.Canceled {
			glog.Errorf("loop stopped: %v", err)
		}
	}()
	return nil
}

// Stop stops the loop and the wires, then masks the board interrupts.
func (s *Shell) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.Board != nil {
		s.Board.Close()
	}
}

// Print prints a value as JSON or with the text formatter.
func (s *Shell) Print(c *ishell.Context, v interface{}, text func() string) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Print(text())
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if err := s.Start(); err != nil {
		log.Fatalln(err)
	}
	defer s.Stop()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// FormatStatus renders port snapshots, one per line.
func FormatStatus(snapshot []uart.Status) string {
	var sb strings.Builder
	for n, s := range snapshot {
		fmt.Fprintf(&sb, "%d %s\n", n, console.FormatStatus(s))
	}
	return sb.String()
}

// ParseHex parses bytes given as hex words, e.g. "90 3c 40" or "903c40".
func ParseHex(args []string) ([]byte, error) {
	data, err := hex.DecodeString(strings.Join(args, ""))
	if err != nil {
		return nil, fmt.Errorf("invalid hex bytes: %v", err)
	}
	return data, nil
}

// Drain takes every received byte waiting on a port without blocking.
func Drain(port *uart.Port) []byte {
	var data []byte
	for {
		b, ok := port.TryGetch()
		if !ok {
			return data
		}
		data = append(data, b)
	}
}

var (
	// StatCmd shows port state and counters.
	StatCmd = ishell.Cmd{
		Name:    "stat",
		Aliases: []string{"s"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			snapshot := s.Board.Snapshot()
			s.Print(c, snapshot, func() string { return FormatStatus(snapshot) })
		},
	}

	// ErrorsCmd shows, or clears, error counters.
	ErrorsCmd = ishell.Cmd{
		Name:    "errors",
		Aliases: []string{"err"},
		Help:    "[PORT] [clear]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			args := c.Args
			clear := len(args) > 0 && args[len(args)-1] == "clear"
			if clear {
				args = args[:len(args)-1]
			}
			ports := s.Board.Ports()
			if len(args) > 0 {
				_, port := s.Board.Lookup(args[0])
				if port == nil {
					c.Err(fmt.Errorf("no port %q", args[0]))
					return
				}
				ports = []*uart.Port{port}
			}
			counts := make(map[string]uint32)
			for _, port := range ports {
				if clear {
					counts[port.Name()] = port.ClearErrors()
				} else {
					counts[port.Name()] = port.Errors()
				}
			}
			s.Print(c, counts, func() string {
				var sb strings.Builder
				for _, port := range ports {
					fmt.Fprintf(&sb, "%s: %d\n", port.Name(), counts[port.Name()])
				}
				return sb.String()
			})
		},
	}

	// FlushCmd discards received bytes.
	FlushCmd = ishell.Cmd{
		Name: "flush",
		Help: "[PORT]",
		Func: func(c *ishell.Context) {
			ports := ShellFrom(c).Board.Ports()
			if len(c.Args) > 0 {
				port, ok := PortArg(c)
				if !ok {
					return
				}
				ports = []*uart.Port{port}
			}
			for _, port := range ports {
				port.RxFlush()
			}
		},
	}

	// InjectCmd delivers bytes to a port as if they arrived on the wire.
	InjectCmd = ishell.Cmd{
		Name:    "inject",
		Aliases: []string{"inj"},
		Help:    "PORT HEX...",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if _, ok := PortArg(c); !ok {
				return
			}
			n, _ := s.Board.Lookup(c.Args[0])
			data, err := ParseHex(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			u := s.Board.UART(n)
			for _, b := range data {
				u.Deliver(b, 0)
			}
		},
	}

	// SendCmd transmits text on a port.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "PORT TEXT...",
		Func: func(c *ishell.Context) {
			port, ok := PortArg(c)
			if !ok {
				return
			}
			port.Putstr(strings.Join(c.Args[1:], " ") + "\r\n")
		},
	}

	// RecvCmd prints received bytes without blocking.
	RecvCmd = ishell.Cmd{
		Name: "recv",
		Help: "PORT",
		Func: func(c *ishell.Context) {
			port, ok := PortArg(c)
			if !ok {
				return
			}
			data := Drain(port)
			ShellFrom(c).Print(c, data, func() string {
				return fmt.Sprintf("% x\n", data)
			})
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(board.Default().MustResolve()).Run(flag.Args()...)
}
