// Package console is the line-oriented command console served on the
// console serial port. It is polled from the foreground loop and never
// blocks waiting for input.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/buildkite/shellwords"
	"github.com/golang/glog"

	"github.com/robotalks/windctl/pkg/framework"
)

// Port is the byte API the console runs on.
type Port interface {
	TryGetch() (byte, bool)
	Putch(b byte)
	Putstr(s string)
}

// Control characters handled by the line editor.
const (
	keyCtrlC     byte = 0x03
	keyBackspace byte = 0x08
	keyLF        byte = '\n'
	keyCR        byte = '\r'
	keyDEL       byte = 0x7f
	keyBell      byte = 0x07
)

const (
	// MaxLineLen bounds the input line; extra characters ring the bell.
	MaxLineLen = 80
	// DefaultHistorySize is the number of lines kept for recall.
	DefaultHistorySize = 16
	// pollBudget bounds bytes consumed per Poll so other tasks get a turn.
	pollBudget = 32
)

// Context is passed to a running command.
type Context struct {
	*Console
	Args []string
	// Task is the loop iteration running the command, nil when the
	// command is executed outside the loop.
	Task framework.TaskContext
}

// Console edits lines received on a port and dispatches them as commands.
type Console struct {
	Prompt      string
	HistorySize int

	port    Port
	reg     *registry
	line    []byte
	lastCR  bool
	history []string
	// histBase is the number of the oldest entry kept in history.
	histBase int
}

// New creates a Console with the built-in commands help and history.
func New(port Port) *Console {
	c := &Console{
		Prompt:      "> ",
		HistorySize: DefaultHistorySize,
		port:        port,
		reg:         newRegistry(),
		histBase:    1,
	}
	c.MustRegister(&Command{
		Name:    "help",
		Aliases: []string{"?"},
		Usage:   "help",
		Desc:    "List commands.",
		Run:     cmdHelp,
	}, &Command{
		Name:  "history",
		Usage: "history",
		Desc:  "List recent lines; recall with !! or !N.",
		Run:   cmdHistory,
	})
	return c
}

// Register adds commands.
func (c *Console) Register(cmds ...*Command) error {
	for _, cmd := range cmds {
		if err := c.reg.register(cmd); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister adds commands and panics on a duplicate.
func (c *Console) MustRegister(cmds ...*Command) *Console {
	if err := c.Register(cmds...); err != nil {
		panic(err)
	}
	return c
}

// Printf formats to the port, translating "\n" to CR LF.
func (c *Console) Printf(format string, args ...interface{}) {
	c.port.Putstr(strings.Replace(fmt.Sprintf(format, args...), "\n", "\r\n", -1))
}

// Println prints a line.
func (c *Console) Println(s string) {
	c.Printf("%s\n", s)
}

// Start prints the banner and the first prompt.
func (c *Console) Start(banner string) {
	if banner != "" {
		c.Println(banner)
	}
	c.port.Putstr(c.Prompt)
}

// AddToLoop implements framework.LoopAdder.
func (c *Console) AddToLoop(l *framework.Loop) {
	l.AddTask(framework.PrLvInput, c)
}

// Poll implements framework.Task. It consumes the bytes available on the
// port and runs each completed line.
func (c *Console) Poll(ctx framework.TaskContext) error {
	for n := 0; n < pollBudget; n++ {
		b, ok := c.port.TryGetch()
		if !ok {
			return nil
		}
		c.feed(ctx, b)
	}
	return nil
}

// Feed processes one received byte outside the loop.
func (c *Console) Feed(b byte) {
	c.feed(nil, b)
}

func (c *Console) feed(task framework.TaskContext, b byte) {
	lastCR := c.lastCR
	c.lastCR = b == keyCR
	switch b {
	case keyLF:
		if lastCR {
			return
		}
		fallthrough
	case keyCR:
		c.port.Putstr("\r\n")
		line := string(c.line)
		c.line = c.line[:0]
		c.runLine(task, line)
		c.port.Putstr(c.Prompt)
	case keyBackspace, keyDEL:
		if len(c.line) > 0 {
			c.line = c.line[:len(c.line)-1]
			c.port.Putstr("\b \b")
		}
	case keyCtrlC:
		c.line = c.line[:0]
		c.port.Putstr("^C\r\n")
		c.port.Putstr(c.Prompt)
	default:
		if b < ' ' || b > '~' {
			return
		}
		if len(c.line) >= MaxLineLen {
			c.port.Putch(keyBell)
			return
		}
		c.line = append(c.line, b)
		c.port.Putch(b)
	}
}

// runLine expands history references, records and executes a line,
// printing any error.
func (c *Console) runLine(task framework.TaskContext, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if strings.HasPrefix(line, "!") {
		expanded, err := c.recall(line[1:])
		if err != nil {
			c.Printf("%s: %v\n", line, err)
			return
		}
		line = expanded
		c.Println(line)
	}
	c.remember(line)
	if err := c.exec(task, line); err != nil {
		c.Printf("error: %v\n", err)
	}
}

// Exec runs one command line outside the loop.
func (c *Console) Exec(line string) error {
	return c.exec(nil, line)
}

func (c *Console) exec(task framework.TaskContext, line string) error {
	args, err := shellwords.Split(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	cmd := c.reg.resolve(args[0])
	if cmd == nil {
		return &UnknownCommandError{Name: args[0]}
	}
	glog.V(2).Infof("console: %s", line)
	err = cmd.Run(&Context{Console: c, Args: args[1:], Task: task})
	if errors.Is(err, ErrUsage) {
		return fmt.Errorf("usage: %s", cmd.Usage)
	}
	return err
}

func (c *Console) remember(line string) {
	c.history = append(c.history, line)
	size := c.HistorySize
	if size <= 0 {
		size = DefaultHistorySize
	}
	if drop := len(c.history) - size; drop > 0 {
		c.history = append(c.history[:0], c.history[drop:]...)
		c.histBase += drop
	}
}

// recall resolves "!" (last line) or a history number.
func (c *Console) recall(ref string) (string, error) {
	if len(c.history) == 0 {
		return "", ErrNoHistory
	}
	if ref == "!" {
		return c.history[len(c.history)-1], nil
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n < c.histBase || n >= c.histBase+len(c.history) {
		return "", ErrNoHistory
	}
	return c.history[n-c.histBase], nil
}

// History returns the remembered lines, oldest first.
func (c *Console) History() []string {
	return append([]string(nil), c.history...)
}

func cmdHelp(ctx *Context) error {
	for _, cmd := range ctx.reg.commands() {
		usage := cmd.Usage
		if usage == "" {
			usage = cmd.Name
		}
		ctx.Printf("  %-28s %s\n", usage, cmd.Desc)
	}
	return nil
}

func cmdHistory(ctx *Context) error {
	for n, line := range ctx.history {
		ctx.Printf("%4d  %s\n", ctx.histBase+n, line)
	}
	return nil
}
