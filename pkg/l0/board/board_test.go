package board

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/windctl/pkg/l0/hal"
	"github.com/robotalks/windctl/pkg/l0/uart"
)

func TestDefaults(t *testing.T) {
	conf := NewConfig()
	require.NoError(t, conf.Validate())
	require.Equal(t, uint32(115200), conf.Ports[ConsolePort].BaudRate)
	require.Equal(t, uint32(31250), conf.Ports[MIDIPort].BaudRate)
	require.Equal(t, 16, conf.Ports[MIDIPort].RxBufferSize)
	require.Equal(t, 32, conf.Ports[MIDIPort].TxBufferSize)
}

func TestNewBoard(t *testing.T) {
	b, err := NewConfig().NewBoard()
	require.NoError(t, err)
	require.Len(t, b.Ports(), NumPorts)
	require.Equal(t, "console", b.Port(0).Name())
	require.Equal(t, "midi", b.Port(1).Name())
	require.Nil(t, b.Port(2))
	require.Nil(t, b.UART(-1))

	n, port := b.Lookup("midi")
	require.Equal(t, 1, n)
	require.Equal(t, b.Port(1), port)
	n, port = b.Lookup("0")
	require.Equal(t, 0, n)
	require.Equal(t, b.Port(0), port)
	n, port = b.Lookup("7")
	require.Equal(t, -1, n)
	require.Nil(t, port)

	for _, s := range b.Snapshot() {
		require.Equal(t, uart.StateIdle, s.State)
	}
}

func TestCloseMasksInterrupts(t *testing.T) {
	b, err := NewConfig().NewBoard()
	require.NoError(t, err)
	b.UART(ConsolePort).Deliver('x', 0)
	require.NoError(t, b.Close())
	require.False(t, b.Controller.Enabled(NewConfig().Ports[ConsolePort].RxIRQ))

	b.UART(ConsolePort).Deliver('y', 0)
	port := b.Port(ConsolePort)
	c, ok := port.TryGetch()
	require.True(t, ok)
	require.Equal(t, byte('x'), c)
	_, ok = port.TryGetch()
	require.False(t, ok)
}

func TestNewBoardRejectsSharedIRQ(t *testing.T) {
	conf := NewConfig()
	conf.Ports[1].RxIRQ = conf.Ports[0].TxIRQ
	_, err := conf.NewBoard()
	require.Error(t, err)
}

func TestNewBoardAbortsOnFirstFailure(t *testing.T) {
	conf := NewConfig()
	conf.Ports[1].BaudRate = 0
	_, err := conf.NewBoard()
	require.True(t, errors.Is(err, uart.ErrBaudRate))
}

func TestLoadFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "board")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	fn := filepath.Join(dir, "board.json")
	require.NoError(t, os.WriteFile(fn, []byte(`{
		"ports": [
			{"name": "tty", "baud": 9600, "parity": "even", "rx_mode": "polled", "tx_mode": "direct", "rx_irq": 0, "tx_irq": 1},
			{"name": "midi", "baud": 31250, "rx_buffer": 8, "tx_buffer": 8, "rx_irq": 2, "tx_irq": 3}
		],
		"lines": ["loop://", "null://"],
		"mqtt_url": "mqtt://localhost:1883/wind/"
	}`), 0644))

	conf := NewConfig()
	require.NoError(t, conf.LoadFile(fn))
	require.Equal(t, "tty", conf.Ports[0].Name)
	require.Equal(t, hal.ParityEven, conf.Ports[0].Parity)
	require.Equal(t, uart.RxPolled, conf.Ports[0].RxMode)
	require.Equal(t, uart.TxDirect, conf.Ports[0].TxMode)
	require.Equal(t, 8, conf.Ports[1].RxBufferSize)
	require.Equal(t, "loop://", conf.Lines[0])
	require.Equal(t, "mqtt://localhost:1883/wind/", conf.MQTTURL)
	require.Equal(t, time.Second, conf.StatusInterval)

	require.NoError(t, os.WriteFile(fn, []byte(`{"ports": [{"rx_mode": "sometimes"}]}`), 0644))
	require.Error(t, NewConfig().LoadFile(fn))
}

func TestBaudFlag(t *testing.T) {
	var baud uint32
	f := baudFlag{&baud}
	require.NoError(t, f.Set("9600"))
	require.Equal(t, "9600", f.String())
	require.True(t, errors.Is(f.Set("0"), uart.ErrBaudRate))
	require.Error(t, f.Set("fast"))
}

// echoLine reflects every written byte back to the reader.
type echoLine struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func newEchoLine() *echoLine {
	r, w := io.Pipe()
	return &echoLine{r: r, w: w}
}

func (l *echoLine) Read(b []byte) (int, error)  { return l.r.Read(b) }
func (l *echoLine) Write(b []byte) (int, error) { return l.w.Write(b) }
func (l *echoLine) Close() error {
	l.w.Close()
	return l.r.Close()
}

func TestWireLoopback(t *testing.T) {
	b, err := NewConfig().NewBoard()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Wire(MIDIPort, newEchoLine()).Run(ctx) }()

	port := b.Port(MIDIPort)
	port.Putstr("\x90\x3c\x40")
	got := make(chan []byte, 1)
	go func() {
		data := []byte{port.Getch(), port.Getch(), port.Getch()}
		got <- data
	}()
	select {
	case data := <-got:
		require.Equal(t, []byte{0x90, 0x3c, 0x40}, data)
	case <-time.After(2 * time.Second):
		t.Fatal("bytes did not come back")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wire did not stop")
	}
}
