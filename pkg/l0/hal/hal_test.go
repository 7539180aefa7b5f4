package hal

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestControllerPendingFiresOnEnable(t *testing.T) {
	c := NewController()
	var fired int
	c.Attach(3, func() { fired++ })

	c.Raise(3)
	require.Equal(t, 0, fired)
	require.True(t, c.Pending(3))

	c.Enable(3)
	require.Equal(t, 1, fired)
	require.False(t, c.Pending(3))

	c.Raise(3)
	require.Equal(t, 2, fired)

	c.Disable(3)
	c.Raise(3)
	c.Raise(3)
	require.Equal(t, 2, fired)
	c.Enable(3)
	require.Equal(t, 3, fired, "pending interrupts coalesce")
}

func TestControllerDisableWaitsForHandler(t *testing.T) {
	c := NewController()
	entered, release := make(chan struct{}), make(chan struct{})
	c.Attach(1, func() {
		close(entered)
		<-release
	})
	c.Enable(1)
	go c.Raise(1)
	<-entered

	disabled := make(chan struct{})
	go func() {
		c.Disable(1)
		close(disabled)
	}()
	select {
	case <-disabled:
		t.Fatal("Disable returned while handler in flight")
	case <-time.After(30 * time.Millisecond):
	}
	close(release)
	select {
	case <-disabled:
	case <-time.After(time.Second):
		t.Fatal("Disable did not return")
	}
	require.False(t, c.Enabled(1))
}

func TestUARTReceive(t *testing.T) {
	c := NewController()
	u := NewUART("uart0", c, 0, 1)
	require.NoError(t, u.Configure(9600, ParityNone))

	var got []byte
	var faults []Fault
	c.Attach(0, func() {
		b, f := u.ReadData()
		got, faults = append(got, b), append(faults, f)
	})
	c.Enable(0)
	u.EnableRxInterrupt()

	u.Deliver('a', 0)
	u.Deliver('b', FaultParity)
	require.Equal(t, []byte("ab"), got)
	require.Equal(t, []Fault{0, FaultParity}, faults)
	require.False(t, u.RxReady())
}

func TestUARTOverrun(t *testing.T) {
	u := NewUART("uart0", NewController(), 0, 1)
	require.NoError(t, u.Configure(9600, ParityNone))
	u.Deliver('x', 0)
	u.Deliver('y', 0)
	require.True(t, u.RxReady())
	b, f := u.ReadData()
	require.Equal(t, byte('x'), b)
	require.True(t, f.Has(FaultOverrun))
	require.False(t, u.RxReady())
}

func TestUARTTransmitInterruptIsLevelTriggered(t *testing.T) {
	c := NewController()
	u := NewUART("uart0", c, 0, 1)
	require.NoError(t, u.Configure(9600, ParityNone))

	queue := []byte("hi")
	c.Attach(1, func() {
		if len(queue) == 0 {
			u.DisableTxInterrupt()
			return
		}
		u.WriteData(queue[0])
		queue = queue[1:]
	})
	c.Enable(1)

	u.EnableTxInterrupt()
	require.False(t, u.TxReady())

	var wire []byte
	for {
		b, ok := u.Shift()
		if !ok {
			break
		}
		wire = append(wire, b)
	}
	require.Equal(t, []byte("hi"), wire)
	require.False(t, u.TxInterruptEnabled())
}

func TestConfigureRejectsZeroBaud(t *testing.T) {
	u := NewUART("uart0", NewController(), 0, 1)
	require.Equal(t, ErrInvalidBaudRate, u.Configure(0, ParityNone))
	require.Equal(t, ErrInvalidParity, u.Configure(9600, Parity(9)))
}

func TestByteTime(t *testing.T) {
	u := NewUART("uart0", NewController(), 0, 1)
	require.NoError(t, u.Configure(10000, ParityNone))
	require.Equal(t, time.Millisecond, u.ByteTime())
	require.NoError(t, u.Configure(11000, ParityEven))
	require.Equal(t, time.Millisecond, u.ByteTime())
}

func TestParseParity(t *testing.T) {
	for in, expect := range map[string]Parity{"": ParityNone, "none": ParityNone, "even": ParityEven, "o": ParityOdd} {
		p, err := ParseParity(in)
		require.NoError(t, err)
		require.Equal(t, expect, p)
	}
	_, err := ParseParity("mark")
	require.Equal(t, ErrInvalidParity, err)
}

type pipeLine struct {
	r     io.Reader
	lock  sync.Mutex
	wrote bytes.Buffer
}

func (p *pipeLine) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *pipeLine) Write(b []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.wrote.Write(b)
}

func (p *pipeLine) written() string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.wrote.String()
}

func TestRunPumpsLine(t *testing.T) {
	c := NewController()
	u := NewUART("uart0", c, 0, 1)
	require.NoError(t, u.Configure(115200, ParityNone))

	received := make(chan byte, 8)
	c.Attach(0, func() {
		b, _ := u.ReadData()
		received <- b
	})
	c.Enable(0)
	u.EnableRxInterrupt()

	pr, pw := io.Pipe()
	line := &pipeLine{r: pr}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go u.Run(ctx, line)

	go pw.Write([]byte("ok"))
	for _, want := range []byte("ok") {
		select {
		case b := <-received:
			require.Equal(t, want, b)
		case <-time.After(time.Second):
			t.Fatal("receive timeout")
		}
	}

	u.WriteData('!')
	deadline := time.Now().Add(time.Second)
	for line.written() != "!" {
		if time.Now().After(deadline) {
			t.Fatalf("line got %q, want %q", line.written(), "!")
		}
		time.Sleep(time.Millisecond)
	}
	pw.Close()
}
