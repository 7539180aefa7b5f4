// Package uart implements the interrupt-driven serial transport: one Port
// per physical UART, each with a receive path (interrupt-fed ring or polled
// data register), a transmit path (interrupt-drained ring or direct
// register writes) and an error counter.
//
// Foreground code uses the byte API (RxDataAvail, Getch, Putch, ...). The
// interrupt handlers are attached to the platform interrupt controller by
// New and are the only code pushing into the RX ring and popping from the
// TX ring. Blocking calls spin and invoke the background hook on every
// iteration.
package uart

import (
	"runtime"

	"github.com/golang/glog"
)

// State is the externally visible state of a Port.
type State int

const (
	// StateIdle means nothing is pending in either direction.
	StateIdle State = iota
	// StateActive means bytes are pending in at least one direction.
	StateActive
)

// String implements fmt.Stringer.
func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "idle"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Port is one serial port.
type Port struct {
	config Config
	dev    Device
	irqs   Interrupts
	rx     receiver
	tx     transmitter
	stats  counters
	hook   func()
}

// Status is a diagnostic snapshot of a Port.
type Status struct {
	Name      string
	State     State
	Errors    uint32
	Stats     Stats
	Buffered  int
	Pending   int
	RxMode    RxMode
	TxMode    TxMode
	BaudRate  uint32
	RxBufSize int
	TxBufSize int
}

// New configures dev and returns a Port ready for use. Receive and
// transmit handlers are attached to irqs; the receive interrupt is unmasked
// in interrupt receive mode.
func New(config Config, dev Device, irqs Interrupts) (*Port, error) {
	if dev == nil {
		return nil, ErrNoDevice
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := dev.Configure(config.BaudRate, config.Parity); err != nil {
		return nil, err
	}
	p := &Port{config: config, dev: dev, irqs: irqs, hook: runtime.Gosched}

	switch config.RxMode {
	case RxPolled:
		dev.DisableRxInterrupt()
		p.rx = &polledReceiver{dev: dev, stats: &p.stats}
	default:
		rx := newIRQReceiver(dev, irqs, config.RxIRQ, config.RxBufferSize, &p.stats)
		irqs.Attach(config.RxIRQ, rx.handleInterrupt)
		irqs.Enable(config.RxIRQ)
		dev.EnableRxInterrupt()
		p.rx = rx
	}

	switch config.TxMode {
	case TxDirect:
		dev.DisableTxInterrupt()
		p.tx = &directTransmitter{dev: dev, stats: &p.stats}
	default:
		tx := newQueuedTransmitter(dev, config.TxBufferSize, &p.stats)
		dev.DisableTxInterrupt()
		irqs.Attach(config.TxIRQ, tx.handleInterrupt)
		irqs.Enable(config.TxIRQ)
		p.tx = tx
	}

	glog.Infof("%s: %d baud parity=%s rx=%s(%d) tx=%s(%d)",
		config.Name, config.BaudRate, config.Parity,
		config.RxMode, config.RxBufferSize, config.TxMode, config.TxBufferSize)
	return p, nil
}

// Name returns the configured port name.
func (p *Port) Name() string { return p.config.Name }

// Config returns the configuration the Port was created with.
func (p *Port) Config() Config { return p.config }

// SetBackgroundHook installs the function invoked on every spin iteration
// of Getch, Putch and Drain. nil restores the default, which yields the
// processor.
func (p *Port) SetBackgroundHook(hook func()) {
	if hook == nil {
		hook = runtime.Gosched
	}
	p.hook = hook
}

// RxDataAvail reports whether a received byte is available.
func (p *Port) RxDataAvail() bool { return p.rx.avail() }

// Buffered returns the number of received bytes waiting.
func (p *Port) Buffered() int { return p.rx.buffered() }

// TryGetch returns the next received byte without blocking.
func (p *Port) TryGetch() (byte, bool) { return p.rx.get() }

// Peek returns the next received byte without consuming it.
func (p *Port) Peek() (byte, bool) { return p.rx.peek() }

// Getch returns the next received byte, spinning until one arrives.
func (p *Port) Getch() byte {
	for {
		if b, ok := p.rx.get(); ok {
			return b
		}
		p.hook()
	}
}

// RxFlush discards all received bytes. In interrupt receive mode the
// receive interrupt is masked while the ring is reset.
func (p *Port) RxFlush() {
	p.rx.flush()
	glog.V(2).Infof("%s: rx flushed", p.config.Name)
}

// TryPutch hands b to the transmitter without blocking. It returns false
// if the queue or holding register is full.
func (p *Port) TryPutch(b byte) bool { return p.tx.tryPut(b) }

// Putch transmits b, spinning while the transmitter is full. Bytes are
// never dropped.
func (p *Port) Putch(b byte) {
	for !p.tx.tryPut(b) {
		p.hook()
	}
}

// Putstr transmits s byte by byte, stopping at the first NUL if present.
func (p *Port) Putstr(s string) {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return
		}
		p.Putch(s[i])
	}
}

// Write implements io.Writer. It blocks until every byte is accepted by
// the transmitter and never fails.
func (p *Port) Write(data []byte) (int, error) {
	for _, b := range data {
		p.Putch(b)
	}
	return len(data), nil
}

// WriteByte implements io.ByteWriter.
func (p *Port) WriteByte(b byte) error {
	p.Putch(b)
	return nil
}

// TxFree returns how many bytes can be accepted without blocking.
func (p *Port) TxFree() int { return p.tx.free() }

// TxPending returns the number of bytes queued but not yet in the
// holding register.
func (p *Port) TxPending() int { return p.tx.pending() }

// Drain spins until every queued byte has been handed to the hardware
// and the holding register is empty.
func (p *Port) Drain() {
	for !p.tx.idle() {
		p.hook()
	}
}

// Errors returns the number of receive faults and dropped bytes since the
// last ClearErrors.
func (p *Port) Errors() uint32 { return p.stats.errors.Load() }

// ClearErrors resets the error counter and statistics and returns the
// error count being cleared.
func (p *Port) ClearErrors() uint32 {
	n := p.stats.clear()
	glog.V(2).Infof("%s: cleared %d errors", p.config.Name, n)
	return n
}

// Stats returns a copy of the counters.
func (p *Port) Stats() Stats { return p.stats.snapshot() }

// State reports StateActive while received bytes are waiting or
// transmit bytes are queued.
func (p *Port) State() State {
	if p.rx.buffered() > 0 || !p.tx.idle() {
		return StateActive
	}
	return StateIdle
}

// Snapshot collects a diagnostic Status.
func (p *Port) Snapshot() Status {
	return Status{
		Name:      p.config.Name,
		State:     p.State(),
		Errors:    p.Errors(),
		Stats:     p.Stats(),
		Buffered:  p.Buffered(),
		Pending:   p.TxPending(),
		RxMode:    p.config.RxMode,
		TxMode:    p.config.TxMode,
		BaudRate:  p.config.BaudRate,
		RxBufSize: p.config.RxBufferSize,
		TxBufSize: p.config.TxBufferSize,
	}
}

// HandleRxInterrupt runs the receive interrupt handler. It is attached to
// the interrupt controller by New; calling it directly simulates the
// interrupt firing.
func (p *Port) HandleRxInterrupt() {
	if rx, ok := p.rx.(*irqReceiver); ok {
		rx.handleInterrupt()
	}
}

// HandleTxInterrupt runs the transmit interrupt handler, moving at most
// one queued byte into the holding register.
func (p *Port) HandleTxInterrupt() {
	if tx, ok := p.tx.(*queuedTransmitter); ok {
		tx.handleInterrupt()
	}
}
