package uart

import (
	"github.com/robotalks/windctl/pkg/l0/hal"
	"github.com/robotalks/windctl/pkg/l0/ring"
)

// receiver is the foreground side of a receive strategy.
type receiver interface {
	avail() bool
	get() (byte, bool)
	peek() (byte, bool)
	buffered() int
	flush()
}

// irqReceiver buffers bytes pushed by the receive interrupt handler.
type irqReceiver struct {
	dev   Device
	irqs  Interrupts
	irq   hal.IRQ
	buf   *ring.RingBuffer[byte]
	in    ring.Producer[byte]
	out   ring.Consumer[byte]
	stats *counters
}

func newIRQReceiver(dev Device, irqs Interrupts, irq hal.IRQ, size int, stats *counters) *irqReceiver {
	buf := ring.New[byte](size)
	return &irqReceiver{
		dev:   dev,
		irqs:  irqs,
		irq:   irq,
		buf:   buf,
		in:    buf.Producer(),
		out:   buf.Consumer(),
		stats: stats,
	}
}

// handleInterrupt runs in interrupt context once per received byte.
func (r *irqReceiver) handleInterrupt() {
	if !r.dev.RxReady() {
		return
	}
	// The read clears the ready condition and must happen even when the
	// byte is going to be discarded.
	b, fault := r.dev.ReadData()
	if fault != 0 {
		r.stats.fault(fault)
		return
	}
	if !r.in.Push(b) {
		r.stats.drop()
		return
	}
	r.stats.accept(r.in.Len())
}

func (r *irqReceiver) avail() bool        { return !r.out.Empty() }
func (r *irqReceiver) get() (byte, bool)  { return r.out.Pop() }
func (r *irqReceiver) peek() (byte, bool) { return r.out.Peek() }
func (r *irqReceiver) buffered() int      { return r.out.Len() }

func (r *irqReceiver) flush() {
	r.irqs.Disable(r.irq)
	r.buf.Reset()
	r.irqs.Enable(r.irq)
}

// polledReceiver reads the data register from foreground code. A byte
// read by peek is held until get consumes it.
type polledReceiver struct {
	dev    Device
	stats  *counters
	held   byte
	isHeld bool
}

// poll moves a valid byte from the data register into the hold slot.
// Faulty bytes are counted and discarded.
func (r *polledReceiver) poll() bool {
	for !r.isHeld && r.dev.RxReady() {
		b, fault := r.dev.ReadData()
		if fault != 0 {
			r.stats.fault(fault)
			continue
		}
		r.held, r.isHeld = b, true
		r.stats.accept(1)
	}
	return r.isHeld
}

func (r *polledReceiver) avail() bool { return r.poll() }

func (r *polledReceiver) get() (byte, bool) {
	if !r.poll() {
		return 0, false
	}
	r.isHeld = false
	return r.held, true
}

func (r *polledReceiver) peek() (byte, bool) {
	if !r.poll() {
		return 0, false
	}
	return r.held, true
}

func (r *polledReceiver) buffered() int {
	if r.poll() {
		return 1
	}
	return 0
}

func (r *polledReceiver) flush() {
	r.isHeld = false
	for r.dev.RxReady() {
		r.dev.ReadData()
	}
}
