package uart

import "github.com/robotalks/windctl/pkg/l0/ring"

// transmitter is the foreground side of a transmit strategy.
type transmitter interface {
	// tryPut hands one byte over without blocking.
	tryPut(b byte) bool
	free() int
	pending() int
	idle() bool
}

// directTransmitter writes the holding register synchronously.
type directTransmitter struct {
	dev   Device
	stats *counters
}

func (t *directTransmitter) tryPut(b byte) bool {
	if !t.dev.TxReady() {
		return false
	}
	t.dev.WriteData(b)
	t.stats.transmitted.Add(1)
	return true
}

func (t *directTransmitter) free() int {
	if t.dev.TxReady() {
		return 1
	}
	return 0
}

func (t *directTransmitter) pending() int { return 0 }
func (t *directTransmitter) idle() bool   { return t.dev.TxReady() }

// queuedTransmitter buffers bytes drained by the transmit interrupt.
type queuedTransmitter struct {
	dev   Device
	buf   *ring.RingBuffer[byte]
	in    ring.Producer[byte]
	out   ring.Consumer[byte]
	stats *counters
}

func newQueuedTransmitter(dev Device, size int, stats *counters) *queuedTransmitter {
	buf := ring.New[byte](size)
	return &queuedTransmitter{
		dev:   dev,
		buf:   buf,
		in:    buf.Producer(),
		out:   buf.Consumer(),
		stats: stats,
	}
}

func (t *queuedTransmitter) tryPut(b byte) bool {
	if !t.in.Push(b) {
		return false
	}
	// Re-arm after every push: the handler masks itself when it finds
	// the queue empty.
	t.dev.EnableTxInterrupt()
	return true
}

func (t *queuedTransmitter) free() int    { return t.in.Free() }
func (t *queuedTransmitter) pending() int { return t.in.Len() }
func (t *queuedTransmitter) idle() bool   { return t.in.Len() == 0 && t.dev.TxReady() }

// handleInterrupt runs in interrupt context when the holding register
// becomes empty.
func (t *queuedTransmitter) handleInterrupt() {
	if !t.dev.TxReady() {
		return
	}
	b, ok := t.out.Pop()
	if !ok {
		t.dev.DisableTxInterrupt()
		return
	}
	t.dev.WriteData(b)
	t.stats.transmitted.Add(1)
}
