package uart

import (
	"sync/atomic"

	"github.com/robotalks/windctl/pkg/l0/hal"
)

// Stats holds counters since the last ClearErrors.
type Stats struct {
	Framing     uint32 // bytes received with a framing fault
	Parity      uint32 // bytes received with a parity fault
	Overrun     uint32 // bytes flagged with a hardware overrun
	Dropped     uint32 // bytes discarded because the RX ring was full
	Received    uint32 // bytes accepted into the RX path
	Transmitted uint32 // bytes written to the holding register
	RxHighWater uint32 // highest RX ring occupancy seen
}

// Errors is the single error counter: every discarded byte counts once.
func (s Stats) Errors() uint32 {
	return s.Framing + s.Parity + s.Overrun + s.Dropped
}

// counters are written by interrupt handlers and read by foreground code.
type counters struct {
	errors      atomic.Uint32
	framing     atomic.Uint32
	parity      atomic.Uint32
	overrun     atomic.Uint32
	dropped     atomic.Uint32
	received    atomic.Uint32
	transmitted atomic.Uint32
	rxHighWater atomic.Uint32
}

// fault records a byte discarded for a line fault.
func (c *counters) fault(f hal.Fault) {
	switch {
	case f.Has(hal.FaultOverrun):
		c.overrun.Add(1)
	case f.Has(hal.FaultFraming):
		c.framing.Add(1)
	default:
		c.parity.Add(1)
	}
	c.errors.Add(1)
}

func (c *counters) drop() {
	c.dropped.Add(1)
	c.errors.Add(1)
}

func (c *counters) accept(used int) {
	c.received.Add(1)
	if u := uint32(used); u > c.rxHighWater.Load() {
		c.rxHighWater.Store(u)
	}
}

func (c *counters) snapshot() Stats {
	return Stats{
		Framing:     c.framing.Load(),
		Parity:      c.parity.Load(),
		Overrun:     c.overrun.Load(),
		Dropped:     c.dropped.Load(),
		Received:    c.received.Load(),
		Transmitted: c.transmitted.Load(),
		RxHighWater: c.rxHighWater.Load(),
	}
}

// clear zeroes all counters and returns the error count being cleared.
func (c *counters) clear() uint32 {
	c.framing.Store(0)
	c.parity.Store(0)
	c.overrun.Store(0)
	c.dropped.Store(0)
	c.received.Store(0)
	c.transmitted.Store(0)
	c.rxHighWater.Store(0)
	return c.errors.Swap(0)
}
