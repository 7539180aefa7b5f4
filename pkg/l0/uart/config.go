package uart

import (
	"fmt"

	"github.com/robotalks/windctl/pkg/l0/hal"
)

// RxMode selects how received bytes reach foreground code.
type RxMode int

const (
	// RxInterrupt buffers bytes in a ring filled by the receive interrupt.
	RxInterrupt RxMode = iota
	// RxPolled reads the data register directly from foreground code.
	RxPolled
)

// String implements fmt.Stringer.
func (m RxMode) String() string {
	if m == RxPolled {
		return "polled"
	}
	return "interrupt"
}

// MarshalText implements encoding.TextMarshaler.
func (m RxMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *RxMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "interrupt", "irq":
		*m = RxInterrupt
	case "polled", "poll":
		*m = RxPolled
	default:
		return fmt.Errorf("unknown rx mode %q", text)
	}
	return nil
}

// TxMode selects how bytes are handed to the transmitter.
type TxMode int

const (
	// TxQueued buffers bytes in a ring drained by the transmit interrupt.
	TxQueued TxMode = iota
	// TxDirect waits for the holding register and writes it synchronously.
	TxDirect
)

// String implements fmt.Stringer.
func (m TxMode) String() string {
	if m == TxDirect {
		return "direct"
	}
	return "queued"
}

// MarshalText implements encoding.TextMarshaler.
func (m TxMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *TxMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "queued", "queue":
		*m = TxQueued
	case "direct":
		*m = TxDirect
	default:
		return fmt.Errorf("unknown tx mode %q", text)
	}
	return nil
}

// MaxBufferSize bounds RX and TX ring capacities.
const MaxBufferSize = 1 << 16

// Config is fixed when a Port is created.
type Config struct {
	Name         string     `json:"name"`
	BaudRate     uint32     `json:"baud"`
	Parity       hal.Parity `json:"parity"`
	RxMode       RxMode     `json:"rx_mode"`
	TxMode       TxMode     `json:"tx_mode"`
	RxBufferSize int        `json:"rx_buffer"`
	TxBufferSize int        `json:"tx_buffer"`
	RxIRQ        hal.IRQ    `json:"rx_irq"`
	TxIRQ        hal.IRQ    `json:"tx_irq"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BaudRate == 0 {
		return fmt.Errorf("%s: %w", c.Name, ErrBaudRate)
	}
	if c.RxMode != RxInterrupt && c.RxMode != RxPolled {
		return fmt.Errorf("%s: unknown rx mode %d", c.Name, c.RxMode)
	}
	if c.TxMode != TxQueued && c.TxMode != TxDirect {
		return fmt.Errorf("%s: unknown tx mode %d", c.Name, c.TxMode)
	}
	if c.RxMode == RxInterrupt && !validBufferSize(c.RxBufferSize) {
		return fmt.Errorf("%s: rx %w: %d", c.Name, ErrBufferSize, c.RxBufferSize)
	}
	if c.TxMode == TxQueued && !validBufferSize(c.TxBufferSize) {
		return fmt.Errorf("%s: tx %w: %d", c.Name, ErrBufferSize, c.TxBufferSize)
	}
	if c.RxIRQ == c.TxIRQ {
		return fmt.Errorf("%s: rx and tx share irq %d", c.Name, c.RxIRQ)
	}
	return nil
}

func validBufferSize(n int) bool {
	return n > 0 && n <= MaxBufferSize
}
