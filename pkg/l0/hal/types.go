// Package hal models the microcontroller peripherals the serial transport
// runs on: an interrupt controller and UART peripherals with one-byte data
// registers. Interrupt handlers run synchronously in the goroutine raising
// the interrupt, which stands in for the preemption of foreground code.
package hal

import "errors"

// IRQ identifies an interrupt source.
type IRQ int

// Fault is a set of line faults latched with a received byte.
type Fault uint8

// Line faults.
const (
	FaultFraming Fault = 1 << iota
	FaultParity
	FaultOverrun
)

// Has indicates if f contains all bits of flag.
func (f Fault) Has(flag Fault) bool {
	return f&flag == flag
}

// Parity defines the parity setting of a UART.
type Parity uint8

// Parity settings.
const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

// String implements fmt.Stringer.
func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return "none"
	}
}

// ParseParity parses "none", "even" or "odd".
func ParseParity(s string) (Parity, error) {
	switch s {
	case "", "none", "n":
		return ParityNone, nil
	case "even", "e":
		return ParityEven, nil
	case "odd", "o":
		return ParityOdd, nil
	}
	return ParityNone, ErrInvalidParity
}

// MarshalText implements encoding.TextMarshaler.
func (p Parity) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Parity) UnmarshalText(text []byte) error {
	val, err := ParseParity(string(text))
	if err != nil {
		return err
	}
	*p = val
	return nil
}

var (
	// ErrInvalidBaudRate indicates a zero or unsupported baud rate.
	ErrInvalidBaudRate = errors.New("invalid baud rate")
	// ErrInvalidParity indicates an unknown parity setting.
	ErrInvalidParity = errors.New("invalid parity")
)
