package uart

import "github.com/robotalks/windctl/pkg/l0/hal"

// Device is the register-level view of a UART peripheral.
type Device interface {
	Configure(baud uint32, parity hal.Parity) error
	// RxReady indicates the receive data register holds a byte.
	RxReady() bool
	// ReadData reads the receive data register and clears RxReady.
	ReadData() (byte, hal.Fault)
	// TxReady indicates the transmit holding register is empty.
	TxReady() bool
	WriteData(byte)

	EnableRxInterrupt()
	DisableRxInterrupt()
	EnableTxInterrupt()
	// DisableTxInterrupt is called from the transmit interrupt handler.
	DisableTxInterrupt()
}

// Interrupts is the platform interrupt-dispatch facility.
type Interrupts interface {
	Attach(irq hal.IRQ, handler func())
	Enable(irq hal.IRQ)
	// Disable masks a source and returns once no handler of that
	// source is running.
	Disable(irq hal.IRQ)
}
