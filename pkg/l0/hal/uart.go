package hal

import (
	"sync"
	"time"
)

// UART simulates a serial peripheral with a one-byte receive data register
// and a one-byte transmit holding register.
//
// The line side calls Deliver for every byte arriving on the wire and Shift
// to move the holding register onto the wire. The device side (driver code)
// uses the register accessors and the per-peripheral interrupt enables.
type UART struct {
	Name  string
	RxIRQ IRQ
	TxIRQ IRQ

	ctrl *Controller

	regs    sync.Mutex
	baud    uint32
	parity  Parity
	rxData  byte
	rxFault Fault
	rxFull  bool
	txData  byte
	txFull  bool
	rxIE    bool
	txIE    bool

	txKick chan struct{}
}

// NewUART creates a UART raising rxIRQ and txIRQ on ctrl.
func NewUART(name string, ctrl *Controller, rxIRQ, txIRQ IRQ) *UART {
	return &UART{
		Name:   name,
		RxIRQ:  rxIRQ,
		TxIRQ:  txIRQ,
		ctrl:   ctrl,
		txKick: make(chan struct{}, 1),
	}
}

// Configure programs baud rate and parity and clears both data registers.
func (u *UART) Configure(baud uint32, parity Parity) error {
	if baud == 0 {
		return ErrInvalidBaudRate
	}
	if parity > ParityOdd {
		return ErrInvalidParity
	}
	u.regs.Lock()
	u.baud, u.parity = baud, parity
	u.rxFull, u.rxFault = false, 0
	u.txFull = false
	u.regs.Unlock()
	return nil
}

// BaudRate returns the configured baud rate.
func (u *UART) BaudRate() uint32 {
	u.regs.Lock()
	defer u.regs.Unlock()
	return u.baud
}

// ByteTime is the time on the wire of one character (start, 8 data bits,
// optional parity, stop).
func (u *UART) ByteTime() time.Duration {
	u.regs.Lock()
	baud, parity := u.baud, u.parity
	u.regs.Unlock()
	if baud == 0 {
		return 0
	}
	bits := 10
	if parity != ParityNone {
		bits++
	}
	return time.Duration(bits) * time.Second / time.Duration(baud)
}

// RxReady indicates the receive data register holds a byte.
func (u *UART) RxReady() bool {
	u.regs.Lock()
	defer u.regs.Unlock()
	return u.rxFull
}

// ReadData reads the receive data register and the faults latched with it.
// Reading clears the ready condition.
func (u *UART) ReadData() (byte, Fault) {
	u.regs.Lock()
	defer u.regs.Unlock()
	b, fault := u.rxData, u.rxFault
	u.rxFull, u.rxFault = false, 0
	return b, fault
}

// TxReady indicates the transmit holding register is empty.
func (u *UART) TxReady() bool {
	u.regs.Lock()
	defer u.regs.Unlock()
	return !u.txFull
}

// WriteData loads the transmit holding register. A write while the
// register is full replaces the byte not yet shifted out.
func (u *UART) WriteData(b byte) {
	u.regs.Lock()
	u.txData, u.txFull = b, true
	u.regs.Unlock()
	select {
	case u.txKick <- struct{}{}:
	default:
	}
}

// EnableRxInterrupt unmasks the receive interrupt in the peripheral. A byte
// already waiting in the data register raises the interrupt.
func (u *UART) EnableRxInterrupt() {
	u.regs.Lock()
	u.rxIE = true
	raise := u.rxFull
	u.regs.Unlock()
	if raise {
		u.ctrl.Raise(u.RxIRQ)
	}
}

// DisableRxInterrupt masks the receive interrupt in the peripheral.
func (u *UART) DisableRxInterrupt() {
	u.regs.Lock()
	u.rxIE = false
	u.regs.Unlock()
}

// EnableTxInterrupt unmasks the transmit-empty interrupt. The interrupt is
// level triggered: if the holding register is already empty it fires now.
func (u *UART) EnableTxInterrupt() {
	u.regs.Lock()
	u.txIE = true
	raise := !u.txFull
	u.regs.Unlock()
	if raise {
		u.ctrl.Raise(u.TxIRQ)
	}
}

// DisableTxInterrupt masks the transmit-empty interrupt. Safe to call from
// the transmit interrupt handler.
func (u *UART) DisableTxInterrupt() {
	u.regs.Lock()
	u.txIE = false
	u.regs.Unlock()
}

// TxInterruptEnabled reports the transmit-empty interrupt enable bit.
func (u *UART) TxInterruptEnabled() bool {
	u.regs.Lock()
	defer u.regs.Unlock()
	return u.txIE
}

// Deliver puts a byte arriving on the wire into the receive data register.
// If the register still holds an unread byte, the new byte is lost and the
// unread one is flagged with FaultOverrun.
func (u *UART) Deliver(b byte, fault Fault) {
	u.regs.Lock()
	if u.rxFull {
		u.rxFault |= FaultOverrun
		u.regs.Unlock()
		return
	}
	u.rxData, u.rxFault, u.rxFull = b, fault, true
	raise := u.rxIE
	u.regs.Unlock()
	if raise {
		u.ctrl.Raise(u.RxIRQ)
	}
}

// Shift moves the holding register onto the wire. It returns false if the
// register was empty. Emptying the register raises the transmit interrupt
// when enabled.
func (u *UART) Shift() (byte, bool) {
	u.regs.Lock()
	if !u.txFull {
		u.regs.Unlock()
		return 0, false
	}
	b := u.txData
	u.txFull = false
	raise := u.txIE
	u.regs.Unlock()
	if raise {
		u.ctrl.Raise(u.TxIRQ)
	}
	return b, true
}
