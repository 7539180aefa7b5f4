// Package board brings up the serial ports of the wind controller: one
// interrupt controller, one UART peripheral per port and a uart.Port on
// each, in port order.
package board

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/golang/glog"

	"github.com/robotalks/windctl/pkg/framework"
	"github.com/robotalks/windctl/pkg/l0/hal"
	"github.com/robotalks/windctl/pkg/l0/uart"
)

// Board owns the peripherals and ports.
type Board struct {
	Controller *hal.Controller

	uarts [NumPorts]*hal.UART
	ports [NumPorts]*uart.Port
	irqs  []hal.IRQ
}

// New initializes both ports. Ports are brought up in index order and the
// first failure aborts.
func New(conf *Config) (*Board, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	b := &Board{Controller: hal.NewController()}
	for n := range conf.Ports {
		pc := conf.Ports[n]
		if pc.Name == "" {
			pc.Name = "port" + strconv.Itoa(n)
		}
		u := hal.NewUART(pc.Name, b.Controller, pc.RxIRQ, pc.TxIRQ)
		port, err := uart.New(pc, u, b.Controller)
		if err != nil {
			return nil, fmt.Errorf("port %d: %w", n, err)
		}
		b.uarts[n], b.ports[n] = u, port
		b.irqs = append(b.irqs, pc.RxIRQ, pc.TxIRQ)
	}
	glog.Infof("board up: %s, %s", b.ports[0].Name(), b.ports[1].Name())
	return b, nil
}

// NewBoard creates a Board using the config.
func (c *Config) NewBoard() (*Board, error) {
	return New(c)
}

// Port returns port n, or nil if n is out of range.
func (b *Board) Port(n int) *uart.Port {
	if n < 0 || n >= NumPorts {
		return nil
	}
	return b.ports[n]
}

// UART returns the peripheral behind port n, or nil if n is out of range.
func (b *Board) UART(n int) *hal.UART {
	if n < 0 || n >= NumPorts {
		return nil
	}
	return b.uarts[n]
}

// Ports returns all ports in index order.
func (b *Board) Ports() []*uart.Port {
	return b.ports[:]
}

// Lookup finds a port by index ("0", "1") or name.
func (b *Board) Lookup(key string) (int, *uart.Port) {
	if n, err := strconv.Atoi(key); err == nil {
		if port := b.Port(n); port != nil {
			return n, port
		}
		return -1, nil
	}
	for n, port := range b.ports {
		if port.Name() == key {
			return n, port
		}
	}
	return -1, nil
}

// SetBackgroundHook installs the spin hook on every port.
func (b *Board) SetBackgroundHook(hook func()) {
	for _, port := range b.ports {
		port.SetBackgroundHook(hook)
	}
}

// Close masks every interrupt source of the board. Buffered bytes stay
// readable and nothing new arrives afterwards.
func (b *Board) Close() error {
	for _, irq := range b.irqs {
		b.Controller.Disable(irq)
	}
	glog.V(2).Info("board interrupts masked")
	return nil
}

// Snapshot collects the status of every port.
func (b *Board) Snapshot() []uart.Status {
	s := make([]uart.Status, NumPorts)
	for n, port := range b.ports {
		s[n] = port.Snapshot()
	}
	return s
}

// Wire returns a Runnable shifting bytes between port n and line until the
// context is done. The line is closed when the Runnable stops if it is an
// io.Closer.
func (b *Board) Wire(n int, line io.ReadWriter) framework.Runnable {
	u := b.UART(n)
	name := fmt.Sprintf("wire-%d", n)
	return framework.NamedRun(name, framework.RunnableFunc(func(ctx context.Context) error {
		if u == nil {
			return fmt.Errorf("no port %d", n)
		}
		glog.V(2).Infof("%s: %s wired", name, u.Name)
		if closer, ok := line.(io.Closer); ok {
			return framework.RunWithContextCloser(ctx, closer, func() error {
				return u.Run(ctx, line)
			})
		}
		return u.Run(ctx, line)
	}))
}
