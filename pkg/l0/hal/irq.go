package hal

import "sync"

// Controller dispatches interrupt sources to attached handlers.
//
// Handlers of one source never overlap: a source's handler runs with that
// source's run lock held. Different sources are independent. Raising a
// disabled source latches it pending; it fires once when enabled again.
type Controller struct {
	lock  sync.Mutex
	lines map[IRQ]*irqLine
}

type irqLine struct {
	run     sync.Mutex // held while the handler executes
	state   sync.Mutex
	handler func()
	enabled bool
	pending bool
}

// NewController creates a Controller with all sources disabled.
func NewController() *Controller {
	return &Controller{lines: make(map[IRQ]*irqLine)}
}

func (c *Controller) line(irq IRQ) *irqLine {
	c.lock.Lock()
	defer c.lock.Unlock()
	l := c.lines[irq]
	if l == nil {
		l = &irqLine{}
		c.lines[irq] = l
	}
	return l
}

// Attach installs the handler of a source. It replaces any previous handler.
func (c *Controller) Attach(irq IRQ, handler func()) {
	l := c.line(irq)
	l.state.Lock()
	l.handler = handler
	l.state.Unlock()
}

// Enable unmasks a source. A pending interrupt fires immediately in the
// calling goroutine.
func (c *Controller) Enable(irq IRQ) {
	l := c.line(irq)
	l.state.Lock()
	l.enabled = true
	pending := l.pending
	l.pending = false
	l.state.Unlock()
	if pending {
		c.Raise(irq)
	}
}

// Disable masks a source and waits for an in-flight handler of that source
// to return. It must not be called from the source's own handler.
func (c *Controller) Disable(irq IRQ) {
	l := c.line(irq)
	l.state.Lock()
	l.enabled = false
	l.state.Unlock()
	l.run.Lock()
	l.run.Unlock()
}

// Enabled reports whether a source is unmasked.
func (c *Controller) Enabled(irq IRQ) bool {
	l := c.line(irq)
	l.state.Lock()
	defer l.state.Unlock()
	return l.enabled
}

// Pending reports whether a source was raised while masked.
func (c *Controller) Pending(irq IRQ) bool {
	l := c.line(irq)
	l.state.Lock()
	defer l.state.Unlock()
	return l.pending
}

// Raise signals a source. If it is enabled and has a handler, the handler
// runs before Raise returns; otherwise the source becomes pending.
func (c *Controller) Raise(irq IRQ) {
	l := c.line(irq)
	l.run.Lock()
	defer l.run.Unlock()
	l.state.Lock()
	if !l.enabled || l.handler == nil {
		l.pending = true
		l.state.Unlock()
		return
	}
	l.pending = false
	handler := l.handler
	l.state.Unlock()
	handler()
}
