// Package ring provides a fixed-capacity single-producer/single-consumer
// ring buffer shared between an interrupt handler and foreground code.
//
// Each cursor has exactly one writer: the producer advances tail, the
// consumer advances head. The occupancy count is the only field both sides
// write, and it is updated with word-sized atomic operations. A slot is
// written before the count is incremented and read before the count is
// decremented, so the atomic count publishes slot contents in both
// directions.
package ring

import "sync/atomic"

// RingBuffer is a bounded FIFO of T stored in a reused array.
type RingBuffer[T any] struct {
	storage []T
	head    uint32 // consumer cursor, next slot to read
	tail    uint32 // producer cursor, next slot to write
	count   atomic.Uint32
}

// New allocates a RingBuffer with capacity slots. It panics if capacity
// is not positive.
func New[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	return &RingBuffer[T]{storage: make([]T, capacity)}
}

// Cap returns the fixed capacity.
func (r *RingBuffer[T]) Cap() int { return len(r.storage) }

// Len returns the number of occupied slots.
func (r *RingBuffer[T]) Len() int { return int(r.count.Load()) }

// Free returns the number of empty slots.
func (r *RingBuffer[T]) Free() int { return len(r.storage) - r.Len() }

// Empty indicates no slot is occupied.
func (r *RingBuffer[T]) Empty() bool { return r.count.Load() == 0 }

// Full indicates every slot is occupied.
func (r *RingBuffer[T]) Full() bool { return int(r.count.Load()) == len(r.storage) }

// Push stores v at the tail. It returns false and leaves the buffer
// unchanged if the buffer is full. Producer side only.
func (r *RingBuffer[T]) Push(v T) bool {
	if r.Full() {
		return false
	}
	r.storage[r.tail] = v
	r.tail = r.next(r.tail)
	r.count.Add(1)
	return true
}

// Pop removes and returns the item at the head. Consumer side only.
func (r *RingBuffer[T]) Pop() (v T, ok bool) {
	if r.Empty() {
		return
	}
	v = r.storage[r.head]
	var zero T
	r.storage[r.head] = zero
	r.head = r.next(r.head)
	r.count.Add(^uint32(0))
	return v, true
}

// Peek returns the item at the head without removing it. Consumer side only.
func (r *RingBuffer[T]) Peek() (v T, ok bool) {
	if r.Empty() {
		return
	}
	return r.storage[r.head], true
}

// Reset discards all items. The producer must not run concurrently,
// e.g. its interrupt source is masked.
func (r *RingBuffer[T]) Reset() {
	var zero T
	for i := range r.storage {
		r.storage[i] = zero
	}
	r.head, r.tail = 0, 0
	r.count.Store(0)
}

// Producer returns the producer half of the buffer.
func (r *RingBuffer[T]) Producer() Producer[T] { return Producer[T]{r: r} }

// Consumer returns the consumer half of the buffer.
func (r *RingBuffer[T]) Consumer() Consumer[T] { return Consumer[T]{r: r} }

func (r *RingBuffer[T]) next(i uint32) uint32 {
	if i++; int(i) == len(r.storage) {
		return 0
	}
	return i
}

// Producer is the half of a RingBuffer allowed to advance the tail.
type Producer[T any] struct {
	r *RingBuffer[T]
}

// Push implements RingBuffer.Push.
func (p Producer[T]) Push(v T) bool { return p.r.Push(v) }

// Len returns the number of occupied slots.
func (p Producer[T]) Len() int { return p.r.Len() }

// Free returns the number of empty slots.
func (p Producer[T]) Free() int { return p.r.Free() }

// Full indicates no more items can be pushed.
func (p Producer[T]) Full() bool { return p.r.Full() }

// Consumer is the half of a RingBuffer allowed to advance the head.
type Consumer[T any] struct {
	r *RingBuffer[T]
}

// Pop implements RingBuffer.Pop.
func (c Consumer[T]) Pop() (T, bool) { return c.r.Pop() }

// Peek implements RingBuffer.Peek.
func (c Consumer[T]) Peek() (T, bool) { return c.r.Peek() }

// Len returns the number of occupied slots.
func (c Consumer[T]) Len() int { return c.r.Len() }

// Empty indicates nothing can be popped.
func (c Consumer[T]) Empty() bool { return c.r.Empty() }
