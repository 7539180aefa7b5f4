package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunnableFunc is the func form of Runnable.
type RunnableFunc func(context.Context) error

// Run implements Runnable.
func (f RunnableFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Task is polled once per loop iteration. A Task must not block: it
// handles whatever is ready and returns.
type Task interface {
	Poll(TaskContext) error
}

// TaskFunc is the func form of Task.
type TaskFunc func(TaskContext) error

// Poll implements Task.
func (f TaskFunc) Poll(ctx TaskContext) error {
	return f(ctx)
}

// TimeSource provides the time for polling logic.
type TimeSource interface {
	Time() time.Time
}

// TaskContext provides the context of current loop iteration.
type TaskContext interface {
	TimeSource
	// Context retrieves context.Context.
	Context() context.Context
	// PriorityLevel gets the current priority level.
	PriorityLevel() int
	// Iteration is the sequence number of the current iteration.
	Iteration() uint64
	// PostRun injects post-run one-shot hooks at current
	// priority level. If called in post-run hooks, new hooks
	// are installed for next iteration.
	PostRun(hooks ...Task)

	LoopControl
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 16

// Predefine priority levels
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvInput is the alias of priority level for tasks consuming
	// received bytes.
	PrLvInput = PrLvHigh
	// PrLvOutput is the alias of priority level for tasks producing
	// bytes to transmit.
	PrLvOutput = PrLvLow
)

// LoopControl exposes access to the polling loop.
type LoopControl interface {
	// PreRunAt injects one-shot pre-run hooks at specified
	// priority level.
	PreRunAt(priorityLevel int, hooks ...Task)
	// PostRunAt injects one-shot post-run hooks at specified
	// priority level.
	PostRunAt(priorityLevel int, hooks ...Task)
	// After schedules a one-shot task to be polled in the first
	// iteration at or after the delay, at PrLvNormal.
	After(delay time.Duration, task Task)
	// TriggerNext schedules the next iteration to be executed
	// immediately after the current iteration.
	TriggerNext()
}
