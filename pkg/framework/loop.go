package framework

import (
	"context"
	"log"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// Loop is the foreground super-loop: every iteration polls all tasks in
// priority order. Background-style work (device pumps, publishers) runs as
// Runnables next to it.
type Loop struct {
	Interval time.Duration

	levels [PriorityLevels]taskList

	runners []Runnable

	lock     sync.Mutex
	deferred []deferredTask
	ctx      context.Context

	busy      atomic.Bool
	iteration atomic.Uint64

	wakeUpCh chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopIteration struct {
	*Loop
	ctx           context.Context
	time          time.Time
	seq           uint64
	priorityLevel int
}

type deferredTask struct {
	at   time.Time
	task Task
}

type taskList struct {
	preHooks  []Task
	tasks     []Task
	postHooks []Task
	lock      sync.Mutex
}

var (
	loopCtxKey = &Loop{}
)

// LoopCtlFrom gets LoopControl from context.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: 10 * time.Millisecond}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddTask registers tasks at a priority level. Tasks implementing
// Runnable are also started when the loop runs.
func (l *Loop) AddTask(priorityLevel int, tasks ...Task) *Loop {
	lst := &l.levels[priorityLevel]
	lst.lock.Lock()
	lst.tasks = append(lst.tasks, tasks...)
	lst.lock.Unlock()
	for _, task := range tasks {
		if runner, ok := task.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	l.lock.Lock()
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	l.ctx = ctx
	l.lock.Unlock()

	runner := NewRunnerWith(context.WithValue(ctx, loopCtxKey, LoopControl(l)))
	runner.Go(l.runners...)
	defer runner.Wait()

	interval := l.Interval
	if interval == 0 {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Step(ctx)
		case <-l.wakeUpCh:
			l.Step(ctx)
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail() {
	if err := l.Run(context.TODO()); err != nil {
		log.Fatalln(err)
	}
}

// Step runs one iteration. It returns false without doing anything if an
// iteration is already in progress.
func (l *Loop) Step(ctx context.Context) bool {
	if !l.busy.CompareAndSwap(false, true) {
		return false
	}
	defer l.busy.Store(false)
	l.runIteration(ctx)
	return true
}

// Background is the hook blocking port calls invoke while they spin. It
// runs one loop iteration unless called from within an iteration, then
// yields the processor.
func (l *Loop) Background() {
	l.lock.Lock()
	ctx := l.ctx
	l.lock.Unlock()
	if ctx != nil {
		l.Step(ctx)
	}
	runtime.Gosched()
}

// Iterations returns the number of completed iterations.
func (l *Loop) Iterations() uint64 {
	return l.iteration.Load()
}

// PreRunAt implements LoopControl.
func (l *Loop) PreRunAt(priorityLevel int, hooks ...Task) {
	lst := &l.levels[priorityLevel]
	lst.lock.Lock()
	lst.preHooks = append(lst.preHooks, hooks...)
	lst.lock.Unlock()
}

// PostRunAt implements LoopControl.
func (l *Loop) PostRunAt(priorityLevel int, hooks ...Task) {
	lst := &l.levels[priorityLevel]
	lst.lock.Lock()
	lst.postHooks = append(lst.postHooks, hooks...)
	lst.lock.Unlock()
}

// After implements LoopControl.
func (l *Loop) After(delay time.Duration, task Task) {
	l.lock.Lock()
	l.deferred = append(l.deferred, deferredTask{at: time.Now().Add(delay), task: task})
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	l.lock.Lock()
	ch := l.wakeUpCh
	l.lock.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// due moves deferred tasks whose time has come into the pre-run hooks of
// PrLvNormal, oldest first.
func (l *Loop) due(now time.Time) {
	l.lock.Lock()
	var ready []deferredTask
	remains := l.deferred[:0]
	for _, d := range l.deferred {
		if d.at.After(now) {
			remains = append(remains, d)
		} else {
			ready = append(ready, d)
		}
	}
	l.deferred = remains
	l.lock.Unlock()
	sort.SliceStable(ready, func(i, j int) bool { return ready[i].at.Before(ready[j].at) })
	for _, d := range ready {
		l.PreRunAt(PrLvNormal, d.task)
	}
}

func (l *Loop) runIteration(ctx context.Context) {
	now := time.Now()
	l.due(now)
	iter := &loopIteration{Loop: l, time: now, seq: l.iteration.Load()}
	iter.ctx = context.WithValue(ctx, loopCtxKey, LoopControl(iter))
	for i := 0; i < PriorityLevels; i++ {
		iter.priorityLevel = i
		l.levels[i].run(iter)
	}
	l.iteration.Add(1)
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) PriorityLevel() int {
	return t.priorityLevel
}

func (t *loopIteration) Iteration() uint64 {
	return t.seq
}

func (t *loopIteration) PostRun(hooks ...Task) {
	t.PostRunAt(t.priorityLevel, hooks...)
}

func (c *taskList) run(iter *loopIteration) {
	c.lock.Lock()
	tasks := c.preHooks
	c.preHooks = nil
	c.lock.Unlock()
	pollTasks(iter, tasks)
	c.lock.Lock()
	tasks = c.tasks
	c.lock.Unlock()
	pollTasks(iter, tasks)
	c.lock.Lock()
	tasks, c.postHooks = c.postHooks, nil
	c.lock.Unlock()
	pollTasks(iter, tasks)
}

func pollTasks(iter *loopIteration, tasks []Task) {
	for _, task := range tasks {
		if err := task.Poll(iter); err != nil {
			glog.Errorf("task error: %v", err)
		}
	}
}
