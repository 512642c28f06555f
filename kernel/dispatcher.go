package kernel

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"rtsampler/internal/logx"
)

type taskState struct {
	name   string
	prio   Priority
	vector Vector
	task   Task
	level  *level

	pending bool
	runs    uint64
}

// Dispatcher binds tasks to interrupt vectors and runs them with
// priority-based preemption on a single core.
//
// The core is whichever goroutine calls DispatchPending or Run. Peripherals
// raise interrupts from any goroutine with Pend; task code only ever runs on
// the core. A running task is preempted at kernel boundaries (Context.Pend,
// lock release) by pended tasks whose priority exceeds the system priority.
type Dispatcher struct {
	mu sync.Mutex

	tasks     [maxTasks]taskState
	taskCount TaskID
	vectors   map[Vector]TaskID
	levels    []*level // descending priority

	system    Priority
	depth     int
	maxDepth  int
	coalesced uint64

	sealed bool
	halted bool
	fatal  PanicInfo

	core atomic.Bool
	wake chan struct{}

	log     logx.Logger
	onPanic func(PanicInfo)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(log logx.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// WithPanicHandler installs the handler invoked once when a task fails.
// It runs on the core goroutine and must not panic.
func WithPanicHandler(fn func(PanicInfo)) Option {
	return func(d *Dispatcher) { d.onPanic = fn }
}

// New creates a dispatcher with no tasks.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		vectors: make(map[Vector]TaskID),
		wake:    make(chan struct{}, 1),
		log:     logx.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Register binds a task to its vector. The task set is static: registration
// fails once the dispatcher has started dispatching.
func (d *Dispatcher) Register(spec TaskSpec) (TaskID, error) {
	if spec.Task == nil {
		return 0, fmt.Errorf("%w: %q", ErrNilTask, spec.Name)
	}
	if spec.Priority == 0 {
		return 0, fmt.Errorf("%w: task %q", ErrInvalidPriority, spec.Name)
	}
	if spec.Binds >= maxVectors {
		return 0, fmt.Errorf("%w: %d for task %q", ErrInvalidVector, spec.Binds, spec.Name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sealed {
		return 0, fmt.Errorf("%w: task %q", ErrSealed, spec.Name)
	}
	if d.taskCount >= maxTasks {
		return 0, ErrTooManyTasks
	}
	if other, ok := d.vectors[spec.Binds]; ok {
		return 0, fmt.Errorf("%w: vector %d bound to %q", ErrVectorBound, spec.Binds, d.tasks[other].name)
	}
	for _, r := range spec.Shares {
		if r == nil {
			continue
		}
		if err := r.bind(d); err != nil {
			return 0, fmt.Errorf("task %q: %w", spec.Name, err)
		}
	}

	id := d.taskCount
	d.taskCount++
	for _, r := range spec.Shares {
		if r != nil {
			r.claim(id, spec.Priority)
		}
	}
	d.tasks[id] = taskState{
		name:   spec.Name,
		prio:   spec.Priority,
		vector: spec.Binds,
		task:   spec.Task,
		level:  d.levelFor(spec.Priority),
	}
	d.vectors[spec.Binds] = id

	d.log.Debug("task registered",
		logx.String("task", spec.Name),
		logx.Uint("priority", uint(spec.Priority)),
		logx.Uint("vector", uint(spec.Binds)),
		logx.Int("shares", len(spec.Shares)),
	)
	return id, nil
}

func (d *Dispatcher) levelFor(p Priority) *level {
	for _, lv := range d.levels {
		if lv.prio == p {
			return lv
		}
	}
	lv := &level{prio: p}
	d.levels = append(d.levels, lv)
	sort.Slice(d.levels, func(i, j int) bool { return d.levels[i].prio > d.levels[j].prio })
	return lv
}

// Pend marks the task bound to v as ready. It is safe to call from any
// goroutine and never runs task code itself.
func (d *Dispatcher) Pend(v Vector) PendResult {
	d.mu.Lock()
	res := d.pendLocked(v)
	d.mu.Unlock()

	if res == PendOK {
		d.signal()
	}
	return res
}

func (d *Dispatcher) pendLocked(v Vector) PendResult {
	if d.halted {
		return PendErrHalted
	}
	id, ok := d.vectors[v]
	if !ok {
		return PendErrNoVector
	}
	st := &d.tasks[id]
	if st.pending {
		d.coalesced++
		return PendCoalesced
	}
	st.pending = true
	st.level.q.push(id)
	return PendOK
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// DispatchPending runs every pending task on the calling goroutine, highest
// priority first and in trigger order within a priority, until nothing
// pended remains.
func (d *Dispatcher) DispatchPending() error {
	if !d.core.CompareAndSwap(false, true) {
		return ErrCoreBusy
	}
	defer d.core.Store(false)

	d.seal()
	d.dispatch()
	return d.Err()
}

// Run is the idle loop: it dispatches pended tasks and otherwise waits for
// the next interrupt. It returns when ctx is done or a task fails.
func (d *Dispatcher) Run(ctx context.Context) error {
	if !d.core.CompareAndSwap(false, true) {
		return ErrCoreBusy
	}
	defer d.core.Store(false)

	d.seal()
	for {
		d.dispatch()
		if err := d.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.wake:
		}
	}
}

func (d *Dispatcher) seal() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sealed {
		return
	}
	d.sealed = true
	d.log.Debug("task set sealed", logx.Int("tasks", int(d.taskCount)), logx.Int("levels", len(d.levels)))
}

// dispatch runs ready tasks above the current system priority until none
// remain. It is the only place task code is entered.
func (d *Dispatcher) dispatch() {
	for {
		d.mu.Lock()
		if d.halted {
			d.mu.Unlock()
			return
		}
		id, ok := d.nextReadyLocked()
		if !ok {
			d.mu.Unlock()
			return
		}
		st := &d.tasks[id]
		st.pending = false
		st.runs++
		prev := d.system
		d.system = st.prio
		d.depth++
		if d.depth > d.maxDepth {
			d.maxDepth = d.depth
		}
		d.mu.Unlock()

		completed := d.run(id, st)

		d.mu.Lock()
		d.depth--
		d.system = prev
		d.mu.Unlock()

		if !completed {
			return
		}
	}
}

func (d *Dispatcher) nextReadyLocked() (TaskID, bool) {
	for _, lv := range d.levels {
		if lv.prio <= d.system {
			return 0, false
		}
		if id, ok := lv.q.pop(); ok {
			return id, true
		}
	}
	return 0, false
}

// haltUnwind unwinds preempted tasks after a nested task failed.
type haltUnwind struct{}

func (d *Dispatcher) run(id TaskID, st *taskState) (completed bool) {
	ctx := &Context{d: d, id: id, name: st.name, prio: st.prio}
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		completed = false
		if _, unwinding := v.(haltUnwind); unwinding {
			return
		}
		d.halt(PanicInfo{TaskID: id, Task: st.name, Value: v, Stack: captureStack()})
	}()
	st.task.Run(ctx)
	return true
}

// preemptionPoint dispatches anything the caller no longer masks, then
// unwinds the caller if the system halted meanwhile.
func (d *Dispatcher) preemptionPoint() {
	d.dispatch()
	d.mu.Lock()
	halted := d.halted
	d.mu.Unlock()
	if halted {
		panic(haltUnwind{})
	}
}

func (d *Dispatcher) halt(info PanicInfo) {
	d.mu.Lock()
	if d.halted {
		d.mu.Unlock()
		return
	}
	d.halted = true
	d.fatal = info
	d.mu.Unlock()

	d.log.Error("task failed, dispatcher halted",
		logx.String("task", info.Task),
		logx.Uint("task_id", uint(info.TaskID)),
		logx.Any("panic", info.Value),
	)
	if d.onPanic != nil {
		d.onPanic(info)
	}
	d.signal()
}

// Err returns the fatal error that halted the dispatcher, if any.
func (d *Dispatcher) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.halted {
		return nil
	}
	if err, ok := d.fatal.Value.(error); ok {
		return fmt.Errorf("%w: task %q: %w", ErrHalted, d.fatal.Task, err)
	}
	return fmt.Errorf("%w: task %q: %v", ErrHalted, d.fatal.Task, d.fatal.Value)
}

// Stats returns a snapshot of the dispatch counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := Stats{
		Dispatched: make(map[string]uint64, d.taskCount),
		Coalesced:  d.coalesced,
		MaxDepth:   d.maxDepth,
	}
	for i := TaskID(0); i < d.taskCount; i++ {
		st.Dispatched[d.tasks[i].name] = d.tasks[i].runs
	}
	return st
}
