package kernel

const (
	maxTasks   = 32
	maxVectors = 64
)

// TaskID identifies a registered task.
type TaskID uint8

// Priority is a task's static priority. Higher values preempt lower ones;
// 0 is the idle context and cannot be assigned to a task.
type Priority uint8

// Vector identifies an interrupt source a task is bound to.
type Vector uint8

// Task is a run-to-completion unit of work.
type Task interface {
	Run(*Context)
}

// TaskFunc adapts a function to Task.
type TaskFunc func(*Context)

func (f TaskFunc) Run(ctx *Context) { f(ctx) }

// TaskSpec describes a task binding: its priority, the vector that triggers
// it and every shared resource it may lock.
type TaskSpec struct {
	Name     string
	Priority Priority
	Binds    Vector
	Shares   []Resource
	Task     Task
}

// PendResult describes the outcome of pending a vector.
type PendResult uint8

const (
	PendOK PendResult = iota
	PendCoalesced
	PendErrNoVector
	PendErrHalted
)

func (r PendResult) String() string {
	switch r {
	case PendOK:
		return "ok"
	case PendCoalesced:
		return "coalesced with pending interrupt"
	case PendErrNoVector:
		return "no task bound to vector"
	case PendErrHalted:
		return "dispatcher halted"
	default:
		return "unknown"
	}
}

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Dispatched map[string]uint64
	Coalesced  uint64
	MaxDepth   int
}
