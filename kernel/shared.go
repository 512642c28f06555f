package kernel

import "fmt"

// Resource is state that tasks declare in TaskSpec.Shares. Only Shared
// implements it.
type Resource interface {
	ResourceName() string
	Ceiling() Priority

	bind(d *Dispatcher) error
	claim(id TaskID, p Priority)
}

// Shared wraps a value reachable from more than one task.
//
// Access is only possible through Lock, which raises the system priority to
// the resource ceiling (the highest priority of any task that declared the
// resource) for the duration of the critical section. No task that could
// touch the value can start while it is held, so a task blocks at most once
// and lock order cannot deadlock.
type Shared[T any] struct {
	name    string
	d       *Dispatcher
	ceiling Priority
	users   uint32 // bit per TaskID

	locked bool
	value  T
}

// NewShared wraps v. The resource becomes usable once declared by tasks of
// one dispatcher.
func NewShared[T any](name string, v T) *Shared[T] {
	return &Shared[T]{name: name, value: v}
}

func (s *Shared[T]) ResourceName() string { return s.name }

// Ceiling returns the highest priority of the tasks that declared s.
func (s *Shared[T]) Ceiling() Priority { return s.ceiling }

func (s *Shared[T]) bind(d *Dispatcher) error {
	if s.d != nil && s.d != d {
		return fmt.Errorf("%w: %s", ErrForeignResource, s.name)
	}
	s.d = d
	return nil
}

func (s *Shared[T]) claim(id TaskID, p Priority) {
	s.users |= 1 << id
	if p > s.ceiling {
		s.ceiling = p
	}
}

// Lock runs fn with exclusive access to the value. A task that did not
// declare s, or that locks s while already holding it, halts the dispatcher.
func (s *Shared[T]) Lock(ctx *Context, fn func(v *T)) {
	prev := s.acquire(ctx)
	fn(&s.value)
	s.release(prev)
}

// Lock runs fn under s's lock and returns its result.
func Lock[T, R any](ctx *Context, s *Shared[T], fn func(v *T) R) R {
	var r R
	s.Lock(ctx, func(v *T) { r = fn(v) })
	return r
}

func (s *Shared[T]) acquire(ctx *Context) Priority {
	if ctx == nil || s.d == nil || ctx.d != s.d {
		panic(fmt.Errorf("%w: %s", ErrUndeclaredResource, s.name))
	}
	d := s.d

	d.mu.Lock()
	defer d.mu.Unlock()
	if s.users&(1<<ctx.id) == 0 {
		panic(fmt.Errorf("%w: %s by %q", ErrUndeclaredResource, s.name, ctx.name))
	}
	if s.locked {
		panic(fmt.Errorf("%w: %s by %q", ErrLockHeld, s.name, ctx.name))
	}
	s.locked = true
	prev := d.system
	if s.ceiling > prev {
		d.system = s.ceiling
	}
	return prev
}

func (s *Shared[T]) release(prev Priority) {
	d := s.d
	d.mu.Lock()
	s.locked = false
	d.system = prev
	d.mu.Unlock()

	d.preemptionPoint()
}
