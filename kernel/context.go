package kernel

import "rtsampler/internal/logx"

// Context is handed to a task for the duration of one run.
type Context struct {
	d    *Dispatcher
	id   TaskID
	name string
	prio Priority
}

// TaskID returns the running task's ID.
func (c *Context) TaskID() TaskID { return c.id }

// Name returns the running task's name.
func (c *Context) Name() string { return c.name }

// Priority returns the running task's static priority.
func (c *Context) Priority() Priority { return c.prio }

// SystemPriority returns the current system priority: the running task's
// priority, or the ceiling of the innermost held lock.
func (c *Context) SystemPriority() Priority {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	return c.d.system
}

// Logger returns the dispatcher logger tagged with the task name.
func (c *Context) Logger() logx.Logger {
	return c.d.log.With(logx.String("task", c.name))
}

// Pend pends v from task context. Tasks above the current system priority
// run before Pend returns.
func (c *Context) Pend(v Vector) PendResult {
	c.d.mu.Lock()
	res := c.d.pendLocked(v)
	c.d.mu.Unlock()

	c.d.preemptionPoint()
	return res
}
