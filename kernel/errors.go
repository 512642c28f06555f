package kernel

import "errors"

var (
	ErrNilTask            = errors.New("kernel: nil task")
	ErrInvalidPriority    = errors.New("kernel: priority must be at least 1")
	ErrInvalidVector      = errors.New("kernel: vector out of range")
	ErrVectorBound        = errors.New("kernel: vector already bound")
	ErrTooManyTasks       = errors.New("kernel: too many tasks")
	ErrSealed             = errors.New("kernel: task set sealed after first dispatch")
	ErrForeignResource    = errors.New("kernel: resource belongs to another dispatcher")
	ErrUndeclaredResource = errors.New("kernel: resource not declared by task")
	ErrLockHeld           = errors.New("kernel: resource already locked by this task")
	ErrCoreBusy           = errors.New("kernel: another goroutine is dispatching")
	ErrHalted             = errors.New("kernel: dispatcher halted")
)
