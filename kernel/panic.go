package kernel

// PanicInfo contains details about a failed task.
type PanicInfo struct {
	TaskID TaskID
	Task   string
	Value  any
	Stack  []byte
}
