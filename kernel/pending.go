package kernel

// pendQueue is the FIFO of pended tasks for one priority level.
//
// A task is queued at most once (its vector's pending bit coalesces further
// pends), so maxTasks slots can never overflow.
type pendQueue struct {
	head  uint8
	tail  uint8
	slots [maxTasks]TaskID
}

func (q *pendQueue) push(id TaskID) bool {
	if q.head-q.tail >= maxTasks {
		return false
	}
	q.slots[q.head%maxTasks] = id
	q.head++
	return true
}

func (q *pendQueue) pop() (TaskID, bool) {
	if q.tail == q.head {
		return 0, false
	}
	id := q.slots[q.tail%maxTasks]
	q.tail++
	return id, true
}

func (q *pendQueue) empty() bool { return q.head == q.tail }

// level groups every task registered at one priority.
type level struct {
	prio Priority
	q    pendQueue
}
