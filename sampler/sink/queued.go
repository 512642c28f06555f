package sink

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"rtsampler/internal/logx"
)

var ErrQueueClosed = errors.New("sink: queue closed")

// QueueStats counts what happened to lines handed to a Queued sink.
type QueueStats struct {
	Accepted uint64
	Written  uint64
	Dropped  uint64
	Errors   uint64
	Depth    int
}

// Queued is a bounded line queue in front of a slow sink. WriteLine never
// blocks; when the queue is full the oldest line is dropped. Run drains it,
// optionally paced by a byte-rate token bucket.
type Queued struct {
	name string
	next Sink
	log  logx.Logger

	mu     sync.Mutex
	ring   []string
	head   int
	size   int
	closed bool
	wake   chan struct{}

	lim atomic.Pointer[rate.Limiter]

	accepted atomic.Uint64
	written  atomic.Uint64
	dropped  atomic.Uint64
	errs     atomic.Uint64

	errLog rate.Sometimes
}

// NewQueued returns a queue of capacity lines feeding next.
func NewQueued(name string, next Sink, capacity int, log logx.Logger) *Queued {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queued{
		name:   name,
		next:   next,
		log:    log.With(logx.String("sink", name)),
		ring:   make([]string, capacity),
		wake:   make(chan struct{}, 1),
		errLog: rate.Sometimes{First: 3, Every: 1000},
	}
}

// SetByteRate paces writes to bytesPerSec with the given burst. A rate of
// zero removes pacing.
func (q *Queued) SetByteRate(bytesPerSec int, burst int) {
	if bytesPerSec <= 0 {
		q.lim.Store(nil)
		return
	}
	if burst <= 0 {
		burst = bytesPerSec
	}
	q.lim.Store(rate.NewLimiter(rate.Limit(bytesPerSec), burst))
}

func (q *Queued) WriteLine(line string) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	if q.size == len(q.ring) {
		q.ring[q.head] = ""
		q.head = (q.head + 1) % len(q.ring)
		q.size--
		q.dropped.Add(1)
	}
	q.ring[(q.head+q.size)%len(q.ring)] = line
	q.size++
	q.mu.Unlock()

	q.accepted.Add(1)
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

func (q *Queued) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == 0 {
		return "", false
	}
	line := q.ring[q.head]
	q.ring[q.head] = ""
	q.head = (q.head + 1) % len(q.ring)
	q.size--
	return line, true
}

// Run drains the queue until ctx is done, then refuses further lines.
func (q *Queued) Run(ctx context.Context) error {
	defer func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
	}()
	for {
		line, ok := q.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-q.wake:
				continue
			}
		}

		if lim := q.lim.Load(); lim != nil {
			n := min(len(line)+2, lim.Burst())
			if err := lim.WaitN(ctx, n); err != nil {
				return err
			}
		}
		if err := q.next.WriteLine(line); err != nil {
			q.errs.Add(1)
			q.errLog.Do(func() {
				q.log.Warn("sink write failed", logx.Err(err), logx.Uint64("errors", q.errs.Load()))
			})
			continue
		}
		q.written.Add(1)
	}
}

func (q *Queued) Stats() QueueStats {
	q.mu.Lock()
	depth := q.size
	q.mu.Unlock()
	return QueueStats{
		Accepted: q.accepted.Load(),
		Written:  q.written.Load(),
		Dropped:  q.dropped.Load(),
		Errors:   q.errs.Load(),
		Depth:    depth,
	}
}
