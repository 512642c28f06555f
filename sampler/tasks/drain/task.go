// Package drain is the transfer-complete task: it collects the filled slot,
// formats its samples and hands the line to the output sink.
package drain

import (
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"rtsampler/internal/logx"
	"rtsampler/kernel"
	"rtsampler/sampler/sink"
	"rtsampler/sampler/transfer"
)

type Config struct {
	Transfer *kernel.Shared[*transfer.Transfer]
	Sink     sink.Sink
}

type Task struct {
	xfer *kernel.Shared[*transfer.Transfer]
	sink sink.Sink
	buf  []byte

	lines      atomic.Uint64
	sinkErrors atomic.Uint64
	skipped    atomic.Uint64
	warn       rate.Sometimes

	mu   sync.Mutex
	last string
}

func New(cfg Config) (*Task, error) {
	if cfg.Transfer == nil || cfg.Sink == nil {
		return nil, errors.New("drain: transfer and sink are required")
	}
	return &Task{
		xfer: cfg.Transfer,
		sink: cfg.Sink,
		warn: rate.Sometimes{First: 3, Every: 1000},
	}, nil
}

func (t *Task) Run(ctx *kernel.Context) {
	var err error
	t.xfer.Lock(ctx, func(tp **transfer.Transfer) {
		tr := *tp
		slot, e := tr.NextTransfer()
		if e != nil {
			err = e
			return
		}
		t.buf = AppendLine(t.buf[:0], slot.Samples())
		err = tr.Release(slot)
	})
	if err != nil {
		t.skipped.Add(1)
		ctx.Logger().Warn("no transfer to drain", logx.Err(err))
		return
	}

	line := string(t.buf)
	t.mu.Lock()
	t.last = line
	t.mu.Unlock()
	t.lines.Add(1)

	if err := t.sink.WriteLine(line); err != nil {
		n := t.sinkErrors.Add(1)
		t.warn.Do(func() {
			ctx.Logger().Warn("sink write failed", logx.Err(err), logx.Uint64("errors", n))
		})
	}
}

func (t *Task) Lines() uint64      { return t.lines.Load() }
func (t *Task) SinkErrors() uint64 { return t.sinkErrors.Load() }
func (t *Task) Skipped() uint64    { return t.skipped.Load() }

// LastLine returns the most recent formatted line.
func (t *Task) LastLine() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
