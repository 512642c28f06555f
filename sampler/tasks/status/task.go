// Package status is the lowest-priority periodic task. It snapshots the
// shared state of the other tasks and renders it on the display.
package status

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"rtsampler/hal"
	"rtsampler/internal/logx"
	"rtsampler/kernel"
	"rtsampler/sampler/display"
	"rtsampler/sampler/tasks/drain"
	"rtsampler/sampler/tasks/ticker"
	"rtsampler/sampler/transfer"
)

// Snapshot is one consistent view of the pipeline.
type Snapshot struct {
	Seq uint64

	Ticker   ticker.State
	Interval time.Duration

	TransferState transfer.State
	Transfer      transfer.Stats
	Last          []uint16

	Line       string
	Lines      uint64
	SinkErrors uint64
	Overruns   uint64
	Dropped    uint64

	Resolution uint8
	Presses    uint64
}

func (s *Snapshot) Text(title string) []string {
	return []string{
		title,
		"last  " + drain.FormatLine(s.Last),
		fmt.Sprintf("tick  #%d %s  %dms", s.Ticker.Index, s.Interval, s.Ticker.Elapsed),
		fmt.Sprintf("xfer  %s  %d/%d", s.TransferState, s.Transfer.Completed, s.Transfer.Started),
		fmt.Sprintf("ovr %d  drop %d  err %d", s.Overruns, s.Dropped, s.SinkErrors),
		fmt.Sprintf("adc %d-bit  btn %d", s.Resolution, s.Presses),
	}
}

type Config struct {
	Title      string
	Timer      hal.PeriodicTimer
	Schedule   ticker.Schedule
	TimerState *kernel.Shared[ticker.State]
	Transfer   *kernel.Shared[*transfer.Transfer]
	Display    *display.FB
	// Collect adds counters kept outside the shared cells. It must not
	// block or lock resources.
	Collect func(*Snapshot)
}

type Task struct {
	cfg    Config
	con    *display.Console
	seq    uint64
	latest atomic.Pointer[Snapshot]
}

func New(cfg Config) (*Task, error) {
	if cfg.Timer == nil || cfg.TimerState == nil || cfg.Transfer == nil {
		return nil, errors.New("status: timer and shared state are required")
	}
	if err := cfg.Schedule.Validate(); err != nil {
		return nil, err
	}
	if cfg.Display == nil {
		cfg.Display = display.New(nil)
	}
	if cfg.Title == "" {
		cfg.Title = "rtsampler"
	}
	return &Task{cfg: cfg}, nil
}

func (t *Task) Run(ctx *kernel.Context) {
	t.seq++
	snap := &Snapshot{Seq: t.seq}

	t.cfg.TimerState.Lock(ctx, func(st *ticker.State) {
		snap.Ticker = *st
	})
	snap.Interval = t.cfg.Schedule.Interval(snap.Ticker)

	t.cfg.Transfer.Lock(ctx, func(tp **transfer.Transfer) {
		tr := *tp
		snap.TransferState = tr.State()
		snap.Transfer = tr.Stats()
		snap.Last = append([]uint16(nil), tr.Last()...)
	})
	if t.cfg.Collect != nil {
		t.cfg.Collect(snap)
	}
	t.latest.Store(snap)
	t.cfg.Timer.ClearPending()

	t.render(snap)

	ctx.Logger().Debug("status",
		logx.Uint64("seq", snap.Seq),
		logx.Int("interval_index", snap.Ticker.Index),
		logx.Uint64("elapsed_ms", snap.Ticker.Elapsed),
		logx.Stringer("transfer", snap.TransferState),
		logx.Uint64("completed", snap.Transfer.Completed),
		logx.Uint64("overruns", snap.Overruns),
	)
}

func (t *Task) render(s *Snapshot) {
	if !t.cfg.Display.Usable() {
		return
	}
	if t.con == nil {
		t.con = display.NewConsole(t.cfg.Display)
	} else {
		t.con.Reset()
	}
	_ = t.con.Show(s.Text(t.cfg.Title)...)
}

// Latest returns the most recent snapshot, or nil before the first run.
func (t *Task) Latest() *Snapshot { return t.latest.Load() }
