package ticker

import (
	"errors"

	"rtsampler/hal"
	"rtsampler/internal/logx"
	"rtsampler/kernel"
)

type Config struct {
	Schedule  Schedule
	Timer     hal.PeriodicTimer
	Indicator hal.LED
	State     *kernel.Shared[State]
}

type Task struct {
	sched Schedule
	timer hal.PeriodicTimer
	led   hal.LED
	state *kernel.Shared[State]
}

func New(cfg Config) (*Task, error) {
	if err := cfg.Schedule.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timer == nil || cfg.State == nil {
		return nil, errors.New("ticker: timer and state are required")
	}
	return &Task{sched: cfg.Schedule, timer: cfg.Timer, led: cfg.Indicator, state: cfg.State}, nil
}

// Start arms the timer with the interval the current state selects. It runs
// before the dispatcher starts, so it reads the cell's initial value.
func (t *Task) Start(initial State) error {
	return t.timer.Start(t.sched.Interval(initial))
}

func (t *Task) Run(ctx *kernel.Context) {
	var (
		switched bool
		snap     State
		err      error
	)
	t.state.Lock(ctx, func(st *State) {
		switched = t.sched.Advance(st)
		t.timer.ClearPending()
		err = t.timer.Restart(t.sched.Interval(*st))
		snap = *st
	})

	if t.led != nil {
		t.led.Toggle()
	}

	log := ctx.Logger()
	if err != nil {
		log.Error("timer re-arm failed", logx.Err(err))
		return
	}
	if switched {
		log.Debug("interval changed",
			logx.Int("index", snap.Index),
			logx.Duration("interval", t.sched.Interval(snap)),
			logx.Uint64("elapsed_ms", snap.Elapsed))
	}
}
