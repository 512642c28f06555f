// Package button counts debounced presses of the user button and reports
// each one on the serial sink. After a configured number of presses it
// stops responding.
package button

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"rtsampler/hal"
	"rtsampler/internal/logx"
	"rtsampler/kernel"
	"rtsampler/sampler/sink"
)

type Config struct {
	Button   hal.Button
	Sink     sink.Sink
	Debounce time.Duration
	// Limit deactivates the task after that many presses; 0 never does.
	Limit    int
	Now      func() time.Time
}

type Task struct {
	btn   hal.Button
	out   sink.Sink
	limit int
	now   func() time.Time
	deb   Debouncer

	presses  uint8
	total    atomic.Uint64
	inactive atomic.Bool
}

func New(cfg Config) (*Task, error) {
	if cfg.Button == nil || cfg.Sink == nil {
		return nil, errors.New("button: button and sink are required")
	}
	if cfg.Limit < 0 {
		return nil, fmt.Errorf("button: limit %d is negative", cfg.Limit)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Task{
		btn:   cfg.Button,
		out:   cfg.Sink,
		limit: cfg.Limit,
		now:   now,
		deb:   Debouncer{Window: cfg.Debounce},
	}, nil
}

func (t *Task) Run(ctx *kernel.Context) {
	if t.inactive.Load() {
		return
	}
	if !t.deb.Update(t.btn.Pressed(), t.now()) {
		return
	}

	t.write(ctx, fmt.Sprintf("Button Press %02d Woohoo!!", t.presses))
	t.presses++
	n := t.total.Add(1)

	if t.limit > 0 && n >= uint64(t.limit) {
		t.write(ctx, "Deactivating program...")
		t.inactive.Store(true)
		ctx.Logger().Info("button deactivated", logx.Uint64("presses", n))
	}
}

func (t *Task) write(ctx *kernel.Context, line string) {
	if err := t.out.WriteLine(line); err != nil {
		ctx.Logger().Warn("button line dropped", logx.Err(err))
	}
}

// Presses is the number of debounced presses counted while active.
func (t *Task) Presses() uint64 { return t.total.Load() }
