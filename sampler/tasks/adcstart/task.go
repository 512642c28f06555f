// Package adcstart is the sampling task bound to the sample timer: it
// toggles the activity LED and starts the next conversion transfer.
package adcstart

import (
	"errors"
	"sync/atomic"

	"golang.org/x/time/rate"

	"rtsampler/hal"
	"rtsampler/internal/logx"
	"rtsampler/kernel"
	"rtsampler/sampler/transfer"
)

type Config struct {
	LED      hal.LED
	Timer    hal.PeriodicTimer
	Transfer *kernel.Shared[*transfer.Transfer]
}

type Task struct {
	led   hal.LED
	timer hal.PeriodicTimer
	xfer  *kernel.Shared[*transfer.Transfer]

	overruns atomic.Uint64
	failures atomic.Uint64
	warn     rate.Sometimes
}

func New(cfg Config) (*Task, error) {
	if cfg.Timer == nil || cfg.Transfer == nil {
		return nil, errors.New("adcstart: timer and transfer are required")
	}
	return &Task{
		led:   cfg.LED,
		timer: cfg.Timer,
		xfer:  cfg.Transfer,
		warn:  rate.Sometimes{First: 1, Every: 500},
	}, nil
}

func (t *Task) Run(ctx *kernel.Context) {
	if t.led != nil {
		t.led.Toggle()
	}

	err := kernel.Lock(ctx, t.xfer, func(tr **transfer.Transfer) error {
		return (*tr).StartNext()
	})

	switch {
	case err == nil:
	case errors.Is(err, transfer.ErrTransferOverrun):
		n := t.overruns.Add(1)
		t.warn.Do(func() {
			ctx.Logger().Warn("sample overrun, cycle skipped", logx.Uint64("overruns", n))
		})
	default:
		t.failures.Add(1)
		ctx.Logger().Error("start transfer failed", logx.Err(err))
	}

	t.timer.ClearPending()
}

// Overruns returns how many sampling periods found the previous transfer
// still unconsumed.
func (t *Task) Overruns() uint64 { return t.overruns.Load() }

func (t *Task) Failures() uint64 { return t.failures.Load() }
