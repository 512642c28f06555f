//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RunFunc runs the firmware on h until ctx is done.
type RunFunc func(ctx context.Context, h HAL) error

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Hz    int
	Ticks uint64
}

// RunHeadless runs the firmware without opening a window. With Ticks > 0 it
// stops after Ticks periods of 1/Hz.
func RunHeadless(ctx context.Context, h *Host, run RunFunc, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer h.Stop()

	done := make(chan error, 1)
	go func() { done <- run(ctx, h) }()

	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case err := <-done:
			return quietCancel(err)
		case <-t.C:
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				cancel()
				return quietCancel(<-done)
			}
		}
	}
}

func quietCancel(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
