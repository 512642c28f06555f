//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rtsampler/app"
	"rtsampler/hal"
	"rtsampler/internal/buildinfo"
	"rtsampler/internal/config"
	"rtsampler/internal/logx"
	"rtsampler/sampler/sink"
	"rtsampler/sampler/sink/capture"
)

func main() {
	var (
		cfgPath  string
		headless bool
		hz       int
		ticks    uint64
		capPath  string
	)
	flag.StringVar(&cfgPath, "config", "", "YAML or JSON config file; defaults apply when empty.")
	flag.BoolVar(&headless, "headless", false, "Run without a window.")
	flag.IntVar(&hz, "hz", 60, "Frame rate of the window, tick rate in headless mode.")
	flag.Uint64Var(&ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.StringVar(&capPath, "capture", "", "Also record every line to this sqlite file; overrides sink.capture.")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfgPath, headless, hz, ticks, capPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// capturePath picks the capture file: the flag wins over the config.
func capturePath(flagPath string, cfg *config.Config) string {
	if flagPath != "" {
		return flagPath
	}
	return cfg.Sink.Capture
}

func run(ctx context.Context, cfgPath string, headless bool, hz int, ticks uint64, capPath string) error {
	cfg := config.Default()
	var mgr *config.Manager
	if cfgPath != "" {
		mgr = config.NewManager(cfgPath)
		loaded, err := mgr.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = loaded
	}
	res, err := cfg.Resolve()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	svc, log := logx.New(logx.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}, os.Stderr)
	log.Info("rtsampler starting", logx.String("build", buildinfo.String()))

	h := hal.NewHost(hal.HostConfig{
		Signal: hal.SignalConfig{
			Wave:       hal.Waveform(cfg.Host.Signal.Wave),
			Base:       cfg.Host.Signal.Base,
			Step:       cfg.Host.Signal.Step,
			Amplitude:  cfg.Host.Signal.Amplitude,
			Period:     cfg.Host.Signal.Period,
			Resolution: cfg.Sampling.Resolution,
		},
		DMALatency: res.DMALatency,
		Width:      cfg.Host.Width,
		Height:     cfg.Host.Height,
	})

	opts := app.Options{Config: cfg, Log: log}
	if capPath = capturePath(capPath, cfg); capPath != "" {
		store, err := capture.Open(ctx, capPath, len(cfg.Sampling.Channels), buildinfo.Short())
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn("capture close failed", logx.Err(err))
			}
		}()
		log.Info("capturing", logx.String("path", capPath), logx.Uint64("capture", uint64(store.ID())))
		opts.Extra = []sink.Sink{store}
	}

	sys, err := app.New(h, opts)
	if err != nil {
		return err
	}

	if mgr != nil {
		mgr.SetLogger(log.With(logx.String("component", "config")))
		updates := mgr.Subscribe(1)
		go func() {
			if err := mgr.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("config watch stopped", logx.Err(err))
			}
		}()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case next := <-updates:
					svc.Apply(logx.Config{Level: next.Logging.Level, Format: next.Logging.Format})
					if err := sys.ApplyConfig(next); err != nil {
						log.Warn("config rejected", logx.Err(err))
					}
				}
			}
		}()
	}

	stopReporter, err := sys.StartReporter(ctx, cfg.Stats.Schedule)
	if err != nil {
		return err
	}
	defer stopReporter()

	app.NotifyReady(log)
	defer app.NotifyStopping()

	firmware := func(ctx context.Context, _ hal.HAL) error { return sys.Run(ctx) }
	if headless {
		err = hal.RunHeadless(ctx, h, firmware, hal.HeadlessConfig{Hz: hz, Ticks: ticks})
	} else {
		err = hal.RunWindow(ctx, h, firmware, hz)
	}
	if err != nil {
		return err
	}
	log.Info("rtsampler stopped", logx.Any("queues", sys.QueueStats()))
	return nil
}
