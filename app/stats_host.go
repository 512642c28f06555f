//go:build !tinygo

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"rtsampler/internal/logx"
)

// reportTimeout bounds how long stopping waits for a running report.
const reportTimeout = 2 * time.Second

// StartReporter logs pipeline statistics on the cron schedule spec and,
// when systemd asks for it, pings the watchdog while the dispatcher is
// healthy. An empty spec only runs the watchdog. The returned function
// stops both.
func (s *System) StartReporter(ctx context.Context, spec string) (stop func(), err error) {
	c := cron.New(cron.WithLogger(cron.DiscardLogger))
	if spec != "" {
		if _, err := c.AddFunc(spec, s.report); err != nil {
			return nil, fmt.Errorf("app: stats schedule %q: %w", spec, err)
		}
	}
	if every, err := daemon.SdWatchdogEnabled(false); err == nil && every > 0 {
		if _, err := c.AddFunc(fmt.Sprintf("@every %s", every/2), s.watchdog); err != nil {
			return nil, err
		}
		s.log.Info("systemd watchdog enabled", logx.Duration("interval", every))
	}
	c.Start()

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-ctx.Done()
		select {
		case <-c.Stop().Done():
		case <-time.After(reportTimeout):
		}
	}()
	return cancel, nil
}

func (s *System) report() {
	ds := s.d.Stats()
	fields := []logx.Field{
		logx.Uint64("coalesced", ds.Coalesced),
		logx.Int("max_depth", ds.MaxDepth),
	}
	for name, n := range ds.Dispatched {
		fields = append(fields, logx.Uint64("runs_"+name, n))
	}
	if snap := s.Snapshot(); snap != nil {
		fields = append(fields,
			logx.String("last", snap.Line),
			logx.Uint64("lines", snap.Lines),
			logx.Uint64("overruns", snap.Overruns),
			logx.Uint64("dropped", snap.Dropped),
			logx.Uint64("sink_errors", snap.SinkErrors),
			logx.Int("interval_index", snap.Ticker.Index),
		)
	}
	s.log.Info("stats", fields...)
}

func (s *System) watchdog() {
	if s.d.Err() != nil {
		return
	}
	_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
}

// NotifyReady tells systemd the firmware is sampling.
func NotifyReady(log logx.Logger) {
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warn("sd_notify ready failed", logx.Err(err))
	} else if ok {
		log.Debug("sd_notify ready sent")
	}
}

// NotifyStopping tells systemd shutdown has begun.
func NotifyStopping() {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
}
