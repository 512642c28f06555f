package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"rtsampler/internal/logx"
)

// Resolved holds the parsed, validated values the firmware runs with.
type Resolved struct {
	SampleInterval  time.Duration
	Intervals       []time.Duration
	Threshold       time.Duration
	StatusInterval  time.Duration
	DMALatency      time.Duration
	SinkBytesPerSec int
	ButtonDebounce  time.Duration
}

// Resolve parses every duration and checks the configuration.
func (c *Config) Resolve() (Resolved, error) {
	var (
		r    Resolved
		errs []error
		err  error
	)
	if c == nil {
		return r, errors.New("config is nil")
	}

	if _, ok := logx.ParseLevel(c.Logging.Level); !ok && strings.TrimSpace(c.Logging.Level) != "" {
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: must be console or json, got %q", c.Logging.Format))
	}

	if r.SampleInterval, err = ParseDurationField("sampling.interval", c.Sampling.Interval); err != nil {
		errs = append(errs, err)
	} else if r.SampleInterval <= 0 {
		errs = append(errs, errors.New("sampling.interval: required"))
	}
	if len(c.Sampling.Channels) == 0 {
		errs = append(errs, errors.New("sampling.channels: at least one channel is required"))
	}
	if c.Sampling.Resolution != 0 && c.Sampling.Resolution != 6 && c.Sampling.Resolution != 8 &&
		c.Sampling.Resolution != 10 && c.Sampling.Resolution != 12 {
		errs = append(errs, fmt.Errorf("sampling.resolution: %d bits not supported", c.Sampling.Resolution))
	}

	if len(c.Adaptive.Intervals) == 0 {
		errs = append(errs, errors.New("adaptive.intervals: at least one interval is required"))
	}
	for i, raw := range c.Adaptive.Intervals {
		d, err := ParseMillisField(fmt.Sprintf("adaptive.intervals[%d]", i), raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		r.Intervals = append(r.Intervals, d)
	}
	if r.Threshold, err = ParseMillisField("adaptive.threshold", c.Adaptive.Threshold); err != nil {
		errs = append(errs, err)
	}

	if r.StatusInterval, err = ParseDurationOrDefault("status.interval", c.Status.Interval, 250*time.Millisecond); err != nil {
		errs = append(errs, err)
	}
	if r.DMALatency, err = ParseDurationField("host.dma_latency", c.Host.DMALatency); err != nil {
		errs = append(errs, err)
	}

	if c.Button.Enabled {
		if r.ButtonDebounce, err = ParseDurationOrDefault("button.debounce", c.Button.Debounce, 20*time.Millisecond); err != nil {
			errs = append(errs, err)
		}
		if c.Button.Limit < 0 {
			errs = append(errs, errors.New("button.limit: must be >= 0"))
		}
	}

	if c.Sink.Baud < 0 {
		errs = append(errs, errors.New("sink.baud: must be >= 0"))
	}
	r.SinkBytesPerSec = c.Sink.Baud / 10
	if c.Sink.QueueLen < 0 {
		errs = append(errs, errors.New("sink.queue_len: must be >= 0"))
	}

	p := c.Priorities
	for _, f := range []struct {
		name string
		v    uint8
	}{{"status", p.Status}, {"adc_start", p.ADCStart}, {"ticker", p.Ticker}, {"drain", p.Drain}, {"button", p.Button}} {
		if f.v == 0 && (f.name != "button" || c.Button.Enabled) {
			errs = append(errs, fmt.Errorf("priorities.%s: must be at least 1", f.name))
		}
	}

	switch c.Host.Signal.Wave {
	case "", "ramp", "sine":
	default:
		errs = append(errs, fmt.Errorf("host.signal.wave: must be ramp or sine, got %q", c.Host.Signal.Wave))
	}

	if err := errors.Join(errs...); err != nil {
		return Resolved{}, err
	}
	return r, nil
}

// Validate reports every problem Resolve finds.
func (c *Config) Validate() error {
	_, err := c.Resolve()
	return err
}
