//go:build !tinygo

package hal

import (
	"fmt"
	"math"
	"sync"
)

// Waveform selects the host signal generator shape.
type Waveform string

const (
	WaveRamp Waveform = "ramp"
	WaveSine Waveform = "sine"
)

// SignalConfig describes the simulated analog inputs. Channel i starts at
// Base[i] (the last entry repeats for extra channels).
type SignalConfig struct {
	Wave       Waveform
	Base       []uint16
	Step       uint16
	Amplitude  uint16
	Period     uint32
	Resolution uint8
}

type signalSource struct {
	mu  sync.Mutex
	cfg SignalConfig
	seq []AnalogChannel
	n   uint64
}

func newSignalSource(cfg SignalConfig) *signalSource {
	if cfg.Wave == "" {
		cfg.Wave = WaveRamp
	}
	if cfg.Resolution == 0 || cfg.Resolution > 16 {
		cfg.Resolution = 10
	}
	if cfg.Period == 0 {
		cfg.Period = 64
	}
	return &signalSource{cfg: cfg}
}

func (s *signalSource) Configure(seq []AnalogChannel) error {
	if len(seq) == 0 {
		return ErrNotConfigured
	}
	if err := checkSampleTimes(seq); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = append([]AnalogChannel(nil), seq...)
	s.n = 0
	return nil
}

func (s *signalSource) Resolution() uint8 { return s.cfg.Resolution }

func (s *signalSource) Convert(dst []uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.seq) == 0 {
		return ErrNotConfigured
	}
	if len(dst) != len(s.seq) {
		return fmt.Errorf("adc: destination holds %d samples, sequence has %d", len(dst), len(s.seq))
	}
	for i := range dst {
		dst[i] = s.sample(i)
	}
	s.n++
	return nil
}

func (s *signalSource) sample(ch int) uint16 {
	full := uint32(1)<<s.cfg.Resolution - 1
	var base uint16
	if len(s.cfg.Base) > 0 {
		base = s.cfg.Base[min(ch, len(s.cfg.Base)-1)]
	}

	switch s.cfg.Wave {
	case WaveSine:
		phase := 2 * math.Pi * float64(s.n%uint64(s.cfg.Period)) / float64(s.cfg.Period)
		v := float64(base) + float64(s.cfg.Amplitude)*math.Sin(phase+float64(ch)*math.Pi/2)
		return uint16(math.Max(0, math.Min(float64(full), math.Round(v))))
	default:
		v := uint64(base) + uint64(s.cfg.Step)*s.n
		return uint16(v % (uint64(full) + 1))
	}
}
