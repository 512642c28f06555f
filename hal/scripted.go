package hal

import (
	"fmt"
	"sync"
)

// ScriptedSource replays fixed conversion frames in order, then repeats the
// last one.
type ScriptedSource struct {
	mu     sync.Mutex
	frames [][]uint16
	seq    []AnalogChannel
	next   int
}

func NewScriptedSource(frames ...[]uint16) *ScriptedSource {
	return &ScriptedSource{frames: frames}
}

func (s *ScriptedSource) Configure(seq []AnalogChannel) error {
	if len(seq) == 0 {
		return ErrNotConfigured
	}
	s.mu.Lock()
	s.seq = append([]AnalogChannel(nil), seq...)
	s.mu.Unlock()
	return nil
}

func (s *ScriptedSource) Resolution() uint8 { return 12 }

func (s *ScriptedSource) Convert(dst []uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return ErrNotConfigured
	}
	i := min(s.next, len(s.frames)-1)
	f := s.frames[i]
	if len(f) != len(dst) {
		return fmt.Errorf("scripted adc: frame %d has %d samples, want %d", i, len(f), len(dst))
	}
	copy(dst, f)
	s.next++
	return nil
}

// Conversions returns how many frames were converted.
func (s *ScriptedSource) Conversions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
