package hal

import (
	"fmt"
	"sync"
	"time"
)

type goTimer struct {
	mu       sync.Mutex
	name     string
	interval time.Duration
	t        *time.Timer
	gen      uint64
	pending  bool
	fn       func()
}

// NewTimer returns a periodic timer driven by the Go runtime clock.
func NewTimer(name string) PeriodicTimer {
	return &goTimer{name: name}
}

func (tm *goTimer) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("timer %s: invalid interval %s", tm.name, interval)
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.armLocked(interval)
	return nil
}

func (tm *goTimer) Restart(interval time.Duration) error {
	return tm.Start(interval)
}

func (tm *goTimer) armLocked(interval time.Duration) {
	if tm.t != nil {
		tm.t.Stop()
	}
	tm.gen++
	gen := tm.gen
	tm.interval = interval
	tm.t = time.AfterFunc(interval, func() { tm.expire(gen) })
}

func (tm *goTimer) expire(gen uint64) {
	tm.mu.Lock()
	if gen != tm.gen {
		tm.mu.Unlock()
		return
	}
	tm.pending = true
	tm.t.Reset(tm.interval)
	fn := tm.fn
	tm.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (tm *goTimer) ClearPending() {
	tm.mu.Lock()
	tm.pending = false
	tm.mu.Unlock()
}

func (tm *goTimer) Pending() bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.pending
}

func (tm *goTimer) Interval() time.Duration {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.interval
}

func (tm *goTimer) OnExpire(fn func()) {
	tm.mu.Lock()
	tm.fn = fn
	tm.mu.Unlock()
}

func (tm *goTimer) Stop() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.gen++
	if tm.t != nil {
		tm.t.Stop()
		tm.t = nil
	}
}

// ManualTimer is a PeriodicTimer that only expires when Fire is called.
// It records every interval it was armed with.
type ManualTimer struct {
	mu       sync.Mutex
	running  bool
	interval time.Duration
	pending  bool
	armed    []time.Duration
	fn       func()
}

func NewManualTimer() *ManualTimer { return &ManualTimer{} }

func (m *ManualTimer) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("manual timer: invalid interval %s", interval)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
	m.interval = interval
	m.armed = append(m.armed, interval)
	return nil
}

func (m *ManualTimer) Restart(interval time.Duration) error { return m.Start(interval) }

// Fire raises the update interrupt. It reports false if the timer is stopped.
func (m *ManualTimer) Fire() bool {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return false
	}
	m.pending = true
	fn := m.fn
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
	return true
}

func (m *ManualTimer) ClearPending() {
	m.mu.Lock()
	m.pending = false
	m.mu.Unlock()
}

func (m *ManualTimer) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

func (m *ManualTimer) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// Armed returns every interval passed to Start or Restart, oldest first.
func (m *ManualTimer) Armed() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.armed...)
}

func (m *ManualTimer) OnExpire(fn func()) {
	m.mu.Lock()
	m.fn = fn
	m.mu.Unlock()
}

func (m *ManualTimer) Stop() {
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
}
