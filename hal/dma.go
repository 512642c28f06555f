package hal

import (
	"sync"
	"time"
)

type softDMA struct {
	mu      sync.Mutex
	src     AnalogSource
	latency time.Duration

	dst      []uint16
	inFlight bool
	complete bool
	onDone   func()
}

// NewSoftDMA returns a transfer engine that fills its destination from src.
// With latency 0 the conversion completes inside Trigger; otherwise it
// completes on a timer goroutine after latency.
func NewSoftDMA(src AnalogSource, latency time.Duration) TransferEngine {
	return &softDMA{src: src, latency: latency}
}

func (d *softDMA) Arm(dst []uint16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight {
		return ErrEngineBusy
	}
	if len(dst) == 0 {
		return ErrNotArmed
	}
	d.dst = dst
	d.complete = false
	return nil
}

func (d *softDMA) Trigger() error {
	d.mu.Lock()
	if d.dst == nil {
		d.mu.Unlock()
		return ErrNotArmed
	}
	if d.inFlight {
		d.mu.Unlock()
		return ErrEngineBusy
	}
	d.inFlight = true
	d.complete = false
	dst := d.dst
	latency := d.latency
	d.mu.Unlock()

	if latency <= 0 {
		return d.finish(dst)
	}
	time.AfterFunc(latency, func() { _ = d.finish(dst) })
	return nil
}

// finish runs the conversion and raises transfer-complete. A failed
// conversion raises nothing, as a stalled stream would not.
func (d *softDMA) finish(dst []uint16) error {
	err := d.src.Convert(dst)

	d.mu.Lock()
	d.inFlight = false
	d.complete = err == nil
	fn := d.onDone
	d.mu.Unlock()

	if err != nil {
		return err
	}
	if fn != nil {
		fn()
	}
	return nil
}

func (d *softDMA) Complete() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.complete
}

func (d *softDMA) OnComplete(fn func()) {
	d.mu.Lock()
	d.onDone = fn
	d.mu.Unlock()
}
