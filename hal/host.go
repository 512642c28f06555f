//go:build !tinygo

package hal

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// HostConfig shapes the simulated board.
type HostConfig struct {
	Signal     SignalConfig
	DMALatency time.Duration

	Width  int
	Height int

	// Serial receives the sample stream; stdout when nil.
	Serial io.Writer
	// Console receives diagnostics; stderr when nil.
	Console io.Writer
}

// Host is the simulated board used by the host build and by tests.
type Host struct {
	console io.Writer
	led     *hostLED
	ind     *hostLED
	btn     *hostButton
	fb      *hostFramebuffer
	serial  *hostSerial
	adc     *signalSource
	dma     TransferEngine
	timers  [timerCount]PeriodicTimer
}

// NewHost returns a host HAL implementation.
func NewHost(cfg HostConfig) *Host {
	if cfg.Width <= 0 {
		cfg.Width = 240
	}
	if cfg.Height <= 0 {
		cfg.Height = 160
	}
	if cfg.Serial == nil {
		cfg.Serial = os.Stdout
	}
	if cfg.Console == nil {
		cfg.Console = os.Stderr
	}

	adc := newSignalSource(cfg.Signal)
	h := &Host{
		console: cfg.Console,
		led:     &hostLED{},
		ind:     &hostLED{},
		btn:     &hostButton{},
		fb:      newHostFramebuffer(cfg.Width, cfg.Height),
		serial:  &hostSerial{w: cfg.Serial},
		adc:     adc,
		dma:     NewSoftDMA(adc, cfg.DMALatency),
	}
	for id := TimerID(0); id < timerCount; id++ {
		h.timers[id] = NewTimer(id.String())
	}
	return h
}

func (h *Host) Console() io.Writer   { return h.console }
func (h *Host) LED() LED             { return h.led }
func (h *Host) Indicator() LED       { return h.ind }
func (h *Host) Button() Button       { return h.btn }
func (h *Host) Display() Display     { return hostDisplay{fb: h.fb} }
func (h *Host) Serial() Serial       { return h.serial }
func (h *Host) Analog() AnalogSource { return h.adc }
func (h *Host) DMA() TransferEngine  { return h.dma }

// LEDState reports the simulated activity LED level and how often it was
// toggled.
func (h *Host) LEDState() (on bool, toggles uint64) { return h.led.state() }

func (h *Host) IndicatorState() (on bool, toggles uint64) { return h.ind.state() }

// SetButton drives the simulated button level; a change raises the
// pin-change interrupt.
func (h *Host) SetButton(pressed bool) { h.btn.set(pressed) }

// SerialBytes is the number of bytes written to the simulated UART.
func (h *Host) SerialBytes() uint64 { return h.serial.bytes() }

func (h *Host) Timer(id TimerID) PeriodicTimer {
	if id >= timerCount {
		return nil
	}
	return h.timers[id]
}

// Stop halts every timer so no further interrupts are raised.
func (h *Host) Stop() {
	for _, t := range h.timers {
		t.Stop()
	}
}

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostLED struct {
	mu      sync.Mutex
	on      bool
	toggles atomic.Uint64
}

func (l *hostLED) High() {
	l.mu.Lock()
	l.on = true
	l.mu.Unlock()
}

func (l *hostLED) Low() {
	l.mu.Lock()
	l.on = false
	l.mu.Unlock()
}

func (l *hostLED) Toggle() {
	l.mu.Lock()
	l.on = !l.on
	l.mu.Unlock()
	l.toggles.Add(1)
}

func (l *hostLED) state() (bool, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on, l.toggles.Load()
}

type hostButton struct {
	mu      sync.Mutex
	pressed bool
	fn      func()
}

func (b *hostButton) Pressed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed
}

func (b *hostButton) OnEdge(fn func()) {
	b.mu.Lock()
	b.fn = fn
	b.mu.Unlock()
}

func (b *hostButton) set(pressed bool) {
	b.mu.Lock()
	changed := b.pressed != pressed
	b.pressed = pressed
	fn := b.fn
	b.mu.Unlock()

	if changed && fn != nil {
		fn()
	}
}
