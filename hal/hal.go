package hal

import (
	"errors"
	"io"
	"time"
)

var (
	ErrNotImplemented = errors.New("not implemented")
	ErrNotArmed       = errors.New("dma: no destination armed")
	ErrEngineBusy     = errors.New("dma: transfer in flight")
	ErrNotConfigured  = errors.New("adc: no channel sequence configured")
)

// LED is a minimal output pin abstraction.
type LED interface {
	High()
	Low()
	Toggle()
}

// Button is a momentary push button whose level changes raise a pin-change
// interrupt. Contacts bounce; debouncing is left to the task.
type Button interface {
	Pressed() bool
	// OnEdge sets the pin-change interrupt handler; it must only pend work.
	OnEdge(fn func())
}

// AnalogChannel is one entry of an ADC scan sequence.
type AnalogChannel struct {
	Name         string
	Pin          uint8
	SampleCycles uint16
}

// AnalogSource converts a configured sequence of analog channels.
type AnalogSource interface {
	// Configure sets the scan sequence. Results are produced in sequence order.
	Configure(seq []AnalogChannel) error
	// Resolution returns the converter resolution in bits.
	Resolution() uint8
	// Convert runs one scan, writing one sample per channel into dst.
	Convert(dst []uint16) error
}

// TransferEngine moves conversion results into memory without task
// involvement and raises an interrupt when the destination is full.
type TransferEngine interface {
	// Arm points the engine at dst. It fails while a transfer is in flight.
	Arm(dst []uint16) error
	// Trigger starts a conversion whose results fill the armed destination.
	Trigger() error
	// Complete reports whether the armed destination has been filled.
	Complete() bool
	// OnComplete sets the transfer-complete interrupt handler. It is called
	// in interrupt context and must only pend work.
	OnComplete(fn func())
}

// TimerID selects one of the board's periodic timers.
type TimerID uint8

const (
	TimerSample   TimerID = iota // TIM2: conversion trigger
	TimerAdaptive                // TIM3: adaptive interval exemplar
	TimerStatus                  // TIM5: status page refresh

	timerCount
)

func (id TimerID) String() string {
	switch id {
	case TimerSample:
		return "TIM2"
	case TimerAdaptive:
		return "TIM3"
	case TimerStatus:
		return "TIM5"
	default:
		return "TIM?"
	}
}

// PeriodicTimer fires an update interrupt every interval until stopped.
type PeriodicTimer interface {
	Start(interval time.Duration) error
	// Restart re-arms the timer with a new interval. It may be called from
	// the timer's own interrupt handler.
	Restart(interval time.Duration) error
	ClearPending()
	Pending() bool
	Interval() time.Duration
	// OnExpire sets the update interrupt handler; it must only pend work.
	OnExpire(fn func())
	Stop()
}

// Serial is the byte transport behind the output sink.
type Serial interface {
	io.Writer
}

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// HAL provides the only contact point between the firmware and the board.
type HAL interface {
	Console() io.Writer
	// LED is the sampling activity LED.
	LED() LED
	// Indicator is the LED driven by the adaptive-interval timer task.
	Indicator() LED
	// Button is the user push button (B1 on PA0).
	Button() Button
	Display() Display
	Serial() Serial
	Analog() AnalogSource
	DMA() TransferEngine
	Timer(id TimerID) PeriodicTimer
}
