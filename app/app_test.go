//go:build !tinygo

package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"rtsampler/hal"
	"rtsampler/internal/config"
	"rtsampler/kernel"
	"rtsampler/sampler/sink"
)

// manualBoard is the host board with every timer under test control.
type manualBoard struct {
	*hal.Host
	timers map[hal.TimerID]*hal.ManualTimer
}

func newManualBoard(console io.Writer) *manualBoard {
	b := &manualBoard{
		Host: hal.NewHost(hal.HostConfig{
			Signal:  hal.SignalConfig{Wave: hal.WaveRamp, Base: []uint16{100, 200}, Step: 1},
			Serial:  io.Discard,
			Console: console,
		}),
		timers: map[hal.TimerID]*hal.ManualTimer{},
	}
	for _, id := range []hal.TimerID{hal.TimerSample, hal.TimerAdaptive, hal.TimerStatus} {
		b.timers[id] = hal.NewManualTimer()
	}
	return b
}

func (b *manualBoard) Timer(id hal.TimerID) hal.PeriodicTimer { return b.timers[id] }

func fireAndDispatch(t *testing.T, sys *System, tm *hal.ManualTimer) {
	t.Helper()
	if !tm.Fire() {
		t.Fatalf("timer not running")
	}
	if err := sys.Dispatcher().DispatchPending(); err != nil {
		t.Fatalf("DispatchPending: %v", err)
	}
}

func TestThreeCyclesEndToEnd(t *testing.T) {
	board := newManualBoard(io.Discard)
	rec := &sink.Recorder{}
	sys, err := New(board, Options{Sink: rec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sys.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 3; i++ {
		fireAndDispatch(t, sys, board.timers[hal.TimerSample])
	}

	want := []string{"00100 -- 00200", "00101 -- 00201", "00102 -- 00202"}
	got := rec.Lines()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("lines %q, want %q", got, want)
	}
	if _, toggles := board.LEDState(); toggles != 3 {
		t.Fatalf("LED toggled %d times", toggles)
	}

	fireAndDispatch(t, sys, board.timers[hal.TimerStatus])
	snap := sys.Snapshot()
	if snap == nil || snap.Line != want[2] || snap.Lines != 3 || snap.Transfer.Completed != 3 {
		t.Fatalf("snapshot %+v", snap)
	}

	ds := sys.Dispatcher().Stats()
	if ds.Dispatched["adc_start"] != 3 || ds.Dispatched["drain"] != 3 || ds.Dispatched["status"] != 1 {
		t.Fatalf("dispatch stats %+v", ds.Dispatched)
	}
}

func TestResourceCeilings(t *testing.T) {
	sys, err := New(newManualBoard(io.Discard), Options{Sink: &sink.Recorder{}})
	if err != nil {
		t.Fatal(err)
	}
	if c := sys.xfer.Ceiling(); c != 3 {
		t.Fatalf("transfer ceiling %d, want 3", c)
	}
	if c := sys.timerState.Ceiling(); c != 2 {
		t.Fatalf("timer state ceiling %d, want 2", c)
	}
}

func TestAdaptiveIntervalThroughDispatcher(t *testing.T) {
	board := newManualBoard(io.Discard)
	sys, err := New(board, Options{Sink: &sink.Recorder{}})
	if err != nil {
		t.Fatal(err)
	}
	if err := sys.Start(); err != nil {
		t.Fatal(err)
	}
	tm := board.timers[hal.TimerAdaptive]
	for i := 0; i < 99; i++ {
		fireAndDispatch(t, sys, tm)
	}
	if tm.Interval() != 50*time.Millisecond {
		t.Fatalf("interval after 99 ticks %s", tm.Interval())
	}
	fireAndDispatch(t, sys, tm)
	if tm.Interval() != 500*time.Millisecond {
		t.Fatalf("interval after 100 ticks %s", tm.Interval())
	}
	if _, toggles := board.IndicatorState(); toggles != 100 {
		t.Fatalf("indicator toggled %d times", toggles)
	}
}

type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestSinkPanicHaltsWithFatalScreen(t *testing.T) {
	console := &syncBuffer{}
	board := newManualBoard(console)
	var got kernel.PanicInfo
	calls := 0
	boom := sink.Func(func(string) error { panic(errors.New("uart wedged")) })
	sys, err := New(board, Options{Sink: boom, OnPanic: func(info kernel.PanicInfo) { got = info; calls++ }})
	if err != nil {
		t.Fatal(err)
	}
	if err := sys.Start(); err != nil {
		t.Fatal(err)
	}

	board.timers[hal.TimerSample].Fire()
	err = sys.Dispatcher().DispatchPending()
	if !errors.Is(err, kernel.ErrHalted) || !strings.Contains(err.Error(), "uart wedged") {
		t.Fatalf("DispatchPending: %v", err)
	}
	if calls != 1 || got.Task != "drain" {
		t.Fatalf("panic handler calls=%d info=%+v", calls, got)
	}
	if out := console.String(); !strings.Contains(out, "rtsampler panic:") || !strings.Contains(out, "task: drain") {
		t.Fatalf("console %q", out)
	}
	if board.timers[hal.TimerSample].Fire() {
		t.Fatalf("sample timer still running after halt")
	}
	if r := sys.Dispatcher().Pend(VecSample); r != kernel.PendErrHalted {
		t.Fatalf("Pend after halt: %s", r)
	}
}

func TestRunOnHostTimers(t *testing.T) {
	h := hal.NewHost(hal.HostConfig{
		Signal:  hal.SignalConfig{Wave: hal.WaveRamp, Base: []uint16{100, 200}, Step: 1},
		Serial:  io.Discard,
		Console: io.Discard,
	})
	cfg := config.Default()
	cfg.Sampling.Interval = "2ms"
	rec := &sink.Recorder{}
	sys, err := New(h, Options{Config: cfg, Sink: rec})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sys.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for len(rec.Lines()) < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: %v", err)
	}

	lines := rec.Lines()
	if len(lines) < 3 {
		t.Fatalf("only %d lines", len(lines))
	}
	want := []string{"00100 -- 00200", "00101 -- 00201", "00102 -- 00202"}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestSerialQueueGetsTerminatedLines(t *testing.T) {
	serial := &syncBuffer{}
	h := hal.NewHost(hal.HostConfig{
		Signal:  hal.SignalConfig{Wave: hal.WaveRamp, Base: []uint16{100, 200}, Step: 1},
		Serial:  serial,
		Console: io.Discard,
	})
	cfg := config.Default()
	cfg.Sampling.Interval = "2ms"
	sys, err := New(h, Options{Config: cfg})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sys.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(serial.String(), "00101 -- 00201\r\n") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
	if !strings.HasPrefix(serial.String(), "00100 -- 00200\r\n00101 -- 00201\r\n") {
		t.Fatalf("serial output %q", serial.String())
	}
	if qs := sys.QueueStats(); len(qs) != 1 || qs[0].Written < 2 {
		t.Fatalf("queue stats %+v", qs)
	}
	if n := h.SerialBytes(); n != uint64(len(serial.String())) {
		t.Fatalf("serial bytes %d, buffer holds %d", n, len(serial.String()))
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Priorities.Drain = 0
	if _, err := New(newManualBoard(io.Discard), Options{Config: cfg}); err == nil {
		t.Fatalf("expected config error")
	}
}

func TestButtonPressesReachSink(t *testing.T) {
	cfg := config.Default()
	cfg.Button.Debounce = "1ns"
	cfg.Button.Limit = 2
	board := newManualBoard(io.Discard)
	rec := &sink.Recorder{}
	sys, err := New(board, Options{Config: cfg, Sink: rec})
	if err != nil {
		t.Fatal(err)
	}
	if err := sys.Start(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		for _, level := range []bool{true, false} {
			board.SetButton(level)
			if err := sys.Dispatcher().DispatchPending(); err != nil {
				t.Fatal(err)
			}
		}
	}

	want := []string{"Button Press 00 Woohoo!!", "Button Press 01 Woohoo!!", "Deactivating program..."}
	if got := rec.Lines(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("lines %q, want %q", got, want)
	}
	if n := sys.Dispatcher().Stats().Dispatched["button"]; n != 6 {
		t.Fatalf("button dispatched %d times, want 6", n)
	}

	fireAndDispatch(t, sys, board.timers[hal.TimerStatus])
	if snap := sys.Snapshot(); snap == nil || snap.Presses != 2 || snap.Resolution != 10 {
		t.Fatalf("snapshot %+v", snap)
	}
}
