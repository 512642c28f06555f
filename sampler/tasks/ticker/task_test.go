package ticker

import (
	"testing"
	"time"

	"rtsampler/hal"
	"rtsampler/kernel"
)

type countLED struct{ toggles int }

func (l *countLED) High()   {}
func (l *countLED) Low()    {}
func (l *countLED) Toggle() { l.toggles++ }

func TestTaskReArmsTimer(t *testing.T) {
	d := kernel.New()
	timer := hal.NewManualTimer()
	led := &countLED{}
	cell := kernel.NewShared("timer state", State{})

	task, err := New(Config{Schedule: twoSpeed, Timer: timer, Indicator: led, State: cell})
	if err != nil {
		t.Fatal(err)
	}
	const vec kernel.Vector = 3
	if _, err := d.Register(kernel.TaskSpec{Name: "ticker", Priority: 2, Binds: vec, Shares: []kernel.Resource{cell}, Task: task}); err != nil {
		t.Fatal(err)
	}
	timer.OnExpire(func() { d.Pend(vec) })
	if err := task.Start(State{}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 101; i++ {
		if !timer.Fire() {
			t.Fatalf("timer stopped at %d", i)
		}
		if err := d.DispatchPending(); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
		if timer.Pending() {
			t.Fatalf("pending flag left set after tick %d", i+1)
		}
	}

	armed := timer.Armed()
	// Start plus one re-arm per tick.
	if len(armed) != 102 {
		t.Fatalf("armed %d times", len(armed))
	}
	if armed[0] != 50*time.Millisecond || armed[99] != 50*time.Millisecond {
		t.Fatalf("early intervals %s %s", armed[0], armed[99])
	}
	if armed[100] != 500*time.Millisecond || armed[101] != 500*time.Millisecond {
		t.Fatalf("re-arm after tick 100: %s", armed[100])
	}
	if led.toggles != 101 {
		t.Fatalf("led toggled %d times", led.toggles)
	}
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(Config{Schedule: Schedule{}, Timer: hal.NewManualTimer(), State: kernel.NewShared("s", State{})})
	if err == nil {
		t.Fatalf("expected error")
	}
}
