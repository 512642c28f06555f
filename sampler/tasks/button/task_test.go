package button

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"rtsampler/kernel"
	"rtsampler/sampler/sink"
)

type fakeButton struct {
	pressed bool
	fn      func()
}

func (b *fakeButton) Pressed() bool    { return b.pressed }
func (b *fakeButton) OnEdge(fn func()) { b.fn = fn }

func (b *fakeButton) set(pressed bool) {
	if b.pressed != pressed {
		b.pressed = pressed
		b.fn()
	}
}

type clock struct{ now time.Time }

func (c *clock) advance(d time.Duration) { c.now = c.now.Add(d) }

func setup(t *testing.T, limit int) (*kernel.Dispatcher, *fakeButton, *clock, *sink.Recorder, *Task) {
	t.Helper()
	btn := &fakeButton{}
	clk := &clock{now: time.Unix(100, 0)}
	rec := &sink.Recorder{}
	task, err := New(Config{
		Button:   btn,
		Sink:     rec,
		Debounce: 20 * time.Millisecond,
		Limit:    limit,
		Now:      func() time.Time { return clk.now },
	})
	if err != nil {
		t.Fatal(err)
	}
	d := kernel.New()
	if _, err := d.Register(kernel.TaskSpec{Name: "button", Priority: 1, Binds: 6, Task: task}); err != nil {
		t.Fatal(err)
	}
	btn.OnEdge(func() { d.Pend(6) })
	return d, btn, clk, rec, task
}

// press runs a bouncy press and release through the dispatcher.
func press(t *testing.T, d *kernel.Dispatcher, btn *fakeButton, clk *clock) {
	t.Helper()
	for _, level := range []bool{true, false, true} {
		btn.set(level)
		if err := d.DispatchPending(); err != nil {
			t.Fatal(err)
		}
		clk.advance(time.Millisecond)
	}
	clk.advance(50 * time.Millisecond)
	for _, level := range []bool{false, true, false} {
		btn.set(level)
		if err := d.DispatchPending(); err != nil {
			t.Fatal(err)
		}
		clk.advance(time.Millisecond)
	}
	clk.advance(50 * time.Millisecond)
}

func TestDeactivatesAfterLimit(t *testing.T) {
	d, btn, clk, rec, task := setup(t, 5)

	for i := 0; i < 7; i++ {
		press(t, d, btn, clk)
	}

	var want []string
	for i := 0; i < 5; i++ {
		want = append(want, fmt.Sprintf("Button Press %02d Woohoo!!", i))
	}
	want = append(want, "Deactivating program...")
	if got := rec.Lines(); !slices.Equal(got, want) {
		t.Fatalf("lines:\n%q\nwant:\n%q", got, want)
	}
	if task.Presses() != 5 {
		t.Fatalf("presses=%d after deactivation", task.Presses())
	}
}

func TestZeroLimitNeverDeactivates(t *testing.T) {
	d, btn, clk, rec, task := setup(t, 0)

	for i := 0; i < 12; i++ {
		press(t, d, btn, clk)
	}
	lines := rec.Lines()
	if len(lines) != 12 || lines[11] != "Button Press 11 Woohoo!!" {
		t.Fatalf("lines=%q", lines)
	}
	if task.Presses() != 12 {
		t.Fatalf("presses=%d", task.Presses())
	}
}

func TestNewValidates(t *testing.T) {
	if _, err := New(Config{Sink: &sink.Recorder{}}); err == nil {
		t.Fatalf("missing button accepted")
	}
	if _, err := New(Config{Button: &fakeButton{}, Sink: &sink.Recorder{}, Limit: -1}); err == nil {
		t.Fatalf("negative limit accepted")
	}
}
