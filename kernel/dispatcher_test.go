package kernel

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type recorder struct {
	events []string
}

func (r *recorder) task(name string) Task {
	return TaskFunc(func(*Context) { r.events = append(r.events, name) })
}

func mustRegister(t *testing.T, d *Dispatcher, spec TaskSpec) TaskID {
	t.Helper()
	id, err := d.Register(spec)
	if err != nil {
		t.Fatalf("Register(%q): %v", spec.Name, err)
	}
	return id
}

func TestRegisterRejectsInvalidSpecs(t *testing.T) {
	d := New()
	noop := TaskFunc(func(*Context) {})
	mustRegister(t, d, TaskSpec{Name: "a", Priority: 1, Binds: 1, Task: noop})

	tests := []struct {
		name string
		spec TaskSpec
		want error
	}{
		{"nil task", TaskSpec{Name: "nil", Priority: 1, Binds: 2}, ErrNilTask},
		{"idle priority", TaskSpec{Name: "idle", Priority: 0, Binds: 2, Task: noop}, ErrInvalidPriority},
		{"vector bound", TaskSpec{Name: "dup", Priority: 2, Binds: 1, Task: noop}, ErrVectorBound},
		{"vector range", TaskSpec{Name: "far", Priority: 2, Binds: maxVectors, Task: noop}, ErrInvalidVector},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.Register(tt.spec); !errors.Is(err, tt.want) {
				t.Fatalf("Register() err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegisterSealedAfterDispatch(t *testing.T) {
	d := New()
	mustRegister(t, d, TaskSpec{Name: "a", Priority: 1, Binds: 1, Task: TaskFunc(func(*Context) {})})
	if err := d.DispatchPending(); err != nil {
		t.Fatalf("DispatchPending: %v", err)
	}
	_, err := d.Register(TaskSpec{Name: "late", Priority: 1, Binds: 2, Task: TaskFunc(func(*Context) {})})
	if !errors.Is(err, ErrSealed) {
		t.Fatalf("Register() err = %v, want ErrSealed", err)
	}
}

func TestRegisterRejectsForeignResource(t *testing.T) {
	r := NewShared("r", 0)
	a, b := New(), New()
	noop := TaskFunc(func(*Context) {})
	mustRegister(t, a, TaskSpec{Name: "a", Priority: 1, Binds: 1, Shares: []Resource{r}, Task: noop})
	_, err := b.Register(TaskSpec{Name: "b", Priority: 1, Binds: 1, Shares: []Resource{r}, Task: noop})
	if !errors.Is(err, ErrForeignResource) {
		t.Fatalf("Register() err = %v, want ErrForeignResource", err)
	}
}

func TestDispatchHighestPriorityFirst(t *testing.T) {
	d := New()
	var rec recorder
	mustRegister(t, d, TaskSpec{Name: "low", Priority: 1, Binds: 1, Task: rec.task("low")})
	mustRegister(t, d, TaskSpec{Name: "high", Priority: 3, Binds: 3, Task: rec.task("high")})
	mustRegister(t, d, TaskSpec{Name: "mid", Priority: 2, Binds: 2, Task: rec.task("mid")})

	for _, v := range []Vector{1, 2, 3} {
		if res := d.Pend(v); res != PendOK {
			t.Fatalf("Pend(%d) = %s, want ok", v, res)
		}
	}
	if err := d.DispatchPending(); err != nil {
		t.Fatalf("DispatchPending: %v", err)
	}

	want := []string{"high", "mid", "low"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("order = %v, want %v", rec.events, want)
	}
}

func TestDispatchTriggerOrderWithinPriority(t *testing.T) {
	d := New()
	var rec recorder
	mustRegister(t, d, TaskSpec{Name: "a", Priority: 1, Binds: 1, Task: rec.task("a")})
	mustRegister(t, d, TaskSpec{Name: "b", Priority: 1, Binds: 2, Task: rec.task("b")})
	mustRegister(t, d, TaskSpec{Name: "c", Priority: 1, Binds: 3, Task: rec.task("c")})

	for _, v := range []Vector{3, 1, 2} {
		d.Pend(v)
	}
	if err := d.DispatchPending(); err != nil {
		t.Fatalf("DispatchPending: %v", err)
	}

	want := []string{"c", "a", "b"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("order = %v, want %v", rec.events, want)
	}
}

func TestPendCoalescesWhilePending(t *testing.T) {
	d := New()
	var rec recorder
	mustRegister(t, d, TaskSpec{Name: "a", Priority: 1, Binds: 1, Task: rec.task("a")})

	if res := d.Pend(1); res != PendOK {
		t.Fatalf("first Pend = %s, want ok", res)
	}
	if res := d.Pend(1); res != PendCoalesced {
		t.Fatalf("second Pend = %s, want coalesced", res)
	}
	if res := d.Pend(9); res != PendErrNoVector {
		t.Fatalf("Pend(unbound) = %s, want no vector", res)
	}
	if err := d.DispatchPending(); err != nil {
		t.Fatalf("DispatchPending: %v", err)
	}

	if len(rec.events) != 1 {
		t.Fatalf("runs = %d, want 1", len(rec.events))
	}
	st := d.Stats()
	if st.Coalesced != 1 || st.Dispatched["a"] != 1 {
		t.Fatalf("Stats() = %+v, want 1 coalesced and 1 dispatch", st)
	}
}

func TestContextPendPreemptsOnlyHigherPriority(t *testing.T) {
	d := New()
	var rec recorder
	mustRegister(t, d, TaskSpec{Name: "high", Priority: 3, Binds: 3, Task: rec.task("high")})
	mustRegister(t, d, TaskSpec{Name: "peer", Priority: 1, Binds: 2, Task: rec.task("peer")})
	mustRegister(t, d, TaskSpec{Name: "low", Priority: 1, Binds: 1, Task: TaskFunc(func(ctx *Context) {
		rec.events = append(rec.events, "low:start")
		ctx.Pend(2)
		ctx.Pend(3)
		rec.events = append(rec.events, "low:end")
	})})

	d.Pend(1)
	if err := d.DispatchPending(); err != nil {
		t.Fatalf("DispatchPending: %v", err)
	}

	want := []string{"low:start", "high", "low:end", "peer"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("order = %v, want %v", rec.events, want)
	}
	if st := d.Stats(); st.MaxDepth != 2 {
		t.Fatalf("MaxDepth = %d, want 2", st.MaxDepth)
	}
}

func TestTaskPanicHaltsDispatcher(t *testing.T) {
	var infos []PanicInfo
	d := New(WithPanicHandler(func(info PanicInfo) { infos = append(infos, info) }))
	var rec recorder
	mustRegister(t, d, TaskSpec{Name: "boom", Priority: 2, Binds: 2, Task: TaskFunc(func(*Context) {
		panic("adc fault")
	})})
	mustRegister(t, d, TaskSpec{Name: "low", Priority: 1, Binds: 1, Task: TaskFunc(func(ctx *Context) {
		ctx.Pend(2)
		rec.events = append(rec.events, "low:after")
	})})

	d.Pend(1)
	err := d.DispatchPending()
	if !errors.Is(err, ErrHalted) {
		t.Fatalf("DispatchPending() err = %v, want ErrHalted", err)
	}
	if len(infos) != 1 || infos[0].Task != "boom" || infos[0].Value != "adc fault" {
		t.Fatalf("panic handler calls = %+v, want one for boom", infos)
	}
	if len(rec.events) != 0 {
		t.Fatalf("preempted task resumed after halt: %v", rec.events)
	}
	if res := d.Pend(1); res != PendErrHalted {
		t.Fatalf("Pend after halt = %s, want halted", res)
	}
}

func TestDispatchPendingFromTaskIsCoreBusy(t *testing.T) {
	d := New()
	var got error
	mustRegister(t, d, TaskSpec{Name: "a", Priority: 1, Binds: 1, Task: TaskFunc(func(*Context) {
		got = d.DispatchPending()
	})})
	d.Pend(1)
	if err := d.DispatchPending(); err != nil {
		t.Fatalf("DispatchPending: %v", err)
	}
	if !errors.Is(got, ErrCoreBusy) {
		t.Fatalf("nested DispatchPending() = %v, want ErrCoreBusy", got)
	}
}

func TestRunServicesInterruptsFromOtherGoroutines(t *testing.T) {
	d := New()
	ran := make(chan struct{}, 4)
	mustRegister(t, d, TaskSpec{Name: "isr", Priority: 1, Binds: 7, Task: TaskFunc(func(*Context) {
		ran <- struct{}{}
	})})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	for i := 0; i < 3; i++ {
		go d.Pend(7)
		select {
		case <-ran:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for interrupt task")
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
