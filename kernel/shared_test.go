package kernel

import (
	"errors"
	"reflect"
	"testing"
)

func TestSharedCeilingIsHighestDeclaringPriority(t *testing.T) {
	d := New()
	r := NewShared("state", 0)
	noop := TaskFunc(func(*Context) {})
	mustRegister(t, d, TaskSpec{Name: "a", Priority: 1, Binds: 1, Shares: []Resource{r}, Task: noop})
	mustRegister(t, d, TaskSpec{Name: "b", Priority: 4, Binds: 2, Shares: []Resource{r}, Task: noop})
	mustRegister(t, d, TaskSpec{Name: "c", Priority: 6, Binds: 3, Task: noop})

	if got := r.Ceiling(); got != 4 {
		t.Fatalf("Ceiling() = %d, want 4", got)
	}
}

func TestLockMasksTasksUpToCeiling(t *testing.T) {
	d := New()
	r := NewShared("state", 0)
	var rec recorder
	mustRegister(t, d, TaskSpec{Name: "mid", Priority: 2, Binds: 2, Shares: []Resource{r}, Task: rec.task("mid")})
	mustRegister(t, d, TaskSpec{Name: "high", Priority: 3, Binds: 3, Task: rec.task("high")})
	mustRegister(t, d, TaskSpec{Name: "low", Priority: 1, Binds: 1, Shares: []Resource{r}, Task: TaskFunc(func(ctx *Context) {
		r.Lock(ctx, func(v *int) {
			if got := ctx.SystemPriority(); got != 2 {
				t.Errorf("SystemPriority() in lock = %d, want 2", got)
			}
			rec.events = append(rec.events, "low:lock")
			ctx.Pend(2)
			ctx.Pend(3)
			rec.events = append(rec.events, "low:unlock")
		})
		if got := ctx.SystemPriority(); got != 1 {
			t.Errorf("SystemPriority() after lock = %d, want 1", got)
		}
		rec.events = append(rec.events, "low:end")
	})})

	d.Pend(1)
	if err := d.DispatchPending(); err != nil {
		t.Fatalf("DispatchPending: %v", err)
	}

	want := []string{"low:lock", "high", "low:unlock", "mid", "low:end"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("order = %v, want %v", rec.events, want)
	}
}

type pair struct {
	a, b uint64
}

func TestLockPreventsTornReads(t *testing.T) {
	d := New()
	r := NewShared("pair", pair{})
	var reads []pair
	mustRegister(t, d, TaskSpec{Name: "reader", Priority: 3, Binds: 3, Shares: []Resource{r}, Task: TaskFunc(func(ctx *Context) {
		reads = append(reads, Lock(ctx, r, func(p *pair) pair { return *p }))
	})})
	mustRegister(t, d, TaskSpec{Name: "writer", Priority: 1, Binds: 1, Shares: []Resource{r}, Task: TaskFunc(func(ctx *Context) {
		r.Lock(ctx, func(p *pair) {
			p.a++
			ctx.Pend(3) // reader interrupt arrives mid-update
			p.b++
		})
	})})

	for i := 0; i < 10; i++ {
		d.Pend(1)
		if err := d.DispatchPending(); err != nil {
			t.Fatalf("DispatchPending: %v", err)
		}
	}

	if len(reads) != 10 {
		t.Fatalf("reads = %d, want 10", len(reads))
	}
	for i, p := range reads {
		if p.a != p.b {
			t.Fatalf("read %d torn: %+v", i, p)
		}
		if p.a != uint64(i+1) {
			t.Fatalf("read %d = %+v, want both %d", i, p, i+1)
		}
	}
}

func TestUndeclaredLockHalts(t *testing.T) {
	d := New()
	r := NewShared("state", 0)
	mustRegister(t, d, TaskSpec{Name: "owner", Priority: 1, Binds: 1, Shares: []Resource{r}, Task: TaskFunc(func(*Context) {})})
	mustRegister(t, d, TaskSpec{Name: "intruder", Priority: 1, Binds: 2, Task: TaskFunc(func(ctx *Context) {
		r.Lock(ctx, func(v *int) { *v = 42 })
	})})

	d.Pend(2)
	err := d.DispatchPending()
	if !errors.Is(err, ErrHalted) || !errors.Is(err, ErrUndeclaredResource) {
		t.Fatalf("DispatchPending() err = %v, want ErrHalted wrapping ErrUndeclaredResource", err)
	}
}

func TestNestedLockOfSameResourceHalts(t *testing.T) {
	d := New()
	r := NewShared("state", 0)
	mustRegister(t, d, TaskSpec{Name: "a", Priority: 1, Binds: 1, Shares: []Resource{r}, Task: TaskFunc(func(ctx *Context) {
		r.Lock(ctx, func(*int) {
			r.Lock(ctx, func(*int) {})
		})
	})})

	d.Pend(1)
	if err := d.DispatchPending(); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("DispatchPending() err = %v, want ErrLockHeld", err)
	}
}

func TestNestedLocksRestoreSystemPriority(t *testing.T) {
	d := New()
	outer := NewShared("outer", 0)
	inner := NewShared("inner", 0)
	var seen []Priority
	noop := TaskFunc(func(*Context) {})
	mustRegister(t, d, TaskSpec{Name: "outer-peer", Priority: 2, Binds: 2, Shares: []Resource{outer}, Task: noop})
	mustRegister(t, d, TaskSpec{Name: "inner-peer", Priority: 4, Binds: 4, Shares: []Resource{inner}, Task: noop})
	mustRegister(t, d, TaskSpec{Name: "a", Priority: 1, Binds: 1, Shares: []Resource{outer, inner}, Task: TaskFunc(func(ctx *Context) {
		outer.Lock(ctx, func(*int) {
			seen = append(seen, ctx.SystemPriority())
			inner.Lock(ctx, func(*int) {
				seen = append(seen, ctx.SystemPriority())
			})
			seen = append(seen, ctx.SystemPriority())
		})
		seen = append(seen, ctx.SystemPriority())
	})})

	d.Pend(1)
	if err := d.DispatchPending(); err != nil {
		t.Fatalf("DispatchPending: %v", err)
	}
	want := []Priority{2, 4, 2, 1}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("system priorities = %v, want %v", seen, want)
	}
}
