package reactive

import (
	"errors"
	"testing"
)

func TestMemoLazy(t *testing.T) {
	rt := newTestRuntime()
	a := NewSignal(rt, 1)

	computes := 0
	m := NewMemo(rt, func() int {
		computes++
		return a.Get() * 2
	})

	if computes != 0 {
		t.Fatalf("memo must not compute before first read, got %d", computes)
	}

	if m.Get() != 2 {
		t.Errorf("expected 2, got %d", m.Get())
	}
	if computes != 1 {
		t.Errorf("expected 1 computation, got %d", computes)
	}
}

func TestMemoMemoization(t *testing.T) {
	rt := newTestRuntime()
	a := NewSignal(rt, 1)
	b := NewSignal(rt, 10)

	computes := 0
	sum := NewMemo(rt, func() int {
		computes++
		return a.Get() + b.Get()
	})

	_ = sum.Get()
	computes = 0

	a.Set(2)

	// Two reads after one write: exactly one recomputation.
	if sum.Get() != 12 {
		t.Errorf("expected 12, got %d", sum.Get())
	}
	_ = sum.Get()
	if computes != 1 {
		t.Errorf("expected 1 recomputation for 2 reads, got %d", computes)
	}
}

func TestMemoChain(t *testing.T) {
	rt := newTestRuntime()
	a := NewSignal(rt, 1)
	double := NewMemo(rt, func() int { return a.Get() * 2 })
	quad := NewMemo(rt, func() int { return double.Get() * 2 })

	if quad.Get() != 4 {
		t.Fatalf("expected 4, got %d", quad.Get())
	}

	a.Set(3)
	if quad.Get() != 12 {
		t.Errorf("expected 12 through the chain, got %d", quad.Get())
	}
}

func TestMemoEqualValueCutsPropagation(t *testing.T) {
	rt := newTestRuntime()
	n := NewSignal(rt, 1)
	positive := NewMemo(rt, func() bool { return n.Get() > 0 })

	runs := 0
	rt.CreateEffect(func() Cleanup {
		_ = positive.Get()
		runs++
		return nil
	})

	// The memo recomputes but its value is unchanged, so the effect
	// must not run.
	n.Set(2)
	if runs != 1 {
		t.Errorf("unchanged memo value must not rerun observers, got %d runs", runs)
	}

	n.Set(-1)
	if runs != 2 {
		t.Errorf("changed memo value should rerun observers, got %d runs", runs)
	}
}

func TestMemoDynamicRebinding(t *testing.T) {
	rt := newTestRuntime()
	flag := NewSignal(rt, true)
	a := NewSignal(rt, "a")
	b := NewSignal(rt, "b")

	computes := 0
	pick := NewMemo(rt, func() string {
		computes++
		if flag.Get() {
			return a.Get()
		}
		return b.Get()
	})

	runs := 0
	rt.CreateEffect(func() Cleanup {
		_ = pick.Get()
		runs++
		return nil
	})

	flag.Set(false) // now reads b, not a
	if pick.Peek() != "b" {
		t.Fatalf("expected b branch, got %q", pick.Peek())
	}

	before := computes
	a.Set("a2") // irrelevant branch
	if computes != before {
		t.Errorf("write to unread branch must not recompute, got %d extra", computes-before)
	}

	b.Set("b2") // relevant branch
	if pick.Peek() != "b2" {
		t.Errorf("expected b2, got %q", pick.Peek())
	}
	if runs != 3 {
		t.Errorf("expected 3 effect runs (initial, flip, b write), got %d", runs)
	}
}

func TestMemoCycleDetection(t *testing.T) {
	rt := newTestRuntime()

	var selfRef *Memo[int]
	selfRef = NewMemo(rt, func() int {
		return selfRef.Get() + 1
	})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected CycleError panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrCycle) {
			t.Fatalf("expected ErrCycle, got %v", r)
		}
	}()
	_ = selfRef.Get()
}

func TestMemoMutualCycleDetection(t *testing.T) {
	rt := newTestRuntime()

	var a, b *Memo[int]
	a = NewMemo(rt, func() int { return b.Get() + 1 })
	b = NewMemo(rt, func() int { return a.Get() + 1 })

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected CycleError panic for mutual cycle")
		}
	}()
	_ = a.Get()
}

func TestMemoErrorNotCached(t *testing.T) {
	rt := newTestRuntime()
	fail := NewSignal(rt, true)

	m := NewMemo(rt, func() int {
		if fail.Get() {
			panic("compute failed")
		}
		return 42
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected compute panic to reach the reader")
			}
		}()
		_ = m.Get()
	}()

	// The failure is not cached: the next read retries.
	fail.Set(false)
	if m.Get() != 42 {
		t.Errorf("expected retry to succeed with 42, got %d", m.Get())
	}
}

func TestMemoVersionBumpsOnlyOnChange(t *testing.T) {
	rt := newTestRuntime()
	n := NewSignal(rt, 1)
	sign := NewMemo(rt, func() bool { return n.Get() >= 0 })

	_ = sign.Get()
	v := sign.Version()

	n.Set(5)
	_ = sign.Get()
	if sign.Version() != v {
		t.Errorf("equal recompute must not bump version: %d != %d", sign.Version(), v)
	}

	n.Set(-5)
	_ = sign.Get()
	if sign.Version() != v+1 {
		t.Errorf("changed recompute should bump version once, got %d", sign.Version())
	}
}
