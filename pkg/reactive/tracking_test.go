package reactive

import (
	"testing"
)

func TestUntrackedBlocksSubscription(t *testing.T) {
	rt := newTestRuntime()
	tracked := NewSignal(rt, 0)
	ignored := NewSignal(rt, 0)

	runs := 0
	rt.CreateEffect(func() Cleanup {
		_ = tracked.Get()
		rt.Untracked(func() {
			_ = ignored.Get()
		})
		runs++
		return nil
	})

	ignored.Set(1)
	if runs != 1 {
		t.Errorf("untracked read must not subscribe, got %d runs", runs)
	}
	tracked.Set(1)
	if runs != 2 {
		t.Errorf("tracked read must still subscribe, got %d runs", runs)
	}
}

func TestUntrackedGet(t *testing.T) {
	rt := newTestRuntime()
	x := NewSignal(rt, 7)

	runs := 0
	var got int
	rt.CreateEffect(func() Cleanup {
		got = UntrackedGet(rt, x.Get)
		runs++
		return nil
	})

	if got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	x.Set(8)
	if runs != 1 {
		t.Errorf("UntrackedGet must not subscribe, got %d runs", runs)
	}
}

func TestUntrackedRestoresTracking(t *testing.T) {
	rt := newTestRuntime()
	a := NewSignal(rt, 0)
	b := NewSignal(rt, 0)

	runs := 0
	rt.CreateEffect(func() Cleanup {
		rt.Untracked(func() { _ = a.Get() })
		_ = b.Get()
		runs++
		return nil
	})

	// Reads after the untracked section must subscribe again.
	b.Set(1)
	if runs != 2 {
		t.Errorf("tracking not restored after Untracked, got %d runs", runs)
	}
}

func TestUntrackedNested(t *testing.T) {
	rt := newTestRuntime()
	x := NewSignal(rt, 0)

	runs := 0
	rt.CreateEffect(func() Cleanup {
		rt.Untracked(func() {
			rt.Untracked(func() {})
			_ = x.Get()
		})
		runs++
		return nil
	})

	x.Set(1)
	if runs != 1 {
		t.Errorf("read after an inner untracked section leaked a subscription, got %d runs", runs)
	}
}

func TestUntrackedInsideMemo(t *testing.T) {
	rt := newTestRuntime()
	counted := NewSignal(rt, 1)
	ignored := NewSignal(rt, 100)

	m := NewMemo(rt, func() int {
		return counted.Get() + UntrackedGet(rt, ignored.Get)
	})

	if got := m.Get(); got != 101 {
		t.Fatalf("expected 101, got %d", got)
	}

	ignored.Set(200)
	if got := m.Get(); got != 101 {
		t.Errorf("untracked dependency must not invalidate the memo, got %d", got)
	}

	counted.Set(2)
	if got := m.Get(); got != 202 {
		t.Errorf("expected 202 after tracked dependency changed, got %d", got)
	}
}

func TestReadOutsideComputationIsFree(t *testing.T) {
	rt := newTestRuntime()
	x := NewSignal(rt, 5)

	// A read with no enclosing computation just returns the value.
	if got := x.Get(); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
	if n := len(rt.nodeAt(x.id).observers); n != 0 {
		t.Errorf("top-level read created %d observers", n)
	}
}
