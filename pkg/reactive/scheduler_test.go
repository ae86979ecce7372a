package reactive

import (
	"errors"
	"testing"
)

func TestBatchCoalesces(t *testing.T) {
	rt := newTestRuntime()
	x := NewSignal(rt, 0)

	runs := 0
	var seen int
	rt.CreateEffect(func() Cleanup {
		seen = x.Get()
		runs++
		return nil
	})

	rt.Batch(func() {
		x.Set(1)
		x.Set(2)
		x.Set(3)
	})

	if runs != 2 {
		t.Errorf("three writes in a batch should cause one rerun, got %d total runs", runs)
	}
	if seen != 3 {
		t.Errorf("effect should observe the final value 3, got %d", seen)
	}
}

func TestBatchNested(t *testing.T) {
	rt := newTestRuntime()
	a := NewSignal(rt, 0)
	b := NewSignal(rt, 0)

	runs := 0
	rt.CreateEffect(func() Cleanup {
		_, _ = a.Get(), b.Get()
		runs++
		return nil
	})

	rt.Batch(func() {
		a.Set(1)
		rt.Batch(func() {
			b.Set(1)
		})
		// Inner batch end must not flush early.
		if runs != 1 {
			t.Errorf("nested batch flushed before outer batch ended, runs=%d", runs)
		}
	})

	if runs != 2 {
		t.Errorf("expected one coalesced rerun, got %d total", runs)
	}
}

func TestDiamondGlitchFree(t *testing.T) {
	rt := newTestRuntime()
	a := NewSignal(rt, 1)
	b := NewMemo(rt, func() int { return a.Get() * 2 })
	c := NewMemo(rt, func() int { return a.Get() * 3 })

	var log []int
	rt.CreateEffect(func() Cleanup {
		log = append(log, b.Get()+c.Get())
		return nil
	})

	rt.Batch(func() {
		a.Set(2)
	})

	// Exactly one run with fully consistent values: 4+6, never 5 or 8.
	want := []int{5, 10}
	if len(log) != len(want) {
		t.Fatalf("expected log %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("expected log %v, got %v", want, log)
		}
	}
}

func TestDiamondWithoutExplicitBatch(t *testing.T) {
	rt := newTestRuntime()
	a := NewSignal(rt, 1)
	b := NewMemo(rt, func() int { return a.Get() * 2 })
	c := NewMemo(rt, func() int { return a.Get() * 3 })

	runs := 0
	rt.CreateEffect(func() Cleanup {
		_ = b.Get() + c.Get()
		runs++
		return nil
	})

	// A single write already propagates in one pass even without Batch.
	a.Set(2)
	if runs != 2 {
		t.Errorf("diamond write should rerun the effect exactly once, got %d total", runs)
	}
}

func TestWritesDuringFlushAbsorbed(t *testing.T) {
	rt := newTestRuntime()
	a := NewSignal(rt, 0)
	b := NewSignal(rt, 0)

	rt.CreateEffect(func() Cleanup {
		b.Set(a.Get() * 2)
		return nil
	})

	var seen int
	runs := 0
	rt.CreateEffect(func() Cleanup {
		seen = b.Get()
		runs++
		return nil
	})

	a.Set(3)

	if seen != 6 {
		t.Errorf("downstream effect should see the absorbed write, got %d", seen)
	}
	if runs != 2 {
		t.Errorf("expected exactly one rerun within the same flush, got %d total", runs)
	}
}

func TestFlushDivergence(t *testing.T) {
	rt := newTestRuntime(WithMaxFlushPasses(10))
	x := NewSignal(rt, 0)
	y := NewSignal(rt, 0)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected FlushDivergenceError panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrFlushDivergence) {
			t.Fatalf("expected ErrFlushDivergence, got %v", r)
		}
		var div *FlushDivergenceError
		if !errors.As(err, &div) || div.Passes != 10 {
			t.Fatalf("expected pass bound 10 in error, got %v", err)
		}
	}()

	rt.Batch(func() {
		rt.CreateEffect(func() Cleanup {
			y.Set(x.Get() + 1)
			return nil
		})
		rt.CreateEffect(func() Cleanup {
			x.Set(y.Get() + 1)
			return nil
		})
	})
}

func TestReactionErrorIsolation(t *testing.T) {
	rt := newTestRuntime()
	x := NewSignal(rt, 0)

	rt.CreateEffect(func() Cleanup {
		if x.Get() > 0 {
			panic("first effect failed")
		}
		return nil
	})

	secondRuns := 0
	rt.CreateEffect(func() Cleanup {
		_ = x.Get()
		secondRuns++
		return nil
	})

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		x.Set(1)
	}()

	if recovered == nil {
		t.Fatal("unhandled reaction failure should rethrow after the flush")
	}
	if _, ok := recovered.(*ReactionError); !ok {
		t.Fatalf("expected *ReactionError, got %T", recovered)
	}
	if secondRuns != 2 {
		t.Errorf("independent reaction must still run, got %d total runs", secondRuns)
	}
}

func TestFlushSurvivesFailingMemo(t *testing.T) {
	rt := newTestRuntime()
	a := NewSignal(rt, 0)
	boom := NewSignal(rt, false)

	m := NewMemo(rt, func() int {
		if boom.Get() {
			panic("compute failed")
		}
		return a.Get() * 2
	})

	e1Runs := 0
	var e1Seen int
	rt.CreateEffect(func() Cleanup {
		e1Seen = m.Get()
		e1Runs++
		return nil
	})

	e2Runs := 0
	rt.CreateEffect(func() Cleanup {
		_ = a.Get()
		e2Runs++
		return nil
	})

	// The memo fails during the first effect's dependency re-check. That
	// failure must stay contained to the reaction: the flush completes,
	// the independent effect still runs, and the error rethrows after.
	var recovered any
	func() {
		defer func() { recovered = recover() }()
		rt.Batch(func() {
			boom.Set(true)
			a.Set(1)
		})
	}()

	if recovered == nil {
		t.Fatal("failing memo behind a reaction should rethrow after the flush")
	}
	if _, ok := recovered.(*ReactionError); !ok {
		t.Fatalf("expected *ReactionError, got %T", recovered)
	}
	if e2Runs != 2 {
		t.Errorf("independent reaction must still run, got %d total runs", e2Runs)
	}

	// Clearing the fault must reach the effect again: the memo retries,
	// succeeds, and the reaction behind it reruns with the new value.
	boom.Set(false)
	if e1Runs != 2 {
		t.Fatalf("reaction behind the recovered memo should rerun, got %d total runs", e1Runs)
	}
	if e1Seen != 2 {
		t.Errorf("expected recovered value 2, got %d", e1Seen)
	}

	// The engine stays fully live afterwards.
	a.Set(5)
	if e1Runs != 3 || e2Runs != 3 {
		t.Errorf("expected both reactions to keep running, got %d and %d", e1Runs, e2Runs)
	}
}

func TestFailingMemoRoutedToOnError(t *testing.T) {
	rt := newTestRuntime()
	boom := NewSignal(rt, false)

	m := NewMemo(rt, func() bool {
		if boom.Get() {
			panic("compute failed")
		}
		return false
	})

	var handled error
	rt.CreateEffect(func() Cleanup {
		_ = m.Get()
		return nil
	}, OnError(func(err error) { handled = err }))

	// A failure surfacing in the dependency re-check routes to the same
	// handler as a failure in the body. Nothing rethrows.
	boom.Set(true)

	if handled == nil {
		t.Fatal("expected the memo failure to reach the reaction's error handler")
	}
}

func TestReactionOrderFollowsOwnerCreation(t *testing.T) {
	rt := newTestRuntime()
	x := NewSignal(rt, 0)

	var order []string
	_, dispose := CreateRoot(rt, func(func()) any {
		// Child scope created first...
		CreateRoot(rt, func(func()) any {
			rt.CreateEffect(func() Cleanup {
				_ = x.Get()
				order = append(order, "child")
				return nil
			})
			return nil
		})
		// ...but the parent-scope effect, created later, still runs first.
		rt.CreateEffect(func() Cleanup {
			_ = x.Get()
			order = append(order, "parent")
			return nil
		})
		return nil
	})
	defer dispose()

	order = nil
	x.Set(1)

	if len(order) != 2 || order[0] != "parent" || order[1] != "child" {
		t.Errorf("expected parent scope before child scope, got %v", order)
	}
}

func TestPhaseTransitions(t *testing.T) {
	rt := newTestRuntime()
	x := NewSignal(rt, 0)

	if rt.Phase() != PhaseIdle {
		t.Fatalf("expected idle, got %v", rt.Phase())
	}

	rt.Batch(func() {
		x.Set(1)
		if rt.Phase() != PhaseCollecting {
			t.Errorf("expected collecting inside batch, got %v", rt.Phase())
		}
	})

	if rt.Phase() != PhaseIdle {
		t.Errorf("expected idle after flush, got %v", rt.Phase())
	}
}

func TestFlushHook(t *testing.T) {
	rt := newTestRuntime()
	x := NewSignal(rt, 0)

	var infos []FlushInfo
	rt.AddHook(HookFunc(func(info FlushInfo) {
		infos = append(infos, info)
	}))

	rt.CreateEffect(func() Cleanup {
		_ = x.Get()
		return nil
	})

	x.Set(1)

	if len(infos) != 1 {
		t.Fatalf("expected 1 flush, got %d", len(infos))
	}
	if infos[0].ReactionsRun != 1 {
		t.Errorf("expected 1 reaction run in flush info, got %d", infos[0].ReactionsRun)
	}
	if infos[0].Passes != 1 {
		t.Errorf("expected 1 pass, got %d", infos[0].Passes)
	}

	stats := rt.Stats()
	if stats.Flushes != 1 || stats.CellWrites != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
