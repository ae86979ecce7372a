package inspect

import (
	"io"
	"log/slog"
	"testing"

	"github.com/lumen-dev/lumen/pkg/reactive"
)

func newTestRuntime() *reactive.Runtime {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return reactive.NewRuntime(reactive.WithLogger(logger))
}

func TestRegistryTrackAndValues(t *testing.T) {
	rt := newTestRuntime()
	count := reactive.NewSignal(rt, 2)
	doubled := reactive.NewMemo(rt, func() int { return count.Get() * 2 })
	_ = doubled.Get()

	reg := NewRegistry()
	reg.TrackSignal("count", count)
	reg.TrackComputed("doubled", doubled)

	if reg.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", reg.Len())
	}

	names := reg.Names()
	if len(names) != 2 || names[0] != "count" || names[1] != "doubled" {
		t.Errorf("expected sorted names [count doubled], got %v", names)
	}

	rows := reg.Values()
	if rows[0].Name != "count" || rows[0].Kind != "signal" || rows[0].Value != 2 {
		t.Errorf("unexpected signal row: %+v", rows[0])
	}
	if rows[1].Name != "doubled" || rows[1].Kind != "computed" || rows[1].Value != 4 {
		t.Errorf("unexpected computed row: %+v", rows[1])
	}
}

func TestRegistryValuesDoNotTrack(t *testing.T) {
	rt := newTestRuntime()
	count := reactive.NewSignal(rt, 1)

	reg := NewRegistry()
	reg.TrackSignal("count", count)

	runs := 0
	rt.CreateEffect(func() reactive.Cleanup {
		// Reading through the registry inside a computation must not
		// create a dependency.
		_ = reg.Values()
		runs++
		return nil
	})

	count.Set(2)
	if runs != 1 {
		t.Errorf("registry read subscribed to the signal, got %d runs", runs)
	}
}

func TestRegistryValuesDoNotRecompute(t *testing.T) {
	rt := newTestRuntime()
	count := reactive.NewSignal(rt, 1)

	computes := 0
	m := reactive.NewMemo(rt, func() int {
		computes++
		return count.Get()
	})
	_ = m.Get()

	reg := NewRegistry()
	reg.TrackComputed("m", m)

	count.Set(2)
	_ = reg.Values()

	if computes != 1 {
		t.Errorf("registry read forced a recomputation, got %d computes", computes)
	}
}

func TestRegistryUntrack(t *testing.T) {
	rt := newTestRuntime()
	count := reactive.NewSignal(rt, 1)

	reg := NewRegistry()
	reg.TrackSignal("count", count)
	reg.Untrack("count")

	if reg.Len() != 0 {
		t.Errorf("expected empty registry after Untrack, got %d entries", reg.Len())
	}
}

func TestRegistryRetrackReplaces(t *testing.T) {
	rt := newTestRuntime()
	a := reactive.NewSignal(rt, 1)
	b := reactive.NewSignal(rt, 2)

	reg := NewRegistry()
	reg.TrackSignal("x", a)
	reg.TrackSignal("x", b)

	rows := reg.Values()
	if len(rows) != 1 || rows[0].Value != 2 {
		t.Errorf("expected re-track to replace, got %+v", rows)
	}
}
