package reactivetest

import (
	"io"
	"log/slog"
	"testing"

	"github.com/lumen-dev/lumen/pkg/reactive"
)

// NewRuntime creates a runtime whose logger is discarded, so recovered
// cleanup panics and debug traces do not pollute test output. Extra
// options are applied after the silent logger and may override it.
//
// Example:
//
//	rt := reactivetest.NewRuntime()
//	count := reactive.NewSignal(rt, 0)
func NewRuntime(opts ...reactive.Option) *reactive.Runtime {
	silent := slog.New(slog.NewTextHandler(io.Discard, nil))
	all := append([]reactive.Option{reactive.WithLogger(silent)}, opts...)
	return reactive.NewRuntime(all...)
}

// Recorder captures every value a tracked computation produces, in run
// order. It is backed by a real effect, so it reruns exactly when
// production code would.
type Recorder[T any] struct {
	effect *reactive.Effect
	values []T
}

// Observe creates a recorder over fn. fn runs once immediately and again
// whenever a dependency changes, appending each result.
//
// Example:
//
//	rec := reactivetest.Observe(rt, func() int { return count.Get() * 2 })
//	count.Set(3)
//	reactivetest.ExpectValues(t, rec, 0, 6)
func Observe[T any](rt *reactive.Runtime, fn func() T) *Recorder[T] {
	rec := &Recorder[T]{}
	rec.effect = rt.CreateEffect(func() reactive.Cleanup {
		rec.values = append(rec.values, fn())
		return nil
	})
	return rec
}

// Values returns a copy of everything recorded so far.
func (r *Recorder[T]) Values() []T {
	return append([]T(nil), r.values...)
}

// Last returns the most recent value. It panics if nothing was recorded,
// which cannot happen for a recorder created by Observe.
func (r *Recorder[T]) Last() T {
	return r.values[len(r.values)-1]
}

// Runs returns how many times the computation has run.
func (r *Recorder[T]) Runs() int {
	return len(r.values)
}

// Reset clears the recorded values without disturbing the subscription.
func (r *Recorder[T]) Reset() {
	r.values = r.values[:0]
}

// Stop disposes the underlying effect. The recorder keeps its history
// but records nothing further.
func (r *Recorder[T]) Stop() {
	r.effect.Dispose()
}

// ExpectValues asserts the recorder saw exactly want, in order.
func ExpectValues[T comparable](t *testing.T, r *Recorder[T], want ...T) {
	t.Helper()
	got := r.Values()
	if len(got) != len(want) {
		t.Errorf("recorded %v, want %v", got, want)
		return
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("recorded %v, want %v", got, want)
			return
		}
	}
}

// ExpectRuns asserts the computation ran exactly n times.
func ExpectRuns[T any](t *testing.T, r *Recorder[T], n int) {
	t.Helper()
	if r.Runs() != n {
		t.Errorf("computation ran %d times, want %d", r.Runs(), n)
	}
}

// ExpectLast asserts the most recent recorded value.
func ExpectLast[T comparable](t *testing.T, r *Recorder[T], want T) {
	t.Helper()
	if got := r.Last(); got != want {
		t.Errorf("last recorded value = %v, want %v", got, want)
	}
}

// Recover runs fn and returns the value it panicked with, or nil if it
// returned normally. Useful for asserting on cycle and divergence
// failures without boilerplate.
//
// Example:
//
//	r := reactivetest.Recover(func() { _ = cyclic.Get() })
//	if err, ok := r.(error); !ok || !errors.Is(err, reactive.ErrCycle) {
//	    t.Fatalf("expected cycle error, got %v", r)
//	}
func Recover(fn func()) (recovered any) {
	defer func() { recovered = recover() }()
	fn()
	return nil
}
