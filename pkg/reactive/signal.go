package reactive

import "reflect"

// Signal is a reactive value cell. Reading a Signal inside a tracked
// computation (memo recomputation or effect body) registers the cell as a
// dependency of that computation; writing a different value bumps the
// cell's version and hands its observers to the scheduler.
//
// A Signal created while an owner scope is current is disposed with that
// scope. Reads always return the latest written value, even mid-batch:
// batching defers propagation, not value visibility.
type Signal[T any] struct {
	rt *Runtime
	id nodeID

	// value is the current cell value. The authoritative copy lives here;
	// the arena node carries only graph bookkeeping.
	value T

	// equal is the write-time comparator. nil means defaultEquals.
	equal func(T, T) bool

	disposed bool
}

// NewSignal creates a signal with the given initial value, owned by the
// runtime's current owner scope if one is active.
func NewSignal[T any](rt *Runtime, initial T) *Signal[T] {
	s := &Signal[T]{
		rt:    rt,
		id:    rt.allocNode(kindCell),
		value: initial,
	}
	if o := rt.owner; o != nil {
		o.ownDisposable(s.dispose)
	}
	return s
}

// Get returns the current value and registers the cell as a dependency of
// the computation on top of the tracker stack, if any. Reading never
// triggers recomputation of anything.
func (s *Signal[T]) Get() T {
	if !s.disposed {
		s.rt.recordRead(s.id)
	}
	return s.value
}

// Peek returns the current value without registering a dependency.
func (s *Signal[T]) Peek() T {
	return s.value
}

// Set writes a new value. If the comparator considers it equal to the
// current value the write is a complete no-op: no version bump, no
// propagation. Otherwise the value is applied immediately and the cell's
// observers are handed to the scheduler.
func (s *Signal[T]) Set(value T) {
	if s.disposed || s.equals(s.value, value) {
		return
	}
	s.value = value
	s.rt.nodeAt(s.id).version++
	s.rt.cellWritten(s.id)
}

// Update applies fn to the current value and writes the result.
func (s *Signal[T]) Update(fn func(T) T) {
	s.Set(fn(s.value))
}

// WithEquals configures a custom comparator and returns the signal.
// Useful when reflect.DeepEqual is too expensive or has the wrong
// semantics for T.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// WithLabel attaches a display name used in runtime snapshots.
func (s *Signal[T]) WithLabel(label string) *Signal[T] {
	if !s.disposed {
		s.rt.setLabel(s.id, label)
	}
	return s
}

// Version returns the cell's version. It increases strictly on every write
// whose value the comparator considers different.
func (s *Signal[T]) Version() uint64 {
	if s.disposed {
		return 0
	}
	return s.rt.nodeAt(s.id).version
}

// InspectValue returns the current value untyped, without tracking.
// Intended for devtools display only.
func (s *Signal[T]) InspectValue() any {
	return s.value
}

// dispose detaches the cell from the graph. Further Sets are no-ops;
// further Gets return the last value without tracking.
func (s *Signal[T]) dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.rt.freeNode(s.id)
}

// equals applies the configured comparator.
func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals provides type-appropriate equality: == for the common
// comparable kinds, reflect.DeepEqual for everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}
