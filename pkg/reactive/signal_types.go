package reactive

// IntSignal wraps Signal[int] with convenience methods for counters.
type IntSignal struct {
	*Signal[int]
}

// NewIntSignal creates an IntSignal with the given initial value.
func NewIntSignal(rt *Runtime, initial int) *IntSignal {
	return &IntSignal{NewSignal(rt, initial)}
}

// Inc increments the value by 1.
func (s *IntSignal) Inc() {
	s.Update(func(n int) int { return n + 1 })
}

// Dec decrements the value by 1.
func (s *IntSignal) Dec() {
	s.Update(func(n int) int { return n - 1 })
}

// Add adds n to the value.
func (s *IntSignal) Add(n int) {
	s.Update(func(v int) int { return v + n })
}

// BoolSignal wraps Signal[bool] with convenience methods for flags.
type BoolSignal struct {
	*Signal[bool]
}

// NewBoolSignal creates a BoolSignal with the given initial value.
func NewBoolSignal(rt *Runtime, initial bool) *BoolSignal {
	return &BoolSignal{NewSignal(rt, initial)}
}

// Toggle inverts the value.
func (s *BoolSignal) Toggle() {
	s.Update(func(b bool) bool { return !b })
}

// SetTrue sets the value to true.
func (s *BoolSignal) SetTrue() {
	s.Set(true)
}

// SetFalse sets the value to false.
func (s *BoolSignal) SetFalse() {
	s.Set(false)
}

// StringSignal wraps Signal[string] with convenience methods for text.
type StringSignal struct {
	*Signal[string]
}

// NewStringSignal creates a StringSignal with the given initial value.
func NewStringSignal(rt *Runtime, initial string) *StringSignal {
	return &StringSignal{NewSignal(rt, initial)}
}

// Append adds suffix to the end of the value.
func (s *StringSignal) Append(suffix string) {
	s.Update(func(v string) string { return v + suffix })
}

// Clear sets the value to the empty string.
func (s *StringSignal) Clear() {
	s.Set("")
}

// IsEmpty reports whether the value is empty. Reads the signal, so it
// creates a dependency.
func (s *StringSignal) IsEmpty() bool {
	return s.Get() == ""
}

// SliceSignal wraps Signal[[]T] with copy-on-write slice operations, so
// every mutation is a fresh value and old reads stay valid.
type SliceSignal[T any] struct {
	*Signal[[]T]
}

// NewSliceSignal creates a SliceSignal. A nil initial becomes an empty
// slice.
func NewSliceSignal[T any](rt *Runtime, initial []T) *SliceSignal[T] {
	if initial == nil {
		initial = []T{}
	}
	return &SliceSignal[T]{NewSignal(rt, initial)}
}

// Append adds an item to the end.
func (s *SliceSignal[T]) Append(item T) {
	s.Update(func(items []T) []T {
		next := make([]T, len(items), len(items)+1)
		copy(next, items)
		return append(next, item)
	})
}

// RemoveAt removes the item at index. Out-of-bounds indexes are ignored.
func (s *SliceSignal[T]) RemoveAt(index int) {
	s.Update(func(items []T) []T {
		if index < 0 || index >= len(items) {
			return items
		}
		next := make([]T, 0, len(items)-1)
		next = append(next, items[:index]...)
		return append(next, items[index+1:]...)
	})
}

// Clear removes all items.
func (s *SliceSignal[T]) Clear() {
	s.Set([]T{})
}

// Len returns the slice length. Reads the signal, so it creates a
// dependency.
func (s *SliceSignal[T]) Len() int {
	return len(s.Get())
}

// MapSignal wraps Signal[map[K]V] with copy-on-write map operations.
type MapSignal[K comparable, V any] struct {
	*Signal[map[K]V]
}

// NewMapSignal creates a MapSignal. A nil initial becomes an empty map.
func NewMapSignal[K comparable, V any](rt *Runtime, initial map[K]V) *MapSignal[K, V] {
	if initial == nil {
		initial = make(map[K]V)
	}
	return &MapSignal[K, V]{NewSignal(rt, initial)}
}

// SetKey sets key to value.
func (s *MapSignal[K, V]) SetKey(key K, value V) {
	s.Update(func(m map[K]V) map[K]V {
		next := make(map[K]V, len(m)+1)
		for k, v := range m {
			next[k] = v
		}
		next[key] = value
		return next
	})
}

// RemoveKey removes key. Missing keys leave the value unchanged.
func (s *MapSignal[K, V]) RemoveKey(key K) {
	s.Update(func(m map[K]V) map[K]V {
		if _, ok := m[key]; !ok {
			return m
		}
		next := make(map[K]V, len(m))
		for k, v := range m {
			if k != key {
				next[k] = v
			}
		}
		return next
	})
}

// GetKey returns the value for key. Reads the signal, so it creates a
// dependency.
func (s *MapSignal[K, V]) GetKey(key K) (V, bool) {
	v, ok := s.Get()[key]
	return v, ok
}

// Len returns the map size. Reads the signal, so it creates a dependency.
func (s *MapSignal[K, V]) Len() int {
	return len(s.Get())
}
