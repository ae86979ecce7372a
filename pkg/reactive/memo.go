package reactive

// Memo is a cached derived computation. Its dependencies are tracked
// automatically on every run, so a computation whose branches change which
// cells it reads re-binds its dependency set each time it recomputes.
//
// Memos are lazy: a memo marked dirty by a flush is not recomputed until
// the next Get, and a memo nobody reads is never computed at all. The
// cached value propagates dirtiness to the memo's own observers only when
// recomputation actually produces a different value, which is what stops
// unnecessary cascades through derived chains.
type Memo[T any] struct {
	rt *Runtime
	id nodeID

	// compute produces the value. It must not write signals.
	compute func() T

	// owner is the scope current at creation time. Recomputations run
	// under it so context lookups resolve against the creation scope.
	owner *Owner

	value       T
	initialized bool

	// failed marks the last recomputation as panicked, forcing the next
	// read to retry instead of trusting recorded dependency versions.
	failed bool

	// equal is the change comparator for the computed value.
	equal func(T, T) bool

	disposed bool
}

// NewMemo creates a memo over the given computation. The computation does
// not run until the first Get.
func NewMemo[T any](rt *Runtime, compute func() T) *Memo[T] {
	m := &Memo[T]{
		rt:      rt,
		id:      rt.allocNode(kindDerived),
		compute: compute,
		owner:   rt.owner,
	}
	n := rt.nodeAt(m.id)
	n.state = stateDirty
	n.refresh = m.refresh
	if o := rt.owner; o != nil {
		o.ownDisposable(m.dispose)
	}
	return m
}

// Get returns the memo's value, recomputing first if a dependency changed,
// and registers the memo as a dependency of the enclosing computation.
// Dependencies propagate transitively this way through derived chains.
//
// Get panics with *CycleError if the memo is read from within its own
// computation.
func (m *Memo[T]) Get() T {
	if m.disposed {
		return m.value
	}
	m.rt.recordRead(m.id)
	m.refresh()
	return m.value
}

// Peek returns the memo's value without registering a dependency. It still
// recomputes if the cached value is stale.
func (m *Memo[T]) Peek() T {
	if !m.disposed {
		m.refresh()
	}
	return m.value
}

// WithEquals configures a custom change comparator and returns the memo.
func (m *Memo[T]) WithEquals(fn func(T, T) bool) *Memo[T] {
	m.equal = fn
	return m
}

// WithLabel attaches a display name used in runtime snapshots.
func (m *Memo[T]) WithLabel(label string) *Memo[T] {
	if !m.disposed {
		m.rt.setLabel(m.id, label)
	}
	return m
}

// Version returns the memo's version. It bumps only when recomputation
// produces a value the comparator considers different.
func (m *Memo[T]) Version() uint64 {
	if m.disposed {
		return 0
	}
	return m.rt.nodeAt(m.id).version
}

// Stale reports whether the cached value is awaiting recomputation.
func (m *Memo[T]) Stale() bool {
	return !m.disposed && m.rt.nodeAt(m.id).state != stateClean
}

// InspectValue returns the cached value untyped, without tracking and
// without forcing recomputation. Intended for devtools display only.
func (m *Memo[T]) InspectValue() any {
	return m.value
}

// refresh brings the cached value up to date. A dirty memo first verifies
// that some dependency version really changed (refreshing dirty derived
// dependencies along the way); if none did, the mark was conservative and
// the cached value stands.
func (m *Memo[T]) refresh() {
	switch m.rt.nodeAt(m.id).state {
	case stateClean:
		return
	case stateComputing:
		m.rt.stats.Cycles++
		panic(&CycleError{Label: m.rt.nodeAt(m.id).label})
	}

	if m.initialized && !m.failed && !m.rt.depsChanged(m.id) {
		m.rt.nodeAt(m.id).state = stateClean
		return
	}
	m.recompute()
}

// recompute runs the computation in a fresh tracking frame, replacing the
// stale dependency set with the freshly collected one. A panic from the
// computation propagates to the Get caller and is not cached: the next
// read retries.
func (m *Memo[T]) recompute() {
	rt := m.rt
	rt.nodeAt(m.id).state = stateComputing
	rt.stats.Recomputes++

	rt.clearDeps(m.id)
	prevOwner := rt.setOwner(m.owner)
	rt.pushFrame(m.id)

	ok := false
	var next T
	defer func() {
		deps := rt.popFrame()
		rt.setOwner(prevOwner)
		if m.disposed {
			// Disposed by its own computation: the slot is freed, drop
			// the read-time observer edges instead of binding.
			for _, dep := range deps {
				rt.removeObserver(dep, m.id)
			}
			return
		}
		rt.bindDeps(m.id, deps)

		n := rt.nodeAt(m.id)
		if !ok {
			m.failed = true
			n.state = stateDirty
			return
		}
		if !m.initialized || !m.equals(m.value, next) {
			m.value = next
			n.version++
		}
		m.initialized = true
		m.failed = false
		n.state = stateClean
	}()

	next = m.compute()
	ok = true
}

// dispose detaches the memo from the graph. Further Gets return the last
// cached value without tracking or recomputation.
func (m *Memo[T]) dispose() {
	if m.disposed {
		return
	}
	m.disposed = true
	m.rt.freeNode(m.id)
}

// equals applies the configured comparator.
func (m *Memo[T]) equals(a, b T) bool {
	if m.equal != nil {
		return m.equal(a, b)
	}
	return defaultEquals(a, b)
}
