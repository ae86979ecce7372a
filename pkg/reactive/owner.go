package reactive

import (
	"fmt"

	"github.com/lumen-dev/lumen/internal/diag"
)

// Owner is a disposal-scope node. Every signal, memo, and effect created
// while an owner is current registers itself with that owner; disposing
// the owner recursively disposes child scopes, detaches owned reactions
// from their dependencies, and runs registered cleanup callbacks.
//
// Owners form a strict tree, independent of the dependency graph. The tree
// decides liveness; the graph only decides recomputation.
type Owner struct {
	rt *Runtime

	// seq is the owner's creation order, used for reaction scheduling:
	// parents are created before their children, so parent-scope
	// reactions sort first.
	seq uint64

	parent   *Owner
	children []*Owner

	// effects owned by this scope.
	effects []*Effect

	// disposables tear down owned cells and memos.
	disposables []func()

	// cleanups are callbacks registered via OnCleanup, run in reverse
	// order on disposal.
	cleanups []func()

	// values holds context bindings provided within this scope.
	values map[any]any

	disposed bool
}

// newOwner allocates an owner under parent (nil for a root).
func newOwner(rt *Runtime, parent *Owner) *Owner {
	rt.ownerSeq++
	o := &Owner{
		rt:     rt,
		seq:    rt.ownerSeq,
		parent: parent,
	}
	if parent != nil {
		parent.children = append(parent.children, o)
	}
	rt.stats.LiveOwners++
	return o
}

// CreateRoot establishes a fresh owner scope, makes it current for the
// duration of fn, and hands fn a dispose callback that tears the scope
// down. The previous current owner is restored on return.
//
// Example:
//
//	view, dispose := reactive.CreateRoot(rt, func(dispose func()) View {
//	    return buildView(rt)
//	})
//	defer dispose()
func CreateRoot[T any](rt *Runtime, fn func(dispose func()) T) (T, func()) {
	o := newOwner(rt, rt.owner)
	prev := rt.setOwner(o)
	defer rt.setOwner(prev)
	return fn(o.Dispose), o.Dispose
}

// OnCleanup registers fn to run when the enclosing scope ends: inside an
// effect body, before that effect's next run or disposal; otherwise when
// the current owner is disposed. Outside both, fn is dropped with a
// warning since nothing would ever run it.
func (rt *Runtime) OnCleanup(fn func()) {
	if fn == nil {
		return
	}
	if e := rt.activeEffect; e != nil {
		e.addCleanup(fn)
		return
	}
	if o := rt.owner; o != nil {
		o.OnCleanup(fn)
		return
	}
	rt.logger.Warn("OnCleanup called outside any owner scope or effect; dropped")
}

// Parent returns the parent owner, or nil for a root.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// Disposed reports whether Dispose has run.
func (o *Owner) Disposed() bool {
	return o.disposed
}

// OnCleanup registers a cleanup callback on this owner. If the owner is
// already disposed the callback runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed {
		runCleanupLogged(o.rt, fn)
		return
	}
	o.cleanups = append(o.cleanups, fn)
}

// registerEffect records an effect for disposal with this scope.
func (o *Owner) registerEffect(e *Effect) {
	if o.disposed {
		return
	}
	o.effects = append(o.effects, e)
}

// unregisterEffect removes an effect that disposed itself early.
func (o *Owner) unregisterEffect(e *Effect) {
	for i, existing := range o.effects {
		if existing == e {
			o.effects = append(o.effects[:i], o.effects[i+1:]...)
			return
		}
	}
}

// ownDisposable records a teardown for an owned cell or memo.
func (o *Owner) ownDisposable(fn func()) {
	if o.disposed {
		fn()
		return
	}
	o.disposables = append(o.disposables, fn)
}

// setValue binds a context value in this scope.
func (o *Owner) setValue(key, value any) {
	if o.values == nil {
		o.values = make(map[any]any)
	}
	o.values[key] = value
}

// lookup resolves a context key against this scope and its ancestors.
func (o *Owner) lookup(key any) (any, bool) {
	for cur := o; cur != nil; cur = cur.parent {
		if cur.values != nil {
			if v, ok := cur.values[key]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

// Dispose tears the scope down: children in reverse creation order, then
// owned effects, then owned cells and memos, then cleanup callbacks in
// reverse registration order. Disposal is synchronous, immediate, and
// idempotent; there is no partial-disposal state observable afterward.
func (o *Owner) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	children := o.children
	o.children = nil
	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	effects := o.effects
	o.effects = nil
	for _, e := range effects {
		e.owner = nil // already mid-teardown; skip unregisterEffect
		e.Dispose()
	}

	disposables := o.disposables
	o.disposables = nil
	for _, fn := range disposables {
		fn()
	}

	cleanups := o.cleanups
	o.cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		runCleanupLogged(o.rt, cleanups[i])
	}

	o.values = nil
	o.rt.stats.LiveOwners--
}

// removeChild detaches a child from this owner's child list.
func (o *Owner) removeChild(child *Owner) {
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// runCleanupLogged runs a cleanup callback, containing and logging any
// panic so sibling cleanups still run. Disposal is best-effort.
func runCleanupLogged(rt *Runtime, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			rt.logger.Error(diag.Describe(diag.CodeCleanup), "error", fmt.Sprintf("%v", r))
		}
	}()
	fn()
}
