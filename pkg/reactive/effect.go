package reactive

// Cleanup is a teardown function returned by an effect body. It runs
// before the effect re-runs and when the effect is disposed.
type Cleanup func()

// Effect is a reactive side effect. The body runs once at creation to
// discover its initial dependency set, then again during a flush whenever
// any dependency's version changed: cleanup first, then a fresh tracked
// run that fully re-subscribes.
//
// Effects run in the order their owner scopes were created, parents before
// children, and at most once per flush pass.
type Effect struct {
	rt *Runtime
	id nodeID

	// fn is the effect body. Its returned Cleanup, if any, is stored.
	fn func() Cleanup

	// cleanups are the stored teardown callbacks: the body's returned
	// Cleanup plus anything registered via OnCleanup during the run.
	// Run in reverse order before the next run and on disposal.
	cleanups []Cleanup

	// owner is the scope the effect was created under.
	owner *Owner

	// ownerSeq and seq order reactions within a flush.
	ownerSeq uint64
	seq      uint64

	// pending dedupes scheduling within a flush pass.
	pending bool

	disposed bool
	deferred bool
	name     string
	onError  func(error)
}

// EffectOption configures an Effect at creation.
type EffectOption interface {
	applyEffect(e *Effect)
}

type effectOptionFunc func(*Effect)

func (f effectOptionFunc) applyEffect(e *Effect) { f(e) }

// Defer suppresses the immediate run at creation time. The effect instead
// runs at the start of the next flush, establishing its dependency set
// there. Useful when creation happens before its inputs are in a
// consistent state.
func Defer() EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.deferred = true
	})
}

// OnError routes panics from the effect body to handler instead of letting
// the flush rethrow them. The handler runs synchronously during the flush.
func OnError(handler func(error)) EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.onError = handler
	})
}

// EffectName sets a display name used in error reports and snapshots.
func EffectName(name string) EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.name = name
	})
}

// CreateEffect creates an effect under the current owner scope and, unless
// Defer is given, runs it synchronously once to establish its dependency
// set. The returned Effect's Dispose stops it permanently.
//
// Example:
//
//	rt.CreateEffect(func() reactive.Cleanup {
//	    fmt.Println("count is", count.Get())
//	    return func() { fmt.Println("cleanup") }
//	})
func (rt *Runtime) CreateEffect(fn func() Cleanup, opts ...EffectOption) *Effect {
	rt.effectSeq++
	e := &Effect{
		rt:    rt,
		id:    rt.allocNode(kindReaction),
		fn:    fn,
		owner: rt.owner,
		seq:   rt.effectSeq,
	}
	rt.nodeAt(e.id).reaction = e

	for _, opt := range opts {
		opt.applyEffect(e)
	}
	if e.name != "" {
		rt.setLabel(e.id, e.name)
	}
	if e.owner != nil {
		e.ownerSeq = e.owner.seq
		e.owner.registerEffect(e)
	}

	if e.deferred {
		rt.armed = append(rt.armed, e)
	} else {
		e.run()
	}
	return e
}

// run executes the body: stored cleanups first, then the body inside a
// fresh tracking frame under the creation-time owner, capturing the new
// dependency set and any new cleanup.
func (e *Effect) run() {
	if e.disposed {
		return
	}
	rt := e.rt

	e.pending = false
	e.runCleanups()

	rt.clearDeps(e.id)
	prevOwner := rt.setOwner(e.owner)
	prevEffect := rt.activeEffect
	rt.activeEffect = e
	rt.pushFrame(e.id)

	defer func() {
		deps := rt.popFrame()
		rt.activeEffect = prevEffect
		rt.setOwner(prevOwner)
		if e.disposed {
			// Disposed by its own body: the node slot is already freed,
			// so drop the read-time observer edges instead of binding.
			for _, dep := range deps {
				rt.removeObserver(dep, e.id)
			}
			return
		}
		rt.bindDeps(e.id, deps)
	}()

	if c := e.fn(); c != nil {
		e.cleanups = append(e.cleanups, c)
	}
}

// runCleanups runs and clears the stored cleanups in reverse order.
// A panicking cleanup is contained and logged so its siblings still run.
func (e *Effect) runCleanups() {
	cleanups := e.cleanups
	e.cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		runCleanupLogged(e.rt, cleanups[i])
	}
}

// addCleanup stores an extra teardown registered via OnCleanup while the
// effect body is running.
func (e *Effect) addCleanup(fn Cleanup) {
	e.cleanups = append(e.cleanups, fn)
}

// Name returns the effect's display name, if one was set.
func (e *Effect) Name() string {
	return e.name
}

// Disposed reports whether Dispose has been called.
func (e *Effect) Disposed() bool {
	return e.disposed
}

// Dispose runs the stored cleanups, unsubscribes the effect from all of
// its dependencies, and detaches it from its owner. A disposed effect is
// permanently inert and never runs again.
func (e *Effect) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.runCleanups()
	e.rt.freeNode(e.id)
	if e.owner != nil {
		e.owner.unregisterEffect(e)
	}
}
