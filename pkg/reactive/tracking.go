package reactive

// trackFrame is one entry on the dependency-tracker stack. While a frame is
// on top, every cell or memo read is collected into it, and only into it:
// frames never leak reads to the frames beneath them, which is what makes
// dependency re-binding on recomputation correct.
type trackFrame struct {
	// observer is the node the collected dependencies belong to.
	observer nodeID

	// deps are the nodes read so far, deduplicated.
	deps []nodeID

	// tracking is false for the Untracked sentinel frame.
	tracking bool
}

// pushFrame begins collecting dependencies for the given observer.
func (rt *Runtime) pushFrame(observer nodeID) {
	rt.frames = append(rt.frames, trackFrame{observer: observer, tracking: true})
}

// pushUntracked begins a sentinel frame that swallows reads.
func (rt *Runtime) pushUntracked() {
	rt.frames = append(rt.frames, trackFrame{observer: invalidNode})
}

// popFrame ends the top frame and returns the dependencies it collected.
func (rt *Runtime) popFrame() []nodeID {
	top := len(rt.frames) - 1
	deps := rt.frames[top].deps
	rt.frames[top] = trackFrame{}
	rt.frames = rt.frames[:top]
	return deps
}

// recordRead registers src as a dependency of the computation on top of the
// tracker stack, if any. The edge is bidirectional: src gains an observer
// and the frame gains a dependency entry. Reads outside any frame, or under
// an Untracked sentinel, register nothing.
func (rt *Runtime) recordRead(src nodeID) {
	top := len(rt.frames) - 1
	if top < 0 {
		return
	}
	f := &rt.frames[top]
	if !f.tracking {
		return
	}
	for _, existing := range f.deps {
		if existing == src {
			return
		}
	}
	observer := f.observer
	f.deps = append(f.deps, src)
	rt.addObserver(src, observer)
}

// Untracked runs fn with dependency collection suspended. Signal and memo
// reads inside fn are invisible to the enclosing computation.
//
// For a single read, Peek on the signal or memo is clearer.
//
// Example:
//
//	rt.Untracked(func() {
//	    // Reading count here won't subscribe the enclosing effect.
//	    value := count.Get()
//	    _ = value
//	})
func (rt *Runtime) Untracked(fn func()) {
	rt.pushUntracked()
	defer rt.popFrame()
	fn()
}

// UntrackedGet evaluates fn with dependency collection suspended and
// returns its result. Convenient when the untracked read produces a value.
func UntrackedGet[T any](rt *Runtime, fn func() T) T {
	rt.pushUntracked()
	defer rt.popFrame()
	return fn()
}
