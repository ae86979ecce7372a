// Package reactive is a fine-grained reactive dependency-tracking engine:
// signals hold values, memos derive from them lazily, and effects re-run
// eagerly when something they read changed. Dependencies are discovered at
// runtime (reading a signal inside a computation subscribes that
// computation) and re-discovered on every run, so branches that change
// what a computation reads re-bind its subscriptions automatically.
//
// Everything hangs off an explicit Runtime rather than ambient package
// state:
//
//	rt := reactive.NewRuntime()
//	count := reactive.NewSignal(rt, 0)
//	doubled := reactive.NewMemo(rt, func() int { return count.Get() * 2 })
//	rt.CreateEffect(func() reactive.Cleanup {
//	    fmt.Println("doubled is", doubled.Get())
//	    return nil
//	})
//	count.Set(5) // effect re-runs once, printing 10
//
// # Propagation model
//
// A write marks its observers dirty and triggers a flush. Derived values
// are only marked during the flush; they recompute on the next read (pull
// model), so values nobody observes are never computed. Effects re-run
// during the flush (push model), each at most once, in the order their
// owner scopes were created. Because all marking happens before any effect
// runs, an effect never observes a half-propagated update: the classic
// diamond dependency produces exactly one run with consistent values.
//
// Batch coalesces several writes into one flush. Writes performed by
// effects during a flush are absorbed into the same flush, up to a bounded
// number of passes; exceeding the bound fails with FlushDivergenceError
// rather than hanging.
//
// # Lifetimes
//
// CreateRoot establishes an owner scope; primitives created while a scope
// is current are disposed with it, including transitively for child
// scopes. Context values provided within a scope are visible to every
// computation created inside it, for the computation's whole lifetime.
//
// # Threading
//
// A Runtime is single-threaded and cooperative. The dependency tracker's
// frame stack is strictly push/run/pop, which makes re-entrant use from
// computations safe without locks. Cross-goroutine consumers observe the
// engine through the pull-only Snapshot and Stats surfaces (see
// pkg/inspect).
package reactive
