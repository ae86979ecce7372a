package reactive

import (
	"fmt"
	"sort"
	"time"
)

// cellWritten hands a changed source node to the scheduler. The new value is
// already applied and the version already bumped: batching defers effects,
// never value visibility.
func (rt *Runtime) cellWritten(id nodeID) {
	rt.stats.CellWrites++

	switch rt.phase {
	case PhaseIdle:
		rt.phase = PhaseCollecting
		rt.changed = append(rt.changed, id)
		if rt.batchDepth == 0 {
			rt.flush()
		}
	case PhaseCollecting:
		rt.changed = append(rt.changed, id)
	case PhaseFlushing:
		// Write from inside a reaction: absorbed into the current flush.
		rt.changed = append(rt.changed, id)
	}
}

// Batch groups multiple signal writes into a single flush. All writes inside
// fn are applied immediately but their propagation is coalesced, so each
// affected reaction runs at most once and never observes a half-updated
// world.
//
// Batches nest: inner batches coalesce into the outermost one, and calling
// Batch while a flush is running simply absorbs the writes into that flush.
//
// Example:
//
//	rt.Batch(func() {
//	    firstName.Set("John")
//	    lastName.Set("Doe")
//	    age.Set(30)
//	})
//	// Dependent effects run once with all three changes visible.
func (rt *Runtime) Batch(fn func()) {
	rt.batchDepth++
	defer func() {
		rt.batchDepth--
		if rt.batchDepth == 0 && rt.phase == PhaseCollecting {
			rt.flush()
		}
	}()
	fn()
}

// flush propagates all collected writes to completion: Collecting →
// Flushing → Idle. Dirtiness is walked through derived nodes without
// recomputing them, pending reactions are deduplicated and executed in
// owner-creation order, and writes made by reactions are absorbed into
// further passes up to maxFlushPasses.
func (rt *Runtime) flush() {
	rt.phase = PhaseFlushing
	start := time.Now()
	statsBefore := rt.stats

	var firstErr *ReactionError
	passes := 0

	defer func() {
		rt.phase = PhaseIdle
		rt.stats.Flushes++
		rt.stats.FlushPasses += uint64(passes)

		info := FlushInfo{
			Passes:           passes,
			ReactionsRun:     int(rt.stats.ReactionsRun - statsBefore.ReactionsRun),
			ReactionsSkipped: int(rt.stats.ReactionsSkipped - statsBefore.ReactionsSkipped),
			Recomputes:       int(rt.stats.Recomputes - statsBefore.Recomputes),
			Duration:         time.Since(start),
		}
		for _, h := range rt.hooks {
			h.AfterFlush(info)
		}
		if rt.debug {
			rt.logger.Debug("flush complete",
				"passes", info.Passes,
				"reactions_run", info.ReactionsRun,
				"reactions_skipped", info.ReactionsSkipped,
				"recomputes", info.Recomputes,
				"duration", info.Duration)
		}
	}()

	// Deferred effects take their first run now, before propagation, so
	// the flush that follows sees their dependency sets.
	if len(rt.armed) > 0 {
		armed := rt.armed
		rt.armed = nil
		for _, e := range armed {
			if e.disposed {
				continue
			}
			if err := rt.runReaction(e, func() {
				rt.stats.ReactionsRun++
				e.run()
			}); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	for len(rt.changed) > 0 {
		passes++
		if passes > rt.maxFlushPasses {
			rt.changed = rt.changed[:0]
			rt.stats.Divergences++
			panic(&FlushDivergenceError{Passes: rt.maxFlushPasses})
		}

		changed := rt.changed
		rt.changed = nil

		// Mark phase: walk observers transitively, flipping derived nodes
		// to dirty without recomputing them and collecting reactions.
		pending := rt.collectPending(changed)

		// Run phase: owner-creation order, parents before children,
		// siblings in creation order, each reaction at most once.
		sort.Slice(pending, func(i, j int) bool {
			a, b := pending[i], pending[j]
			if a.ownerSeq != b.ownerSeq {
				return a.ownerSeq < b.ownerSeq
			}
			return a.seq < b.seq
		})

		for _, e := range pending {
			if e.disposed || !e.pending {
				continue
			}
			e.pending = false

			// The dependency re-check refreshes dirty derived dependencies,
			// so a failing or cyclic compute surfaces here, inside the same
			// per-reaction containment as the body: the pass must complete
			// and the pending/dirty bookkeeping must stay consistent no
			// matter which half fails.
			if err := rt.runReaction(e, func() {
				// A reaction reached only through derived nodes may turn
				// out unaffected once those recompute to equal values.
				if !rt.depsChanged(e.id) {
					rt.stats.ReactionsSkipped++
					return
				}
				rt.stats.ReactionsRun++
				e.run()
			}); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr != nil {
		// One reaction's failure must not starve the others; it is
		// rethrown only after the whole flush has settled.
		panic(firstErr)
	}
}

// collectPending walks the dependency DAG from the changed sources and
// returns the set of reactions to consider, deduplicated via each effect's
// pending flag. Derived nodes are marked dirty but never recomputed here;
// recomputation stays pull-driven. Already-dirty derived nodes are still
// walked through: one may have stayed dirty because its last compute
// failed, and the reactions behind it must be collected so their re-check
// retries it.
func (rt *Runtime) collectPending(changed []nodeID) []*Effect {
	var pending []*Effect
	visited := make(map[nodeID]bool)
	var visit func(id nodeID)
	visit = func(id nodeID) {
		observers := append([]nodeID(nil), rt.nodeAt(id).observers...)
		for _, obs := range observers {
			n := rt.nodeAt(obs)
			if !n.live {
				continue
			}
			switch n.kind {
			case kindDerived:
				if n.state == stateClean {
					n.state = stateDirty
				}
				if !visited[obs] {
					visited[obs] = true
					visit(obs)
				}
			case kindReaction:
				e := n.reaction
				if e != nil && !e.disposed && !e.pending {
					e.pending = true
					pending = append(pending, e)
				}
			}
		}
	}
	for _, id := range changed {
		visit(id)
	}
	return pending
}

// runReaction executes one reaction's flush step inside panic containment.
// The step covers both the dependency re-check and the body run, so a
// derived dependency whose compute fails is charged to the reaction that
// demanded it. The error is routed to the reaction's OnError handler if
// one is set; otherwise it is returned for rethrow after the flush
// completes.
func (rt *Runtime) runReaction(e *Effect, step func()) (rerr *ReactionError) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			if e.onError != nil {
				e.onError(err)
				return
			}
			rerr = &ReactionError{Name: e.name, Err: err}
			rt.logger.Error("reaction failed", "reaction", e.name, "error", err)
		}
	}()

	step()
	return nil
}
