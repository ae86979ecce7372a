package reactive

// nodeID is a stable index into the runtime's node arena.
// Edges between reactive primitives are stored as node IDs rather than
// pointers, so subscribe/unsubscribe are O(1) slice operations and a
// disposed node can never leave a dangling reference behind.
type nodeID uint32

// invalidNode is the zero-effort "no node" sentinel.
const invalidNode = nodeID(^uint32(0))

// nodeKind discriminates the three reactive primitives.
type nodeKind uint8

const (
	kindCell nodeKind = iota + 1
	kindDerived
	kindReaction
)

// String returns a human-readable name for the node kind.
func (k nodeKind) String() string {
	switch k {
	case kindCell:
		return "cell"
	case kindDerived:
		return "derived"
	case kindReaction:
		return "reaction"
	default:
		return "unknown"
	}
}

// derivedState tracks the recomputation state of a derived node.
type derivedState uint8

const (
	stateClean derivedState = iota
	stateDirty
	stateComputing
)

// node is one entry in the runtime's arena. Cells, memos, and effects all
// allocate a node; the typed wrapper keeps the value, the node keeps the
// graph bookkeeping.
//
// Liveness is decided by the owner tree, not by the dependency graph: an
// observer entry is a non-owning index and never keeps its target alive.
type node struct {
	kind nodeKind
	live bool

	// state is meaningful for derived nodes only.
	state derivedState

	// version increases strictly on every observably different value.
	version uint64

	// observers are the nodes that depend on this one (cells and derived).
	observers []nodeID

	// deps are the nodes this one read during its last run (derived and
	// reactions), with the version observed at that time. The two slices
	// are kept in lockstep.
	deps        []nodeID
	depVersions []uint64

	// refresh recomputes a dirty derived node. nil for cells and reactions.
	refresh func()

	// reaction is the effect behind a reaction node. nil otherwise.
	reaction *Effect

	// label is an optional display name for inspection.
	label string
}

// allocNode reserves an arena slot for a new node of the given kind.
// Freed slots are reused before the arena grows.
func (rt *Runtime) allocNode(kind nodeKind) nodeID {
	rt.liveNodes++
	if n := len(rt.freeIDs); n > 0 {
		id := rt.freeIDs[n-1]
		rt.freeIDs = rt.freeIDs[:n-1]
		rt.nodes[id] = node{kind: kind, live: true}
		return id
	}
	rt.nodes = append(rt.nodes, node{kind: kind, live: true})
	return nodeID(len(rt.nodes) - 1)
}

// freeNode detaches a node from the graph in both directions and returns
// its slot to the free list. Safe to call once per node; callers guard
// against double-free with their own disposed flags.
func (rt *Runtime) freeNode(id nodeID) {
	n := rt.nodeAt(id)
	if !n.live {
		return
	}

	// Drop incoming edges: anything this node was reading.
	rt.clearDeps(id)

	// Drop outgoing edges: anything reading this node forgets it.
	n = rt.nodeAt(id)
	observers := append([]nodeID(nil), n.observers...)
	for _, obs := range observers {
		rt.removeDep(obs, id)
	}

	rt.nodes[id] = node{}
	rt.freeIDs = append(rt.freeIDs, id)
	rt.liveNodes--
}

// nodeAt returns the node for an ID. The pointer is only valid until the
// next allocation; callers must not hold it across user code.
func (rt *Runtime) nodeAt(id nodeID) *node {
	return &rt.nodes[id]
}

// addObserver records obs as an observer of src. Deduplicated by ID.
func (rt *Runtime) addObserver(src, obs nodeID) {
	n := rt.nodeAt(src)
	for _, existing := range n.observers {
		if existing == obs {
			return
		}
	}
	n.observers = append(n.observers, obs)
}

// removeObserver removes obs from src's observers by swap-remove.
// Order does not matter for observer sets.
func (rt *Runtime) removeObserver(src, obs nodeID) {
	n := rt.nodeAt(src)
	for i, existing := range n.observers {
		if existing == obs {
			last := len(n.observers) - 1
			n.observers[i] = n.observers[last]
			n.observers = n.observers[:last]
			return
		}
	}
}

// removeDep removes src from obs's dependency list, keeping depVersions
// in lockstep.
func (rt *Runtime) removeDep(obs, src nodeID) {
	n := rt.nodeAt(obs)
	for i, existing := range n.deps {
		if existing == src {
			last := len(n.deps) - 1
			n.deps[i] = n.deps[last]
			n.deps = n.deps[:last]
			n.depVersions[i] = n.depVersions[last]
			n.depVersions = n.depVersions[:last]
			return
		}
	}
}

// clearDeps unsubscribes id from everything it was reading.
// Called before a fresh tracking run so the dependency set can shrink.
func (rt *Runtime) clearDeps(id nodeID) {
	deps := append([]nodeID(nil), rt.nodeAt(id).deps...)
	for _, dep := range deps {
		rt.removeObserver(dep, id)
	}
	n := rt.nodeAt(id)
	n.deps = n.deps[:0]
	n.depVersions = n.depVersions[:0]
}

// bindDeps records the freshly collected dependency set for id along with
// the version of each dependency as observed by the run that just finished.
// Observer edges were already added at read time by recordRead. A dependency
// disposed after being read in the same run is skipped: its slot is already
// freed and may be reused by an unrelated node.
func (rt *Runtime) bindDeps(id nodeID, deps []nodeID) {
	n := rt.nodeAt(id)
	n.deps = n.deps[:0]
	n.depVersions = n.depVersions[:0]
	for _, dep := range deps {
		d := rt.nodeAt(dep)
		if !d.live {
			continue
		}
		n.deps = append(n.deps, dep)
		n.depVersions = append(n.depVersions, d.version)
	}
}

// refreshIfDirty lazily recomputes a derived dependency so its version is
// current before comparison. Cells and reactions are untouched.
func (rt *Runtime) refreshIfDirty(id nodeID) {
	n := rt.nodeAt(id)
	if n.kind == kindDerived && n.state != stateClean && n.refresh != nil {
		n.refresh()
	}
}

// depsChanged reports whether any dependency of id has a version different
// from the one recorded at id's last run. Dirty derived dependencies are
// refreshed first, so an equal recomputation does not count as a change.
func (rt *Runtime) depsChanged(id nodeID) bool {
	n := rt.nodeAt(id)
	deps := append([]nodeID(nil), n.deps...)
	versions := append([]uint64(nil), n.depVersions...)

	for i, dep := range deps {
		rt.refreshIfDirty(dep)
		if rt.nodeAt(dep).version != versions[i] {
			return true
		}
	}
	return false
}
