package reactive

import (
	"log/slog"
	"time"
)

// Phase is the scheduler state for one flush cycle.
type Phase uint8

const (
	// PhaseIdle means no writes are outstanding.
	PhaseIdle Phase = iota

	// PhaseCollecting means writes have occurred but propagation is
	// deferred (inside a Batch or between write and flush).
	PhaseCollecting

	// PhaseFlushing means the runtime is executing pending reactions.
	PhaseFlushing
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCollecting:
		return "collecting"
	case PhaseFlushing:
		return "flushing"
	default:
		return "unknown"
	}
}

// DefaultMaxFlushPasses bounds re-entrant flush convergence. A flush that
// still has pending work after this many passes aborts with
// FlushDivergenceError instead of looping forever.
const DefaultMaxFlushPasses = 1000

// Runtime is the reactive engine instance. It owns the node arena, the
// tracking-frame stack, the current owner, and the flush scheduler.
//
// A Runtime is single-threaded and cooperative: all primitives created
// against it must be read and written from one goroutine. The tracker and
// owner stacks are strictly push/run/pop, so re-entrant use from effects
// and computations is safe. There is no locking; concurrent access from
// other goroutines must go through the pull-only Snapshot/Stats surface
// after handing data off on the engine goroutine (see pkg/inspect).
type Runtime struct {
	// Node arena. Slots are reused after disposal.
	nodes     []node
	freeIDs   []nodeID
	liveNodes int

	// owner is the scope that newly created primitives register with.
	owner *Owner

	// frames is the dependency-tracker stack. The top frame collects the
	// reads of the currently running computation; a non-tracking frame
	// makes reads invisible (Untracked).
	frames []trackFrame

	// activeEffect is the reaction whose body is currently running, for
	// OnCleanup registration inside effect bodies.
	activeEffect *Effect

	// Scheduler state.
	phase      Phase
	batchDepth int
	changed    []nodeID

	// armed holds deferred effects awaiting their first run at the start
	// of the next flush.
	armed []*Effect

	// ownerSeq and effectSeq number owners and effects in creation order.
	// Reactions execute in (owner, effect) creation order during a flush.
	ownerSeq  uint64
	effectSeq uint64

	maxFlushPasses int
	logger         *slog.Logger
	debug          bool
	hooks          []Hook

	stats Stats
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithMaxFlushPasses sets the bound on re-entrant flush passes before the
// runtime gives up with FlushDivergenceError. Values below 1 are ignored.
func WithMaxFlushPasses(n int) Option {
	return func(rt *Runtime) {
		if n >= 1 {
			rt.maxFlushPasses = n
		}
	}
}

// WithLogger sets the logger used for recovered cleanup panics and debug
// tracing. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithDebug enables debug-level flush tracing on the runtime's logger.
func WithDebug() Option {
	return func(rt *Runtime) {
		rt.debug = true
	}
}

// WithHook attaches an observation hook at construction time.
func WithHook(h Hook) Option {
	return func(rt *Runtime) {
		if h != nil {
			rt.hooks = append(rt.hooks, h)
		}
	}
}

// NewRuntime creates a reactive engine instance.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		maxFlushPasses: DefaultMaxFlushPasses,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// AddHook attaches an observation hook. Hooks are called on the engine
// goroutine after each flush completes; they must never write signals.
func (rt *Runtime) AddHook(h Hook) {
	if h != nil {
		rt.hooks = append(rt.hooks, h)
	}
}

// Phase returns the scheduler's current phase.
func (rt *Runtime) Phase() Phase {
	return rt.phase
}

// Hook observes engine activity for instrumentation (metrics, tracing,
// devtools). Hooks are read-only collaborators: they run after the flush
// has fully settled and must not touch the dependency graph.
type Hook interface {
	AfterFlush(FlushInfo)
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(FlushInfo)

// AfterFlush implements Hook.
func (f HookFunc) AfterFlush(info FlushInfo) { f(info) }

// FlushInfo summarizes one completed flush.
type FlushInfo struct {
	// Passes is how many re-entrant collection passes the flush needed.
	Passes int `json:"passes"`

	// ReactionsRun is the number of reaction bodies executed.
	ReactionsRun int `json:"reactions_run"`

	// ReactionsSkipped counts reactions that were reachable from a write
	// but whose dependency versions turned out unchanged.
	ReactionsSkipped int `json:"reactions_skipped"`

	// Recomputes is the number of derived recomputations during the flush.
	Recomputes int `json:"recomputes"`

	// Duration is wall time for the whole flush.
	Duration time.Duration `json:"duration_ns"`
}

// Stats is a snapshot of cumulative engine counters.
type Stats struct {
	Flushes          uint64 `json:"flushes"`
	FlushPasses      uint64 `json:"flush_passes"`
	CellWrites       uint64 `json:"cell_writes"`
	ReactionsRun     uint64 `json:"reactions_run"`
	ReactionsSkipped uint64 `json:"reactions_skipped"`
	Recomputes       uint64 `json:"recomputes"`
	Cycles           uint64 `json:"cycles"`
	Divergences      uint64 `json:"divergences"`
	LiveNodes        int    `json:"live_nodes"`
	LiveOwners       int    `json:"live_owners"`
}

// Stats returns the current cumulative counters.
func (rt *Runtime) Stats() Stats {
	s := rt.stats
	s.LiveNodes = rt.liveNodes
	return s
}

// NodeInfo describes one live node for inspection. The snapshot surface is
// pull-only and performs no tracking, so inspectors can never perturb the
// dependency graph or flush ordering.
type NodeInfo struct {
	ID           uint64 `json:"id"`
	Kind         string `json:"kind"`
	Label        string `json:"label,omitempty"`
	Version      uint64 `json:"version"`
	Observers    int    `json:"observers"`
	Dependencies int    `json:"dependencies"`
	Stale        bool   `json:"stale,omitempty"`
}

// Snapshot returns a description of every live node in the graph.
func (rt *Runtime) Snapshot() []NodeInfo {
	infos := make([]NodeInfo, 0, rt.liveNodes)
	for id := range rt.nodes {
		n := &rt.nodes[id]
		if !n.live {
			continue
		}
		infos = append(infos, NodeInfo{
			ID:           uint64(id),
			Kind:         n.kind.String(),
			Label:        n.label,
			Version:      n.version,
			Observers:    len(n.observers),
			Dependencies: len(n.deps),
			Stale:        n.kind == kindDerived && n.state != stateClean,
		})
	}
	return infos
}

// setLabel attaches a display name to a node for Snapshot output.
func (rt *Runtime) setLabel(id nodeID, label string) {
	rt.nodeAt(id).label = label
}

// setOwner swaps the current owner, returning the previous one.
func (rt *Runtime) setOwner(o *Owner) *Owner {
	prev := rt.owner
	rt.owner = o
	return prev
}
