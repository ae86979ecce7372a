package inspect

import (
	"sort"
	"sync"
)

// Observable is the read-only surface the registry needs from a tracked
// primitive. Both Signal[T] and Memo[T] satisfy it.
type Observable interface {
	// Version increases on every observably different value.
	Version() uint64

	// InspectValue returns the current value untyped, without tracking.
	InspectValue() any
}

// entry is one tracked observable.
type entry struct {
	kind string
	obs  Observable
}

// Registry is a name-to-observable index for devtools display. Tracking an
// observable is non-owning: the registry never keeps it alive, never
// subscribes to it, and reading through the registry records no
// dependencies.
//
// Registry is safe for concurrent use; the inspector server reads it from
// HTTP handler goroutines while the application registers from the engine
// goroutine.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// TrackSignal registers a signal under name. Re-tracking a name replaces
// the previous entry.
func (r *Registry) TrackSignal(name string, s Observable) {
	r.track(name, "signal", s)
}

// TrackComputed registers a memo under name. Re-tracking a name replaces
// the previous entry.
func (r *Registry) TrackComputed(name string, m Observable) {
	r.track(name, "computed", m)
}

func (r *Registry) track(name, kind string, obs Observable) {
	if obs == nil {
		return
	}
	r.mu.Lock()
	r.entries[name] = entry{kind: kind, obs: obs}
	r.mu.Unlock()
}

// Untrack removes the entry under name, if any. Call this when the
// observable's scope is disposed so the registry does not serve values
// from dead primitives.
func (r *Registry) Untrack(name string) {
	r.mu.Lock()
	delete(r.entries, name)
	r.mu.Unlock()
}

// Len returns the number of tracked observables.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Names returns the tracked names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Value describes one tracked observable for display.
type Value struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Version uint64 `json:"version"`
	Value   any    `json:"value"`
}

// Values returns a display row per tracked observable, sorted by name.
// Values are read via InspectValue, so no dependencies are recorded and
// no stale memo is forced to recompute.
func (r *Registry) Values() []Value {
	r.mu.RLock()
	rows := make([]Value, 0, len(r.entries))
	for name, e := range r.entries {
		rows = append(rows, Value{
			Name:    name,
			Kind:    e.kind,
			Version: e.obs.Version(),
			Value:   e.obs.InspectValue(),
		})
	}
	r.mu.RUnlock()
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows
}
