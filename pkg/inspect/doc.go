// Package inspect is the observation boundary for a reactive runtime:
// a registry of named observables for devtools, Prometheus and
// OpenTelemetry hooks over flush activity, and an HTTP inspector that
// serves graph snapshots over REST and a live WebSocket stream.
//
// Everything here is read-only with respect to the engine. Hooks run on
// the engine goroutine after a flush has settled and consume the
// pull-only Snapshot/Stats surface; nothing in this package subscribes
// through the dependency tracker, so attaching an inspector can never
// change what recomputes or in what order.
package inspect
