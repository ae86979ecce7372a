package inspect

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lumen-dev/lumen/pkg/reactive"
)

// MetricsConfig configures the Prometheus flush hook.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "lumen").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registerer is the Prometheus registerer to use.
	// Default: prometheus.DefaultRegisterer
	Registerer prometheus.Registerer
}

// MetricsOption configures the Prometheus flush hook.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the flush duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegisterer sets the Prometheus registerer.
func WithRegisterer(reg prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registerer = reg
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:   "lumen",
		Subsystem:   "",
		ConstLabels: nil,
		Buckets:     prometheus.DefBuckets,
		Registerer:  prometheus.DefaultRegisterer,
	}
}

// MetricsHook exports flush activity as Prometheus metrics.
//
// Metrics collected:
//   - lumen_flushes_total: Counter of completed flushes
//   - lumen_flush_passes_total: Counter of re-entrant flush passes
//   - lumen_reactions_run_total: Counter of reaction bodies executed
//   - lumen_reactions_skipped_total: Counter of reactions skipped by
//     version comparison
//   - lumen_recomputes_total: Counter of derived recomputations
//   - lumen_flush_duration_seconds: Histogram of flush wall time
//   - lumen_live_nodes: Gauge of live graph nodes
//   - lumen_live_owners: Gauge of live owner scopes
//
// Example:
//
//	rt := reactive.NewRuntime()
//	rt.AddHook(inspect.NewMetricsHook(rt,
//	    inspect.WithNamespace("myapp"),
//	))
//	http.Handle("/metrics", promhttp.Handler())
type MetricsHook struct {
	rt *reactive.Runtime

	flushesTotal     prometheus.Counter
	flushPassesTotal prometheus.Counter
	reactionsRun     prometheus.Counter
	reactionsSkipped prometheus.Counter
	recomputesTotal  prometheus.Counter
	flushDuration    prometheus.Histogram
	liveNodes        prometheus.Gauge
	liveOwners       prometheus.Gauge
}

// NewMetricsHook creates the Prometheus hook for rt. Attach it with
// rt.AddHook. Creating two hooks against the same registerer panics on
// duplicate registration, the usual promauto behavior.
func NewMetricsHook(rt *reactive.Runtime, opts ...MetricsOption) *MetricsHook {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registerer)

	return &MetricsHook{
		rt: rt,

		flushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of completed flushes",
			ConstLabels: config.ConstLabels,
		}),

		flushPassesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_passes_total",
			Help:        "Total number of re-entrant flush passes",
			ConstLabels: config.ConstLabels,
		}),

		reactionsRun: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reactions_run_total",
			Help:        "Total number of reaction bodies executed",
			ConstLabels: config.ConstLabels,
		}),

		reactionsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reactions_skipped_total",
			Help:        "Total number of reactions skipped because no dependency version changed",
			ConstLabels: config.ConstLabels,
		}),

		recomputesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "recomputes_total",
			Help:        "Total number of derived recomputations",
			ConstLabels: config.ConstLabels,
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Flush wall time in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		liveNodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_nodes",
			Help:        "Number of live graph nodes",
			ConstLabels: config.ConstLabels,
		}),

		liveOwners: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_owners",
			Help:        "Number of live owner scopes",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// AfterFlush implements reactive.Hook. It runs on the engine goroutine,
// so reading the runtime's counters here is race-free.
func (m *MetricsHook) AfterFlush(info reactive.FlushInfo) {
	m.flushesTotal.Inc()
	m.flushPassesTotal.Add(float64(info.Passes))
	m.reactionsRun.Add(float64(info.ReactionsRun))
	m.reactionsSkipped.Add(float64(info.ReactionsSkipped))
	m.recomputesTotal.Add(float64(info.Recomputes))
	m.flushDuration.Observe(info.Duration.Seconds())

	stats := m.rt.Stats()
	m.liveNodes.Set(float64(stats.LiveNodes))
	m.liveOwners.Set(float64(stats.LiveOwners))
}
