package inspect

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lumen-dev/lumen/pkg/reactive"
)

// Default tracer name for reactive runtimes.
const defaultTracerName = "lumen"

// TraceConfig configures the OpenTelemetry flush hook.
type TraceConfig struct {
	// TracerName is the name of the tracer (default: "lumen").
	TracerName string

	// Filter determines which flushes to trace. Return true to trace the
	// flush, false to skip. If nil, all flushes are traced.
	Filter func(info reactive.FlushInfo) bool

	// AttributeExtractor extracts custom attributes per flush.
	AttributeExtractor func(info reactive.FlushInfo) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TraceOption configures the OpenTelemetry flush hook.
type TraceOption func(*TraceConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TraceOption {
	return func(c *TraceConfig) {
		c.TracerName = name
	}
}

// WithFlushFilter sets a filter function for flushes. A common use is
// skipping trivial flushes:
//
//	inspect.WithFlushFilter(func(info reactive.FlushInfo) bool {
//	    return info.ReactionsRun > 0
//	})
func WithFlushFilter(filter func(info reactive.FlushInfo) bool) TraceOption {
	return func(c *TraceConfig) {
		c.Filter = filter
	}
}

// WithFlushAttributes sets a custom attribute extractor.
func WithFlushAttributes(extractor func(info reactive.FlushInfo) []attribute.KeyValue) TraceOption {
	return func(c *TraceConfig) {
		c.AttributeExtractor = extractor
	}
}

// TraceHook records one span per completed flush.
//
// The span's timestamps are reconstructed from the flush duration, so the
// span covers the flush's actual wall-clock window even though it is
// created after the fact. The tracer comes from the global OpenTelemetry
// tracer provider; configure it in main() before attaching the hook:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//	rt.AddHook(inspect.NewTraceHook())
type TraceHook struct {
	config TraceConfig
}

// NewTraceHook creates the tracing hook. Attach it with rt.AddHook.
func NewTraceHook(opts ...TraceOption) *TraceHook {
	config := TraceConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)
	return &TraceHook{config: config}
}

// AfterFlush implements reactive.Hook.
func (h *TraceHook) AfterFlush(info reactive.FlushInfo) {
	if h.config.Filter != nil && !h.config.Filter(info) {
		return
	}

	end := time.Now()
	start := end.Add(-info.Duration)

	attrs := []attribute.KeyValue{
		attribute.Int("lumen.flush_passes", info.Passes),
		attribute.Int("lumen.reactions_run", info.ReactionsRun),
		attribute.Int("lumen.reactions_skipped", info.ReactionsSkipped),
		attribute.Int("lumen.recomputes", info.Recomputes),
	}
	if h.config.AttributeExtractor != nil {
		attrs = append(attrs, h.config.AttributeExtractor(info)...)
	}

	_, span := h.config.tracer.Start(
		context.Background(),
		"lumen.flush",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(start),
	)
	span.End(trace.WithTimestamp(end))
}
