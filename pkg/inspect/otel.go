package inspect

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/strata-ui/strata/pkg/strata"
)

// Default tracer name for strata instrumentation.
const defaultTracerName = "strata"

// TracingConfig configures the OpenTelemetry write instrumentation.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "strata").
	TracerName string

	// IncludeKeys includes the patched field names in spans.
	// Enabled by default; disable if field names are sensitive.
	IncludeKeys bool

	// Filter determines which writes to trace.
	// Return true to trace the write, false to skip.
	// If nil, all writes are traced.
	Filter func(ev strata.WriteEvent) bool

	// AttributeExtractor extracts custom attributes from the write event.
	AttributeExtractor func(ev strata.WriteEvent) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TracingOption configures the OpenTelemetry write instrumentation.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithIncludeKeys enables/disables recording patched field names.
func WithIncludeKeys(include bool) TracingOption {
	return func(c *TracingConfig) {
		c.IncludeKeys = include
	}
}

// WithWriteFilter sets a filter function for writes.
func WithWriteFilter(filter func(ev strata.WriteEvent) bool) TracingOption {
	return func(c *TracingConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ev strata.WriteEvent) []attribute.KeyValue) TracingOption {
	return func(c *TracingConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultTracingConfig() TracingConfig {
	return TracingConfig{
		TracerName:  defaultTracerName,
		IncludeKeys: true,
	}
}

// Tracing returns a store option that records an OpenTelemetry span for
// every store write, with store name, patched keys, and subscriber count
// as attributes.
//
// The store reports writes after they complete, so spans are created with
// explicit start and end timestamps taken from the write event rather than
// wrapped around the write.
//
// The tracer uses the global OpenTelemetry tracer provider; configure it
// in main() before creating stores:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
//	store := strata.New(AppState{},
//	    strata.WithName("app"),
//	    inspect.Tracing(inspect.WithTracerName("my-app")),
//	)
func Tracing(opts ...TracingOption) strata.Option {
	config := defaultTracingConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Resolve tracer from global provider
	config.tracer = otel.Tracer(config.TracerName)

	return strata.WithWriteHook(func(ev strata.WriteEvent) {
		if config.Filter != nil && !config.Filter(ev) {
			return
		}

		store := ev.Store
		if store == "" {
			store = "anonymous"
		}

		attrs := []attribute.KeyValue{
			attribute.String("strata.store", store),
			attribute.Int("strata.subscribers", ev.Subscribers),
		}
		if config.IncludeKeys && len(ev.Keys) > 0 {
			attrs = append(attrs, attribute.StringSlice("strata.keys", ev.Keys))
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(ev)...)
		}

		_, span := config.tracer.Start(context.Background(), "strata.write",
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithTimestamp(ev.Start),
			trace.WithAttributes(attrs...),
		)
		span.End(trace.WithTimestamp(ev.Start.Add(ev.Duration)))
	})
}
