package inspect

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/strata-ui/strata/pkg/strata"
)

// MetricsConfig configures store write metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "strata").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for write duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the metrics collector.
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

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "strata",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics collects Prometheus metrics for store writes. One Metrics
// instance can instrument any number of stores; metrics are labeled by
// store name.
//
// Metrics collected:
//   - strata_writes_total: Counter of writes by store
//   - strata_write_duration_seconds: Histogram of merge-plus-notify duration
//   - strata_notifications_total: Counter of subscriber invocations by store
//   - strata_subscribers: Gauge of subscribers seen at the last write
type Metrics struct {
	writesTotal        *prometheus.CounterVec
	writeDuration      *prometheus.HistogramVec
	notificationsTotal *prometheus.CounterVec
	subscribers        *prometheus.GaugeVec
}

// NewMetrics creates a metrics collector. Registering the same collector
// metrics twice on one Prometheus registry panics, so create one Metrics
// per registry and share it across stores.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		writesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "writes_total",
			Help:        "Total number of store writes",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		writeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "write_duration_seconds",
			Help:        "Store write duration (merge plus notification) in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"store"}),

		notificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total number of subscriber notifications delivered",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		subscribers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscribers",
			Help:        "Number of subscribers observed at the last write",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),
	}
}

// Option returns a store option installing this collector's write hook.
// Pass it to strata.New alongside strata.WithName so the store label is
// meaningful.
func (m *Metrics) Option() strata.Option {
	return strata.WithWriteHook(m.Record)
}

// Record observes a single write event.
func (m *Metrics) Record(ev strata.WriteEvent) {
	store := ev.Store
	if store == "" {
		store = "anonymous"
	}

	m.writesTotal.WithLabelValues(store).Inc()
	m.writeDuration.WithLabelValues(store).Observe(ev.Duration.Seconds())
	m.notificationsTotal.WithLabelValues(store).Add(float64(ev.Subscribers))
	m.subscribers.WithLabelValues(store).Set(float64(ev.Subscribers))
}
