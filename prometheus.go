package bsi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector exports index metrics through client_golang.
type PrometheusCollector struct {
	ops     *prometheus.CounterVec
	errors  *prometheus.CounterVec
	latency *prometheus.HistogramVec
	items   prometheus.Counter
	batches prometheus.Counter
}

var _ MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates the collector and registers its metrics
// on reg. A nil reg registers on prometheus.DefaultRegisterer.
func NewPrometheusCollector(namespace string, reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &PrometheusCollector{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bsi",
			Name:      "operations_total",
			Help:      "Number of index operations by kind.",
		}, []string{"op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bsi",
			Name:      "errors_total",
			Help:      "Number of failed index operations by kind.",
		}, []string{"op"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bsi",
			Name:      "operation_duration_seconds",
			Help:      "Latency of index operations by kind.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"op"}),
		items: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bsi",
			Name:      "set_values_items_total",
			Help:      "Number of key/value pairs assigned through SetValues.",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bsi",
			Name:      "parallel_batches_total",
			Help:      "Number of batches executed by parallel queries.",
		}),
	}

	for _, c := range []prometheus.Collector{p.ops, p.errors, p.latency, p.items, p.batches} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *PrometheusCollector) observe(op string, d time.Duration, err error) {
	p.ops.WithLabelValues(op).Inc()
	p.latency.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		p.errors.WithLabelValues(op).Inc()
	}
}

// RecordSetValues implements MetricsCollector.
func (p *PrometheusCollector) RecordSetValues(count int, d time.Duration, err error) {
	p.items.Add(float64(count))
	p.observe("set_values", d, err)
}

// RecordAdd implements MetricsCollector.
func (p *PrometheusCollector) RecordAdd(d time.Duration) { p.observe("add", d, nil) }

// RecordMerge implements MetricsCollector.
func (p *PrometheusCollector) RecordMerge(d time.Duration, err error) { p.observe("merge", d, err) }

// RecordCompare implements MetricsCollector.
func (p *PrometheusCollector) RecordCompare(op Operation, d time.Duration, err error) {
	p.observe("compare_"+op.String(), d, err)
}

// RecordAggregate implements MetricsCollector.
func (p *PrometheusCollector) RecordAggregate(kind string, d time.Duration, err error) {
	p.observe(kind, d, err)
}

// RecordParallel implements MetricsCollector.
func (p *PrometheusCollector) RecordParallel(name string, batches int, d time.Duration, err error) {
	p.batches.Add(float64(batches))
	p.observe("parallel_"+name, d, err)
}
