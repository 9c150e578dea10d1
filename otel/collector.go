// Package otel provides OpenTelemetry integration for lockfree map metrics.
//
// This package implements the lockfree.MetricsCollector interface using
// OpenTelemetry, enabling percentile calculation (p50, p95, p99) and
// multi-backend export (Prometheus, Jaeger, DataDog, Grafana) without
// pulling OTEL dependencies into the core module.
//
// # Usage
//
//	import (
//	    "github.com/lockfree-go/lockfree"
//	    lockfreeotel "github.com/lockfree-go/lockfree/otel"
//	    "go.opentelemetry.io/otel/exporters/prometheus"
//	    "go.opentelemetry.io/otel/sdk/metric"
//	)
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	collector, _ := lockfreeotel.NewOTelMetricsCollector(provider)
//
//	m := lockfree.New[string, string](lockfree.Config{
//	    MetricsCollector: collector,
//	})
//
// # Metrics Exposed
//
//   - lockfree_insert_latency_ns, lockfree_get_latency_ns, lockfree_remove_latency_ns: histograms
//   - lockfree_get_hits_total, lockfree_get_misses_total: counters
//   - lockfree_inserts_displaced_total: counter
//   - lockfree_reclaimed_total, lockfree_reclaim_latency_ns: counter, histogram
//   - lockfree_pause_duration_ns: histogram
//   - lockfree_splits_total: counter
//   - lockfree_queue_backlog: gauge, one data point per shard index
package otel

import (
	"context"
	"errors"

	"github.com/lockfree-go/lockfree"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsCollector implements lockfree.MetricsCollector using OpenTelemetry.
//
// Thread-safety: safe for concurrent use; the underlying OTEL instruments
// are themselves lock-free.
type OTelMetricsCollector struct {
	insertLatency  metric.Int64Histogram
	getLatency     metric.Int64Histogram
	removeLatency  metric.Int64Histogram
	reclaimLatency metric.Int64Histogram
	pauseDuration  metric.Int64Histogram

	hits      metric.Int64Counter
	misses    metric.Int64Counter
	displaced metric.Int64Counter
	reclaimed metric.Int64Counter
	splits    metric.Int64Counter
	backlog   metric.Int64Gauge
}

// Options configures OTelMetricsCollector.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter. Default:
	// "github.com/lockfree-go/lockfree".
	MeterName string
}

// Option is a functional option for configuring OTelMetricsCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful for distinguishing
// metrics from multiple Map instances.
func WithMeterName(name string) Option {
	return func(o *Options) {
		o.MeterName = name
	}
}

// NewOTelMetricsCollector builds a collector backed by provider. provider
// must not be nil.
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/lockfree-go/lockfree"}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	c := &OTelMetricsCollector{}

	var err error
	if c.insertLatency, err = meter.Int64Histogram("lockfree_insert_latency_ns",
		metric.WithDescription("Latency of Insert operations in nanoseconds"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.getLatency, err = meter.Int64Histogram("lockfree_get_latency_ns",
		metric.WithDescription("Latency of Get operations in nanoseconds"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.removeLatency, err = meter.Int64Histogram("lockfree_remove_latency_ns",
		metric.WithDescription("Latency of Remove operations in nanoseconds"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.reclaimLatency, err = meter.Int64Histogram("lockfree_reclaim_latency_ns",
		metric.WithDescription("Latency of incinerator drain passes in nanoseconds"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.pauseDuration, err = meter.Int64Histogram("lockfree_pause_duration_ns",
		metric.WithDescription("Duration readers spend inside an incinerator pause"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.hits, err = meter.Int64Counter("lockfree_get_hits_total",
		metric.WithDescription("Total number of Get hits")); err != nil {
		return nil, err
	}
	if c.misses, err = meter.Int64Counter("lockfree_get_misses_total",
		metric.WithDescription("Total number of Get misses")); err != nil {
		return nil, err
	}
	if c.displaced, err = meter.Int64Counter("lockfree_inserts_displaced_total",
		metric.WithDescription("Total number of Insert calls that displaced an existing value")); err != nil {
		return nil, err
	}
	if c.reclaimed, err = meter.Int64Counter("lockfree_reclaimed_total",
		metric.WithDescription("Total number of nodes freed by the incinerator")); err != nil {
		return nil, err
	}
	if c.splits, err = meter.Int64Counter("lockfree_splits_total",
		metric.WithDescription("Total number of leaf-to-branch trie splits")); err != nil {
		return nil, err
	}
	if c.backlog, err = meter.Int64Gauge("lockfree_queue_backlog",
		metric.WithDescription("Most recently observed incinerator shard backlog length")); err != nil {
		return nil, err
	}

	return c, nil
}

// RecordInsert implements lockfree.MetricsCollector.
func (c *OTelMetricsCollector) RecordInsert(latencyNanos int64, displaced bool) {
	ctx := context.Background()
	c.insertLatency.Record(ctx, latencyNanos)
	if displaced {
		c.displaced.Add(ctx, 1)
	}
}

// RecordGet implements lockfree.MetricsCollector.
func (c *OTelMetricsCollector) RecordGet(latencyNanos int64, hit bool) {
	ctx := context.Background()
	c.getLatency.Record(ctx, latencyNanos)
	if hit {
		c.hits.Add(ctx, 1)
	} else {
		c.misses.Add(ctx, 1)
	}
}

// RecordRemove implements lockfree.MetricsCollector.
func (c *OTelMetricsCollector) RecordRemove(latencyNanos int64, found bool) {
	c.removeLatency.Record(context.Background(), latencyNanos)
}

// RecordReclaim implements lockfree.MetricsCollector.
func (c *OTelMetricsCollector) RecordReclaim(count int, latencyNanos int64) {
	ctx := context.Background()
	c.reclaimed.Add(ctx, int64(count))
	c.reclaimLatency.Record(ctx, latencyNanos)
}

// RecordPauseDuration implements lockfree.MetricsCollector.
func (c *OTelMetricsCollector) RecordPauseDuration(latencyNanos int64) {
	c.pauseDuration.Record(context.Background(), latencyNanos)
}

// RecordSplit implements lockfree.MetricsCollector.
func (c *OTelMetricsCollector) RecordSplit(depth int) {
	c.splits.Add(context.Background(), 1, metric.WithAttributes(attribute.Int("depth", depth)))
}

// RecordQueueBacklog implements lockfree.MetricsCollector.
func (c *OTelMetricsCollector) RecordQueueBacklog(shardIndex, length int) {
	c.backlog.Record(context.Background(), int64(length), metric.WithAttributes(attribute.Int("shard", shardIndex)))
}

var _ lockfree.MetricsCollector = (*OTelMetricsCollector)(nil)
