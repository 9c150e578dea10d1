// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
//
// # Overview
//
// This package implements the lockfree.MetricsCollector interface using
// OpenTelemetry, so a Map's insert/get/remove/reclaim latencies and
// counters can be exported to Prometheus, Jaeger, DataDog, or any other
// OTEL-compatible backend.
//
// It is a separate module so the core lockfree package carries no OTEL
// dependency: applications that don't wire a MetricsCollector don't pay
// for it.
//
// # Quick Start
//
//	exporter, err := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	defer provider.Shutdown(context.Background())
//
//	collector, err := lockfreeotel.NewOTelMetricsCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	m := lockfree.New[string, User](lockfree.Config{
//	    MetricsCollector: collector,
//	})
//
// # Metrics Exposed
//
// Histograms:
//   - lockfree_insert_latency_ns, lockfree_get_latency_ns, lockfree_remove_latency_ns
//   - lockfree_reclaim_latency_ns, lockfree_pause_duration_ns
//
// Counters:
//   - lockfree_get_hits_total, lockfree_get_misses_total
//   - lockfree_inserts_displaced_total, lockfree_reclaimed_total, lockfree_splits_total
//
// Gauge:
//   - lockfree_queue_backlog (attributed by shard index)
//
// # Prometheus Queries
//
//	histogram_quantile(0.99, rate(lockfree_get_latency_ns_bucket[5m]))
//	rate(lockfree_get_hits_total[5m]) /
//	    (rate(lockfree_get_hits_total[5m]) + rate(lockfree_get_misses_total[5m]))
//
// # Thread Safety
//
// All methods are safe for concurrent use; the underlying OTEL
// instruments are themselves lock-free.
package otel
