// interfaces.go: public interfaces for the lockfree package
package lockfree

// HashBuilder produces a 64-bit hash for keys of type K. A Map owns exactly
// one HashBuilder instance for its lifetime, mirroring the "hash builder
// built once, hasher instantiated per hash" split of the design this
// package is modeled on.
type HashBuilder[K any] interface {
	// Hash returns the 64-bit hash of key. It must be deterministic for
	// equal keys and should be safe for concurrent use by many goroutines.
	Hash(key K) uint64
}

// Logger defines a minimal logging interface with zero overhead.
// Implementations should use structured logging and be allocation-free.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keyvals ...interface{})

	// Info logs an info message with optional key-value pairs.
	Info(msg string, keyvals ...interface{})

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keyvals ...interface{})

	// Error logs an error message with optional key-value pairs.
	Error(msg string, keyvals ...interface{})
}

// NoOpLogger is a logger that does nothing. Used as default to avoid nil checks.
type NoOpLogger struct{}

func (NoOpLogger) Debug(msg string, keyvals ...interface{}) {}
func (NoOpLogger) Info(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Warn(msg string, keyvals ...interface{})  {}
func (NoOpLogger) Error(msg string, keyvals ...interface{}) {}

// TimeProvider provides current time with caching for performance.
// This interface allows injecting optimized time implementations, or a
// fake clock in tests.
type TimeProvider interface {
	// Now returns the current time in nanoseconds since epoch.
	// This method must be very fast and allocation-free.
	Now() int64
}

// MetricsCollector collects operation metrics for a Map and its incinerator.
// A nil-safe no-op implementation (NoOpMetricsCollector) is used by default.
type MetricsCollector interface {
	// RecordInsert is called after every Insert, with the operation's
	// latency and whether it displaced an existing pair.
	RecordInsert(latencyNanos int64, displaced bool)

	// RecordGet is called after every Get/GetValue/GetPair.
	RecordGet(latencyNanos int64, hit bool)

	// RecordRemove is called after every Remove.
	RecordRemove(latencyNanos int64, found bool)

	// RecordReclaim is called whenever a drain frees anything, with the
	// number of pointers freed and, for a TryForce pass, the time spent
	// freeing them; a drain run inline by Add reports a latency of 0.
	RecordReclaim(count int, latencyNanos int64)

	// RecordPauseDuration is called when a pause critical section ends.
	RecordPauseDuration(latencyNanos int64)

	// RecordSplit is called when a leaf is split into a branch, with the
	// depth at which the split occurred.
	RecordSplit(depth int)

	// RecordQueueBacklog reports the current length of a garbage shard's
	// queue; used to surface a growing backlog before it matters.
	RecordQueueBacklog(shardIndex, length int)
}

// NoOpMetricsCollector implements MetricsCollector with no side effects.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordInsert(latencyNanos int64, displaced bool) {}
func (NoOpMetricsCollector) RecordGet(latencyNanos int64, hit bool)          {}
func (NoOpMetricsCollector) RecordRemove(latencyNanos int64, found bool)     {}
func (NoOpMetricsCollector) RecordReclaim(count int, latencyNanos int64)     {}
func (NoOpMetricsCollector) RecordPauseDuration(latencyNanos int64)          {}
func (NoOpMetricsCollector) RecordSplit(depth int)                          {}
func (NoOpMetricsCollector) RecordQueueBacklog(shardIndex, length int)       {}
