// config.go: configuration for the lockfree map and its incinerator
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package lockfree

import (
	"time"

	"github.com/agilira/go-timecache"
)

// Config holds tuning parameters for a Map and the incinerator it shares
// with its collaborators (e.g. a channel queue reclaiming through the same
// engine).
type Config struct {
	// MaxTrieDepth is normalized by Validate to the range 1..8 (ceil(64/8));
	// values outside it become DefaultMaxTrieDepth. The trie does not read
	// this field: its descent is always bounded by the fixed 8-level limit.
	// Default: DefaultMaxTrieDepth.
	MaxTrieDepth int

	// ReclaimQueueWarnLen is the backlog length at which a garbage shard
	// logs a warning and reports RecordQueueBacklog. It does not bound
	// the queue; it only flags a sweeper that is falling behind.
	// Default: DefaultReclaimQueueWarnLen.
	ReclaimQueueWarnLen int

	// TryForceInterval is how often a background sweeper (see
	// StartSweeper) calls TryForce to drain every garbage shard. Validate
	// replaces 0 with DefaultTryForceInterval and rejects negative values.
	// Default: DefaultTryForceInterval.
	TryForceInterval time.Duration

	// Logger is used for debugging and monitoring.
	// If nil, NoOpLogger is used. Default: NoOpLogger.
	Logger Logger

	// TimeProvider supplies timestamps for pause/reclaim latency metrics.
	// If nil, a default implementation backed by go-timecache is used.
	TimeProvider TimeProvider

	// MetricsCollector is used for collecting operation metrics (insert,
	// get, remove, reclaim, pause duration, splits, queue backlog).
	// If nil, NoOpMetricsCollector is used (zero overhead).
	MetricsCollector MetricsCollector
}

// Default configuration values.
const (
	// DefaultMaxTrieDepth is the maximum trie depth (ceil(64/8)).
	DefaultMaxTrieDepth = maxDepth

	// DefaultTryForceInterval is how often StartSweeper attempts a pass.
	DefaultTryForceInterval = 500 * time.Millisecond
)

// Validate checks configuration parameters and applies sensible defaults.
// It never returns a non-nil error for the fields that only need
// normalization; it reports an error only for values that cannot be
// normalized sensibly (e.g. a negative ReclaimQueueWarnLen).
//
// This method is automatically called by New and NewWithHasher, so you
// typically don't need to call it manually.
func (c *Config) Validate() error {
	if c.MaxTrieDepth <= 0 || c.MaxTrieDepth > maxDepth {
		c.MaxTrieDepth = DefaultMaxTrieDepth
	}

	if c.ReclaimQueueWarnLen < 0 {
		return NewErrInvalidMaxSize("ReclaimQueueWarnLen", c.ReclaimQueueWarnLen)
	}
	if c.ReclaimQueueWarnLen == 0 {
		c.ReclaimQueueWarnLen = DefaultReclaimQueueWarnLen
	}

	if c.TryForceInterval < 0 {
		return NewErrInvalidConfig("TryForceInterval must be >= 0")
	}
	if c.TryForceInterval == 0 {
		c.TryForceInterval = DefaultTryForceInterval
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}

	if c.TimeProvider == nil {
		c.TimeProvider = &systemTimeProvider{}
	}

	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTrieDepth:        DefaultMaxTrieDepth,
		ReclaimQueueWarnLen: DefaultReclaimQueueWarnLen,
		TryForceInterval:    DefaultTryForceInterval,
		Logger:              NoOpLogger{},
		TimeProvider:        &systemTimeProvider{},
		MetricsCollector:    NoOpMetricsCollector{},
	}
}

// systemTimeProvider is the default time provider using go-timecache.
// This provides a cached clock with zero allocations, used to timestamp
// pause/reclaim latencies without a syscall on every hot-path sample.
type systemTimeProvider struct{}

func (t *systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}
