// Package lockfree provides a lock-free, concurrent hash-trie map with
// deferred memory reclamation.
//
// # Overview
//
// lockfree is designed for workloads that read and write a shared map from
// many goroutines without taking a lock, focusing on:
//   - Concurrency: the trie and its bucket lists change only through
//     atomic compare-and-swap; the only mutexes are the briefly held locks
//     on the incinerator's garbage shards
//   - Safe reclamation: freed nodes are not released to the garbage
//     collector until every goroutine that might still hold a pointer into
//     them has passed through a quiescent point (the "incinerator")
//   - Type Safety: generic API with compile-time type checking
//   - Observability: structured logging, metrics, and OpenTelemetry
//     integration (optional separate package)
//
// # Features
//
//   - Hash Trie: branching hash table of tables, 256-way fan-out per level,
//     grown on demand by splitting a leaf into a branch when a key with a
//     different hash maps to the same slot
//   - Lock-Free Design: CAS loops on every write path; reads take no lock
//     except when handing an unlinked list cell to the incinerator
//   - Type-Safe Generics: Map[K any, V any], built by New for cmp.Ordered
//     keys or by NewWithHasher with an explicit less function
//   - Deferred Reclamation: an incinerator defers freeing a removed node
//     until no goroutine can still be dereferencing it
//   - GetOrInsert API: cache-stampede prevention with a singleflight
//     pattern, so N concurrent misses for the same key run one loader
//   - Structured Errors: rich error context with error codes
//   - Metrics Collection: MetricsCollector interface for observability
//
// # Quick Start
//
// Basic usage with generics:
//
//	import "github.com/lockfree-go/lockfree"
//
//	type User struct {
//	    ID   int
//	    Name string
//	}
//
//	func main() {
//	    m := lockfree.New[string, User]()
//
//	    m.Insert("user:123", User{ID: 123, Name: "Alice"})
//
//	    if user, found := m.GetValue("user:123"); found {
//	        fmt.Printf("User: %s\n", user.Name)
//	    }
//	}
//
// # Cache Stampede Prevention
//
// GetOrInsert prevents duplicate work using a singleflight pattern.
// Multiple concurrent misses for the same key execute the loader only once:
//
//	user, err := m.GetOrInsert("user:123", func() (User, error) {
//	    // This expensive operation runs only once even if 1000
//	    // goroutines call GetOrInsert concurrently for this key.
//	    return fetchUserFromDB(123)
//	})
//	if err != nil {
//	    log.Printf("failed to load user: %v", err)
//	}
//
// # Hash Trie Design
//
// The trie consumes 8 bits of the key's hash per level (256-way fan-out).
// A leaf is a bucket holding an ordered linked list of the entries that
// share one full 64-bit hash. When an insert finds its slot taken by a leaf
// with a different hash, the slot is atomically replaced by a branch
// pointing at a fresh table, the existing bucket is moved whole into that
// table one level deeper, and the insert continues there. Lookups, inserts,
// and removes all walk the same table-then-bucket path.
//
// # Concurrency Model
//
// lockfree uses a lock-free design with atomic operations and deferred
// reclamation:
//
//   - Reads: atomic loads, no locks
//   - Writes: CAS loops, retried on contention
//   - Removal: tombstone-then-unlink, the removed node is never freed
//     in place
//   - Reclamation: a pause (EnterPause; incineratorEnter inside the
//     package) brackets every operation that reads a pointer out of the
//     trie; AddGarbage (incineratorAdd) queues a node for deferred
//     release; queued garbage is drained only while no pause is open
//
// Tested with -race detector: zero race conditions expected by design.
//
// # Observability
//
// Enterprise observability with OpenTelemetry (optional):
//
//	import lockfreeotel "github.com/lockfree-go/lockfree/otel"
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//
//	metricsCollector, _ := lockfreeotel.NewOTelMetricsCollector(provider)
//
//	m := lockfree.New[string, User](lockfree.Config{
//	    MetricsCollector: metricsCollector, // optional, zero overhead if nil
//	})
//
// Metrics exposed (via OpenTelemetry):
//   - lockfree_insert_latency_ns, lockfree_get_latency_ns,
//     lockfree_remove_latency_ns: histograms with automatic percentiles
//   - lockfree_reclaimed_total, lockfree_reclaim_latency_ns: reclamation
//     throughput and latency
//   - lockfree_pause_duration_ns: time spent inside a pause critical
//     section
//   - lockfree_splits_total: leaf-to-branch splits, by depth
//   - lockfree_queue_backlog: per-shard garbage queue length
//
// The core lockfree package has zero OTEL dependencies. The lockfree/otel
// package is a separate module.
//
// # Configuration
//
// Complete configuration options:
//
//	config := lockfree.Config{
//	    // Optional: validated to 1..8 (default: 8); the trie always uses its fixed 8-level bound
//	    MaxTrieDepth: 8,
//
//	    // Optional: backlog length that triggers a warning log + metric
//	    ReclaimQueueWarnLen: 4096,
//
//	    // Optional: cadence for a background sweeper started via StartSweeper
//	    TryForceInterval: 500 * time.Millisecond,
//
//	    // Optional: logger for errors and events (default: NoOpLogger)
//	    Logger: myLogger,
//
//	    // Optional: metrics collector (default: NoOp, zero overhead)
//	    MetricsCollector: metricsCollector,
//
//	    // Optional: custom time provider for testing (default: cached clock)
//	    TimeProvider: myTimeProvider,
//	}
//
//	m := lockfree.New[string, User](config)
//
// # Error Handling
//
// The core map operations (Insert, Get, Remove) never return an error: a
// miss is a zero value and a bool, not an error. Errors are reserved for
// the parts of the surface that can genuinely fail:
//
//	user, err := m.GetOrInsert("user:123", loader)
//	if err != nil {
//	    if lockfree.IsLoaderError(err) {
//	        log.Printf("loader failed: %v", err)
//	    }
//	    return
//	}
//
// Available error codes:
//   - LOCKFREE_INVALID_LOADER: GetOrInsert loader is nil
//   - LOCKFREE_LOADER_CANCELLED: loader's context was cancelled
//   - LOCKFREE_PANIC_RECOVERED: loader panicked (panic value included)
//   - LOCKFREE_REENTRANT_RECLAIM: a dropper called AddGarbage transitively
//   - LOCKFREE_INVALID_CONFIG, LOCKFREE_INVALID_MAX_SIZE: bad configuration
//
// All errors implement the error interface and can be unwrapped.
//
// # Thread Safety
//
// All Map operations are safe for concurrent use:
//
//	m := lockfree.New[string, int]()
//
//	go func() { m.Insert("key1", 1) }()
//	go func() { m.Get("key1") }()
//	go func() { m.Remove("key1") }()
//
// # Packages
//
//   - github.com/lockfree-go/lockfree: core map and incinerator
//   - github.com/lockfree-go/lockfree/channel: SPSC/MPSC queues sharing the
//     same incinerator
//   - github.com/lockfree-go/lockfree/otel: OpenTelemetry integration
//     (separate module)
//
// # License
//
// See LICENSE file in the repository.
package lockfree
