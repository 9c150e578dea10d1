// Package lockfree provides a lock-free, concurrent ordered map keyed by
// hash, built on top of an internal deferred-reclamation engine (the
// "incinerator") that makes it safe to free a node while another goroutine
// may still hold a pointer into it.
//
// Example usage:
//
//	m := lockfree.New[string, int]()
//	m.Insert("five", 5)
//	v, found := m.GetValue("five")
package lockfree

const (
	// Version of the lockfree module.
	Version = "v0.1.0-dev"

	// bits is the number of hash bits consumed per trie level.
	bits = 8

	// tableSize is the fixed fan-out of every trie table (1 << bits).
	tableSize = 1 << bits

	// tableMask masks a shifted hash down to a table index.
	tableMask = tableSize - 1

	// maxDepth bounds trie descent: ceil(64 / bits).
	maxDepth = 8

	// DefaultReclaimQueueWarnLen is the default backlog length at which a
	// garbage shard logs and reports a queue-backlog metric.
	DefaultReclaimQueueWarnLen = 4096
)
