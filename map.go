// map.go: Map, the public lock-free concurrent hash-trie map.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package lockfree

import (
	"cmp"
	"fmt"
	"hash/maphash"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Removed is a pair that has been taken out of a Map, returned from
// Insert (as a displaced value) or Remove. Dropping a Removed frees and
// enqueues nothing: its pair is left to the garbage collector once nothing
// references it. newRemoved registers an empty finalizer on its own local
// copy before returning by value, so the Removed a caller receives has no
// finalizer attached.
type Removed[K any, V any] struct {
	pair *Pair[K, V]
}

func newRemoved[K any, V any](p *Pair[K, V]) Removed[K, V] {
	r := Removed[K, V]{pair: p}
	runtime.SetFinalizer(&r, func(r *Removed[K, V]) {})
	return r
}

// Key returns the removed pair's key.
func (r Removed[K, V]) Key() K { return r.pair.Key }

// Val returns the removed pair's value.
func (r Removed[K, V]) Val() V { return r.pair.Val }

// Discard clears any finalizer registered on r. A Removed returned by
// Insert, Reinsert or Remove has none, so for those values it has no
// effect.
func (r *Removed[K, V]) Discard() {
	runtime.SetFinalizer(r, nil)
}

// Borrowed lets a caller look up a Map[K, V] by a query value of another
// type Q: GetBorrowed converts Key into a K with ToOwned and looks that K
// up, so ToOwned must yield a key that hashes and compares like the
// stored one.
type Borrowed[K any, Q any] struct {
	Key     Q
	ToOwned func(Q) K
}

// defaultHashBuilder is the maphash-backed HashBuilder that New uses,
// seeded once per Map. String keys are hashed directly; other keys are
// formatted through fmt.Sprint first. Callers with a performance-sensitive
// key type should supply their own HashBuilder via NewWithHasher instead.
type defaultHashBuilder[K cmp.Ordered] struct {
	seed maphash.Seed
}

func newDefaultHashBuilder[K cmp.Ordered]() defaultHashBuilder[K] {
	return defaultHashBuilder[K]{seed: maphash.MakeSeed()}
}

func (h defaultHashBuilder[K]) Hash(key K) uint64 {
	var s maphash.Hash
	s.SetSeed(h.seed)
	if str, ok := any(key).(string); ok {
		s.WriteString(str)
		return s.Sum64()
	}
	s.WriteString(fmt.Sprint(key))
	return s.Sum64()
}

// Map is a lock-free concurrent hash trie from K to V. The zero value is
// not usable; construct with New or NewWithHasher.
type Map[K any, V any] struct {
	root    *table[K, V]
	less    func(K, K) bool
	hasher  HashBuilder[K]
	size    atomic.Int64
	cfg     atomic.Pointer[Config]
	loaders sync.Map // key -> *loaderCall[V], for GetOrInsert singleflight
}

type loaderCall[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// New constructs a Map for an ordered key type, using a maphash-backed
// default hasher. cfg is optional; the zero or first element is used,
// defaulting the rest.
func New[K cmp.Ordered, V any](cfg ...Config) *Map[K, V] {
	c := resolveConfig(cfg)
	m := &Map[K, V]{
		root:   newTable[K, V](),
		less:   func(a, b K) bool { return a < b },
		hasher: newDefaultHashBuilder[K](),
	}
	m.cfg.Store(&c)
	globalIncinerator.configure(c)
	return m
}

// NewWithHasher constructs a Map for a key type with no natural
// ordering known to cmp.Ordered, given an explicit less function and
// hash builder.
func NewWithHasher[K any, V any](less func(K, K) bool, builder HashBuilder[K], cfg ...Config) *Map[K, V] {
	c := resolveConfig(cfg)
	m := &Map[K, V]{
		root:   newTable[K, V](),
		less:   less,
		hasher: builder,
	}
	m.cfg.Store(&c)
	globalIncinerator.configure(c)
	return m
}

func resolveConfig(cfgs []Config) Config {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	} else {
		c = DefaultConfig()
	}
	if err := c.Validate(); err != nil {
		c = DefaultConfig()
	}
	return c
}

func (m *Map[K, V]) config() Config {
	if c := m.cfg.Load(); c != nil {
		return *c
	}
	return DefaultConfig()
}

// setReclaimQueueWarnLen implements Tunable, for hot-reload support.
func (m *Map[K, V]) setReclaimQueueWarnLen(n int) {
	c := m.config()
	c.ReclaimQueueWarnLen = n
	m.cfg.Store(&c)
	globalIncinerator.configure(c)
}

// setTryForceInterval implements Tunable, for hot-reload support.
func (m *Map[K, V]) setTryForceInterval(d time.Duration) {
	c := m.config()
	c.TryForceInterval = d
	m.cfg.Store(&c)
	globalIncinerator.configure(c)
}

// Insert stores val under key, returning the previously stored value
// (if any) as a Removed and true, or a zero Removed and false if this
// was a fresh key.
func (m *Map[K, V]) Insert(key K, val V) (Removed[K, V], bool) {
	cfg := m.config()
	var start int64
	if cfg.TimeProvider != nil {
		start = cfg.TimeProvider.Now()
	}

	p := incineratorEnter()
	hash := m.hasher.Hash(key)
	old, displaced := trieInsert(m.root, hash, 0, key, val, m.less, func(depth int) {
		if cfg.MetricsCollector != nil {
			cfg.MetricsCollector.RecordSplit(depth)
		}
	})
	p.Exit()

	if !displaced {
		m.size.Add(1)
	}

	if cfg.MetricsCollector != nil && cfg.TimeProvider != nil {
		cfg.MetricsCollector.RecordInsert(cfg.TimeProvider.Now()-start, displaced)
	}

	if !displaced {
		return Removed[K, V]{}, false
	}
	return newRemoved(old), true
}

// Reinsert takes ownership of r, a pair previously taken out of this (or
// any) Map via Insert/Remove, and splices its underlying *Pair back into
// the trie directly, without allocating a fresh Pair. It also suppresses
// r's own diagnostic finalizer, since the pair it guarded is live again.
//
// Reinsert returns the pair displaced by this call (if any) and true, or
// a zero Removed and false if the key was not already present.
func (m *Map[K, V]) Reinsert(r Removed[K, V]) (Removed[K, V], bool) {
	cfg := m.config()
	var start int64
	if cfg.TimeProvider != nil {
		start = cfg.TimeProvider.Now()
	}

	r.Discard()
	pair := r.pair

	p := incineratorEnter()
	hash := m.hasher.Hash(pair.Key)
	old, displaced := trieInsertPair(m.root, hash, 0, pair, m.less, func(depth int) {
		if cfg.MetricsCollector != nil {
			cfg.MetricsCollector.RecordSplit(depth)
		}
	})
	p.Exit()

	if !displaced {
		m.size.Add(1)
	}

	if cfg.MetricsCollector != nil && cfg.TimeProvider != nil {
		cfg.MetricsCollector.RecordInsert(cfg.TimeProvider.Now()-start, displaced)
	}

	if !displaced {
		return Removed[K, V]{}, false
	}
	return newRemoved(old), true
}

// GetPair returns the stored pair for key, if any.
func (m *Map[K, V]) GetPair(key K) (Pair[K, V], bool) {
	cfg := m.config()
	var start int64
	if cfg.TimeProvider != nil {
		start = cfg.TimeProvider.Now()
	}

	p := incineratorEnter()
	hash := m.hasher.Hash(key)
	pair, found := trieGet(m.root, hash, 0, key, m.less)
	p.Exit()

	if cfg.MetricsCollector != nil && cfg.TimeProvider != nil {
		cfg.MetricsCollector.RecordGet(cfg.TimeProvider.Now()-start, found)
	}

	if !found {
		return Pair[K, V]{}, false
	}
	return *pair, true
}

// GetValue returns the stored value for key, if any.
func (m *Map[K, V]) GetValue(key K) (V, bool) {
	p, ok := m.GetPair(key)
	if !ok {
		var zero V
		return zero, false
	}
	return p.Val, true
}

// Get is an alias for GetValue, matching common Go map-wrapper naming.
func (m *Map[K, V]) Get(key K) (V, bool) {
	return m.GetValue(key)
}

// GetBorrowed looks up b.Key after converting it to K via b.ToOwned,
// for callers whose natural query type differs from the stored key
// type (e.g. looking up a []byte-backed key by a string view of it).
func (m *Map[K, V]) GetBorrowed(b Borrowed[K, any]) (V, bool) {
	return m.GetValue(b.ToOwned(b.Key))
}

// Remove deletes key, returning the removed pair and true, or a zero
// Removed and false if key was not present.
func (m *Map[K, V]) Remove(key K) (Removed[K, V], bool) {
	cfg := m.config()
	var start int64
	if cfg.TimeProvider != nil {
		start = cfg.TimeProvider.Now()
	}

	p := incineratorEnter()
	hash := m.hasher.Hash(key)
	old, found := trieRemove(m.root, hash, 0, key, m.less)
	p.Exit()

	if found {
		m.size.Add(-1)
	}

	if cfg.MetricsCollector != nil && cfg.TimeProvider != nil {
		cfg.MetricsCollector.RecordRemove(cfg.TimeProvider.Now()-start, found)
	}

	if !found {
		return Removed[K, V]{}, false
	}
	return newRemoved(old), true
}

// GetOrInsert returns the value for key, computing it via loader and
// storing it if absent. Concurrent callers for the same key that arrive
// while a loader is in flight block on its result instead of each
// invoking loader themselves, preventing a cache-stampede of redundant
// loader calls.
//
// K must be comparable: key is used as a sync.Map key to coordinate
// in-flight loaders for the same key. A Map built over a non-comparable
// K (e.g. via NewWithHasher with a slice-backed key) can use every other
// method, but calling GetOrInsert on it panics at runtime, the same way
// indexing a built-in map with a non-comparable key type would.
func (m *Map[K, V]) GetOrInsert(key K, loader func() (V, error)) (V, error) {
	if v, ok := m.GetValue(key); ok {
		return v, nil
	}
	if loader == nil {
		var zero V
		return zero, NewErrInvalidLoader(anyKeyString(key))
	}

	call := &loaderCall[V]{done: make(chan struct{})}
	actual, loaded := m.loaders.LoadOrStore(key, call)
	if loaded {
		c := actual.(*loaderCall[V])
		<-c.done
		return c.val, c.err
	}

	defer func() {
		m.loaders.Delete(key)
		close(call.done)
	}()

	call.val, call.err = m.runLoader(key, loader)
	if call.err == nil {
		m.Insert(key, call.val)
	}
	return call.val, call.err
}

func (m *Map[K, V]) runLoader(key K, loader func() (V, error)) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewErrPanicRecovered("GetOrInsert", r)
		}
	}()
	return loader()
}

func anyKeyString(key any) string {
	return fmt.Sprint(key)
}

// Len returns an approximate count of live entries. Because the map is
// lock-free, a concurrent Insert/Remove may or may not be reflected in
// the result of a racing Len call.
func (m *Map[K, V]) Len() int {
	n := m.size.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// Close releases every node in the trie. It is not safe to call Close
// concurrently with any other Map method, or to use the Map afterward.
func (m *Map[K, V]) Close() error {
	trieFree(m.root)
	m.size.Store(0)
	return nil
}

var _ Tunable = (*Map[int, int])(nil)
