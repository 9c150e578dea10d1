// incinerator.go: deferred reclamation engine shared by Map and channel
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
//
// A node unlinked from the trie (or a channel's intrusive list) cannot be
// freed immediately: another goroutine may still hold a pointer into it
// from before the unlink. The incinerator defers the free until no
// goroutine can be inside a "pause" that started before the unlink.
package lockfree

import (
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

// garbage is one deferred free: a pointer and the function that releases
// whatever it points to.
type garbage struct {
	ptr     unsafe.Pointer
	dropper func(unsafe.Pointer)
}

// garbageShard is one stripe of the sharded garbage queue. Go has no
// thread_local, so goroutines fan out across GOMAXPROCS-many shards
// instead of each getting their own queue, which would be unbounded.
type garbageShard struct {
	mu       sync.Mutex
	items    []garbage
	draining bool
}

// reclamationEngine is the incinerator: a global paused-reader count plus
// the sharded garbage queues it gates.
type reclamationEngine struct {
	pausedCount atomic.Uint64
	shards      []*garbageShard
	shardNext   atomic.Uint64
	cfg         atomic.Pointer[Config]
}

func newReclamationEngine() *reclamationEngine {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	e := &reclamationEngine{shards: make([]*garbageShard, n)}
	for i := range e.shards {
		e.shards[i] = &garbageShard{}
	}
	defaultCfg := DefaultConfig()
	e.cfg.Store(&defaultCfg)
	return e
}

// globalIncinerator is shared by every Map and every channel.Sender /
// channel.Receiver pair in the process, mirroring the Rust original's
// process-wide thread_local! queues and static PAUSED_COUNT.
var globalIncinerator = newReclamationEngine()

func (e *reclamationEngine) configure(cfg Config) {
	c := cfg
	e.cfg.Store(&c)
}

func (e *reclamationEngine) config() Config {
	if c := e.cfg.Load(); c != nil {
		return *c
	}
	return DefaultConfig()
}

// Pause represents an active reader critical section. While any Pause is
// open the paused count is nonzero, so neither incineratorAdd nor
// incineratorTryForce starts a drain; a drain that had already started
// before the pause opened still runs to completion.
type Pause struct {
	engine *reclamationEngine
	start  int64
}

// incineratorEnter opens a pause. Every trie/bucket read and every CAS
// loop that may dereference a pointer obtained from shared state must run
// inside one.
func incineratorEnter() *Pause {
	n := globalIncinerator.pausedCount.Add(1)
	if n == 0 {
		// Wrapped around to zero: the counter overflowed. There is no
		// recoverable path here, matching the Rust original's abort.
		os.Stderr.WriteString("lockfree: incinerator paused-count overflow\n")
		os.Exit(2)
	}
	cfg := globalIncinerator.config()
	var start int64
	if cfg.TimeProvider != nil {
		start = cfg.TimeProvider.Now()
	}
	return &Pause{engine: globalIncinerator, start: start}
}

// Exit closes the pause. It must be called exactly once, normally via
// defer immediately after incineratorEnter.
func (p *Pause) Exit() {
	p.engine.pausedCount.Add(^uint64(0)) // -1
	cfg := p.engine.config()
	if cfg.MetricsCollector != nil && cfg.TimeProvider != nil && p.start != 0 {
		cfg.MetricsCollector.RecordPauseDuration(cfg.TimeProvider.Now() - p.start)
	}
}

// incineratorPause runs f inside a pause and returns its result. This is
// the closure form; hot paths that cannot afford the closure allocation
// use incineratorEnter/(*Pause).Exit directly.
func incineratorPause[T any](f func() T) T {
	p := incineratorEnter()
	defer p.Exit()
	return f()
}

// drainShard frees shard's queued garbage, unless it is already being
// drained by another goroutine (or empty). It returns the number of items
// freed.
func drainShard(shard *garbageShard) int {
	shard.mu.Lock()
	if shard.draining || len(shard.items) == 0 {
		shard.mu.Unlock()
		return 0
	}
	shard.draining = true
	items := shard.items
	shard.items = nil
	shard.mu.Unlock()

	for _, g := range items {
		g.dropper(g.ptr)
	}

	shard.mu.Lock()
	shard.draining = false
	shard.mu.Unlock()

	return len(items)
}

// addToShard appends (ptr, dropper) to shard's queue, panicking with
// ErrCodeReentrantReclaim if shard is mid-drain (a dropper calling back
// into Add for the shard it is itself being drained from). It returns
// the shard's backlog length after the append.
func addToShard(shard *garbageShard, idx int, ptr unsafe.Pointer, dropper func(unsafe.Pointer)) int {
	shard.mu.Lock()
	if shard.draining {
		shard.mu.Unlock()
		panic(NewErrReentrantReclaim(idx))
	}
	shard.items = append(shard.items, garbage{ptr: ptr, dropper: dropper})
	backlog := len(shard.items)
	shard.mu.Unlock()
	return backlog
}

// incineratorAdd hands ptr to the incinerator for deferred release.
// dropper is invoked once no goroutine can still be inside a pause that
// began before this call. dropper must not itself call incineratorAdd;
// doing so panics with ErrCodeReentrantReclaim.
//
// After queuing, it re-reads pausedCount: if no goroutine is currently
// paused, it drains this shard immediately on the adding goroutine instead
// of waiting for a sweeper or an explicit TryForce call.
func incineratorAdd(ptr unsafe.Pointer, dropper func(unsafe.Pointer)) {
	idx := int(globalIncinerator.shardNext.Add(1) % uint64(len(globalIncinerator.shards)))
	shard := globalIncinerator.shards[idx]

	backlog := addToShard(shard, idx, ptr, dropper)

	cfg := globalIncinerator.config()
	if cfg.ReclaimQueueWarnLen > 0 && backlog >= cfg.ReclaimQueueWarnLen {
		if cfg.Logger != nil {
			cfg.Logger.Warn("incinerator shard backlog exceeds warn threshold", "shard", idx, "length", backlog)
		}
		if cfg.MetricsCollector != nil {
			cfg.MetricsCollector.RecordQueueBacklog(idx, backlog)
		}
	}

	if globalIncinerator.pausedCount.Load() == 0 {
		if freed := drainShard(shard); freed > 0 && cfg.MetricsCollector != nil {
			cfg.MetricsCollector.RecordReclaim(freed, 0)
		}
	}
}

// incineratorTryForce drains every garbage shard if (and only if) no
// goroutine is currently paused. It returns true if anything was freed.
// A false return means either nothing was queued or a pause was active;
// the caller can retry later (see StartSweeper).
func incineratorTryForce() bool {
	if globalIncinerator.pausedCount.Load() != 0 {
		return false
	}

	cfg := globalIncinerator.config()
	var start int64
	if cfg.TimeProvider != nil {
		start = cfg.TimeProvider.Now()
	}

	total := 0
	for _, shard := range globalIncinerator.shards {
		total += drainShard(shard)
	}

	if total > 0 && cfg.MetricsCollector != nil {
		var elapsed int64
		if cfg.TimeProvider != nil {
			elapsed = cfg.TimeProvider.Now() - start
		}
		cfg.MetricsCollector.RecordReclaim(total, elapsed)
	}
	return total > 0
}
