// trie.go: the hash trie — a tree of 256-way tables whose leaves are
// buckets, grown by splitting a leaf into a branch when a key with a
// different hash maps to the leaf's slot.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package lockfree

import (
	"sync/atomic"
	"unsafe"
)

// node is either a leaf (a bucket of colliding hashes) or a branch
// (another level of table). Exactly one of the two pointers is non-nil.
type node[K any, V any] struct {
	leaf   *bucket[K, V]
	branch *table[K, V]
}

func leafNode[K any, V any](b *bucket[K, V]) *node[K, V] {
	return &node[K, V]{leaf: b}
}

func branchNode[K any, V any](t *table[K, V]) *node[K, V] {
	return &node[K, V]{branch: t}
}

// table is one trie level: tableSize atomically-published slots, each
// either empty (nil), a leaf, or a branch to a deeper table.
type table[K any, V any] struct {
	nodes [tableSize]atomic.Pointer[node[K, V]]
}

func newTable[K any, V any]() *table[K, V] {
	return &table[K, V]{}
}

// slice extracts the BITS-wide slice of hash used at trie depth.
func slice(hash uint64, depth int) int {
	shift := uint(depth) * bits
	return int((hash >> shift) & tableMask)
}

// trieInsert walks down from t, splitting leaves into branches as needed,
// and inserts key/val into the bucket for hash. It returns the displaced
// pair (if the key already existed) and whether a pair was displaced.
func trieInsert[K any, V any](t *table[K, V], hash uint64, depth int, key K, val V, less func(K, K) bool, onSplit func(depth int)) (*Pair[K, V], bool) {
	return trieInsertPair(t, hash, depth, &Pair[K, V]{Key: key, Val: val}, less, onSplit)
}

// trieInsertPair is trieInsert for a caller that already owns a *Pair and
// wants it spliced in directly instead of wrapped in a fresh allocation —
// used by Map.Reinsert to splice a previously Removed pair back in without
// allocating a new one.
func trieInsertPair[K any, V any](t *table[K, V], hash uint64, depth int, pair *Pair[K, V], less func(K, K) bool, onSplit func(depth int)) (*Pair[K, V], bool) {
	var scratchTable cachedAlloc[table[K, V]]
	var scratchBucket cachedAlloc[bucket[K, V]]

	for {
		idx := slice(hash, depth)
		slot := &t.nodes[idx]
		curr := slot.Load()

		if curr == nil {
			b := scratchBucket.getOr(func() *bucket[K, V] { return newBucket[K, V](hash) })
			n := leafNode(b)
			if slot.CompareAndSwap(nil, n) {
				scratchBucket.take()
				old, displaced := bucketInsertPair(&b.list.head, pair, less)
				return old, displaced
			}
			continue
		}

		if curr.branch != nil {
			t = curr.branch
			depth++
			continue
		}

		leaf := curr.leaf
		if leaf.hash == hash || depth >= maxDepth-1 {
			old, displaced := bucketInsertPair(&leaf.list.head, pair, less)
			return old, displaced
		}

		// Hash collision at this depth with a different bucket hash: split
		// the leaf into a branch and push both the existing bucket and the
		// new key one level deeper.
		next := scratchTable.getOr(func() *table[K, V] { return newTable[K, V]() })
		existingIdx := slice(leaf.hash, depth+1)
		next.nodes[existingIdx].Store(leafNode(leaf))

		branch := branchNode(next)
		if slot.CompareAndSwap(curr, branch) {
			scratchTable.take()
			if onSplit != nil {
				onSplit(depth + 1)
			}
			t = next
			depth++
			continue
		}
		// Lost the race; someone else split or replaced this slot. Reset
		// the scratch table's existing-bucket slot before retrying so a
		// future reuse doesn't carry stale state.
		next.nodes[existingIdx].Store(nil)
	}
}

// trieGet walks down from t looking for key under hash.
func trieGet[K any, V any](t *table[K, V], hash uint64, depth int, key K, less func(K, K) bool) (*Pair[K, V], bool) {
	for {
		idx := slice(hash, depth)
		curr := t.nodes[idx].Load()
		if curr == nil {
			return nil, false
		}
		if curr.branch != nil {
			t = curr.branch
			depth++
			continue
		}
		leaf := curr.leaf
		if leaf.hash != hash {
			return nil, false
		}
		return bucketGet(&leaf.list.head, key, less)
	}
}

// trieRemove walks down from t removing key under hash, reclaiming an
// emptied leaf by unlinking it from its parent slot.
func trieRemove[K any, V any](t *table[K, V], hash uint64, depth int, key K, less func(K, K) bool) (*Pair[K, V], bool) {
	for {
		idx := slice(hash, depth)
		slot := &t.nodes[idx]
		curr := slot.Load()
		if curr == nil {
			return nil, false
		}
		if curr.branch != nil {
			t = curr.branch
			depth++
			continue
		}

		leaf := curr.leaf
		if leaf.hash != hash {
			return nil, false
		}

		old, found := bucketRemove(&leaf.list.head, key, less)
		if !found {
			return nil, false
		}

		if bucketEmpty(&leaf.list.head) && slot.CompareAndSwap(curr, nil) {
			freed := curr
			incineratorAdd(unsafe.Pointer(freed), func(unsafe.Pointer) { _ = freed })
		}
		return old, true
	}
}

// trieFree walks t single-threadedly and releases every node, for use
// only when no other goroutine can observe the trie (Map.Close).
func trieFree[K any, V any](t *table[K, V]) {
	for i := range t.nodes {
		n := t.nodes[i].Load()
		if n == nil {
			continue
		}
		if n.branch != nil {
			trieFree(n.branch)
		}
		t.nodes[i].Store(nil)
	}
}
