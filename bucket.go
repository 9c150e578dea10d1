// bucket.go: the ordered singly-linked list backing one trie leaf.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
//
// Every entry in a bucket's list shares the same hash (that is what makes
// it a bucket); the list itself is kept sorted by key so find/insert/
// remove can all stop at the first entry that is not-less-than the
// target, instead of walking every collision to the end.
package lockfree

import (
	"sync/atomic"
	"unsafe"
)

// bucket is one trie leaf's collision chain: a hash and the ordered list
// of pairs that hash to it.
type bucket[K any, V any] struct {
	hash uint64
	list list[K, V]
}

func newBucket[K any, V any](hash uint64) *bucket[K, V] {
	return &bucket[K, V]{hash: hash}
}

// list is an ordered singly-linked chain of *entry nodes, addressed
// through the atomic.Pointer cell that precedes each node so CAS-based
// insert/remove/unlink can all operate uniformly on "the cell that
// currently points at the node I care about".
type list[K any, V any] struct {
	head atomic.Pointer[entry[K, V]]
}

type findKind int

const (
	findDelete findKind = iota // curr is tombstoned; caller should help unlink and retry
	findEq                     // curr holds a pair whose key matches
	findBetween                // no match; curr is the first entry greater than key (nil at tail)
)

type findResult[K any, V any] struct {
	kind findKind
	prev *atomic.Pointer[entry[K, V]]
	curr *entry[K, V]
}

func keysEqual[K any](a, b K, less func(K, K) bool) bool {
	return !less(a, b) && !less(b, a)
}

// find walks the list starting at head looking for key, using less as the
// list's sort order. It never dereferences a stale pointer: every load
// comes from the atomic cell it is about to compare against.
func find[K any, V any](head *atomic.Pointer[entry[K, V]], key K, less func(K, K) bool) findResult[K, V] {
	prev := head
	for {
		curr := prev.Load()
		if curr == nil {
			return findResult[K, V]{kind: findBetween, prev: prev, curr: nil}
		}
		pair := curr.pair.Load()
		if isSentinelPair(pair) {
			return findResult[K, V]{kind: findDelete, prev: prev, curr: curr}
		}
		if keysEqual(key, pair.Key, less) {
			return findResult[K, V]{kind: findEq, prev: prev, curr: curr}
		}
		if less(key, pair.Key) {
			return findResult[K, V]{kind: findBetween, prev: prev, curr: curr}
		}
		prev = &curr.next
	}
}

// helpUnlink removes a tombstoned node from the list and hands it to the
// incinerator. It returns whether this call performed the unlink; either
// way the caller should retry its own operation from the top.
func helpUnlink[K any, V any](res findResult[K, V]) {
	next := res.curr.next.Load()
	if res.prev.CompareAndSwap(res.curr, next) {
		freed := res.curr
		incineratorAdd(unsafe.Pointer(freed), func(unsafe.Pointer) {
			// Nothing beyond the node itself needs releasing: the pair it
			// held is already owned by whoever received it as Removed.
			_ = freed
		})
	}
}

// bucketInsert inserts key/val into the list rooted at head, returning the
// previous pair if the key already existed (displaced) or nil if this was
// a fresh insert.
func bucketInsert[K any, V any](head *atomic.Pointer[entry[K, V]], key K, val V, less func(K, K) bool) (old *Pair[K, V], displaced bool) {
	return bucketInsertPair(head, &Pair[K, V]{Key: key, Val: val}, less)
}

// bucketInsertPair is bucketInsert for a caller that already owns a
// *Pair and wants it spliced in directly rather than wrapped in a fresh
// allocation — used by Map.Reinsert to splice a previously Removed pair
// back in without allocating.
func bucketInsertPair[K any, V any](head *atomic.Pointer[entry[K, V]], newPair *Pair[K, V], less func(K, K) bool) (old *Pair[K, V], displaced bool) {
	key := newPair.Key
	for {
		res := find(head, key, less)
		switch res.kind {
		case findDelete:
			helpUnlink(res)
		case findEq:
			oldPair := res.curr.pair.Load()
			if isSentinelPair(oldPair) {
				continue
			}
			if res.curr.pair.CompareAndSwap(oldPair, newPair) {
				return oldPair, true
			}
		case findBetween:
			node := newEntry(newPair)
			node.next.Store(res.curr)
			if res.prev.CompareAndSwap(res.curr, node) {
				return nil, false
			}
		}
	}
}

// bucketGet returns the pair stored for key, if any. It opportunistically
// unlinks tombstoned nodes it walks past, mirroring how a hot lock-free
// read path folds in cheap maintenance rather than leaving it for a
// separate pass.
func bucketGet[K any, V any](head *atomic.Pointer[entry[K, V]], key K, less func(K, K) bool) (*Pair[K, V], bool) {
	prev := head
	for {
		curr := prev.Load()
		if curr == nil {
			return nil, false
		}
		pair := curr.pair.Load()
		if isSentinelPair(pair) {
			next := curr.next.Load()
			if prev.CompareAndSwap(curr, next) {
				freed := curr
				incineratorAdd(unsafe.Pointer(freed), func(unsafe.Pointer) { _ = freed })
			}
			continue
		}
		if keysEqual(key, pair.Key, less) {
			return pair, true
		}
		if less(key, pair.Key) {
			return nil, false
		}
		prev = &curr.next
	}
}

// bucketRemove tombstones and, best-effort, physically unlinks the entry
// for key. It returns the removed pair, if any.
func bucketRemove[K any, V any](head *atomic.Pointer[entry[K, V]], key K, less func(K, K) bool) (*Pair[K, V], bool) {
	for {
		res := find(head, key, less)
		switch res.kind {
		case findDelete:
			helpUnlink(res)
		case findBetween:
			return nil, false
		case findEq:
			oldPair := res.curr.pair.Load()
			if isSentinelPair(oldPair) {
				continue
			}
			if !res.curr.pair.CompareAndSwap(oldPair, sentinelPair[K, V]()) {
				continue
			}
			next := res.curr.next.Load()
			if res.prev.CompareAndSwap(res.curr, next) {
				freed := res.curr
				incineratorAdd(unsafe.Pointer(freed), func(unsafe.Pointer) { _ = freed })
			}
			return oldPair, true
		}
	}
}

// bucketEmpty reports whether every entry in the list is tombstoned (or
// the list is empty outright). Used by the trie to decide whether a leaf
// can be reclaimed once it no longer holds anything live.
func bucketEmpty[K any, V any](head *atomic.Pointer[entry[K, V]]) bool {
	curr := head.Load()
	for curr != nil {
		if !isSentinelPair(curr.pair.Load()) {
			return false
		}
		curr = curr.next.Load()
	}
	return true
}
