// spsc.go: single-producer single-consumer bounded lock-free FIFO
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
//
// The producer owns tailIdx and the consumer owns headIdx, so neither
// side ever needs a CAS of its own; a slot's occupancy (nil vs non-nil)
// is the only thing published between them.
package channel

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/lockfree-go/lockfree"
)

type spscBackend[T any] struct {
	buf           []atomic.Pointer[T]
	cap           uint64
	headIdx       atomic.Uint64
	tailIdx       atomic.Uint64
	senderAlive   atomic.Bool
	receiverAlive atomic.Bool
}

// NewSPSC creates a connected sender/receiver pair backed by a bounded
// ring buffer of capacity slots. capacity is clamped to at least 1.
func NewSPSC[T any](capacity int) (*Sender[T], *Receiver[T]) {
	if capacity < 1 {
		capacity = 1
	}
	b := &spscBackend[T]{
		buf: make([]atomic.Pointer[T], capacity),
		cap: uint64(capacity),
	}
	b.senderAlive.Store(true)
	b.receiverAlive.Store(true)
	return &Sender[T]{backend: b}, &Receiver[T]{backend: b}
}

func (b *spscBackend[T]) send(v T) error {
	if !b.receiverAlive.Load() {
		return NoRecv[T]{Message: v}
	}

	idx := b.tailIdx.Load() % b.cap
	for b.buf[idx].Load() != nil {
		if !b.receiverAlive.Load() {
			return NoRecv[T]{Message: v}
		}
		runtime.Gosched()
	}

	val := v
	b.buf[idx].Store(&val)
	b.tailIdx.Add(1)
	return nil
}

func (b *spscBackend[T]) recv() (T, error) {
	var zero T

	idx := b.headIdx.Load() % b.cap
	p := b.buf[idx].Load()
	if p == nil {
		if b.senderAlive.Load() {
			return zero, NoMessage
		}
		return zero, NoSender
	}

	val := *p
	b.buf[idx].Store(nil)
	b.headIdx.Add(1)
	lockfree.AddGarbage(unsafe.Pointer(p), func(unsafe.Pointer) { _ = p })
	return val, nil
}

func (b *spscBackend[T]) closeSender()   { b.senderAlive.Store(false) }
func (b *spscBackend[T]) closeReceiver() { b.receiverAlive.Store(false) }
