// mpsc.go: multi-producer single-consumer lock-free FIFO
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
//
// Send uses the Michael & Scott two-CAS queue algorithm, the same
// intrusive-list-plus-incinerator shape as a trie bucket's tombstoned
// list cell. Recv is single-consumer and never needs a CAS of its own.
// Any number of goroutines may share one *Sender[T] and call Send
// concurrently; Go's reference semantics make the Rust original's
// explicit Sender::clone unnecessary.
package channel

import (
	"sync/atomic"
	"unsafe"

	"github.com/lockfree-go/lockfree"
)

type mpscNode[T any] struct {
	value T
	next  atomic.Pointer[mpscNode[T]]
}

type mpscBackend[T any] struct {
	head          atomic.Pointer[mpscNode[T]]
	tail          atomic.Pointer[mpscNode[T]]
	senderAlive   atomic.Bool
	receiverAlive atomic.Bool
}

// NewMPSC creates a connected sender/receiver pair backed by an unbounded
// Michael & Scott queue.
func NewMPSC[T any]() (*Sender[T], *Receiver[T]) {
	dummy := &mpscNode[T]{}
	b := &mpscBackend[T]{}
	b.head.Store(dummy)
	b.tail.Store(dummy)
	b.senderAlive.Store(true)
	b.receiverAlive.Store(true)
	return &Sender[T]{backend: b}, &Receiver[T]{backend: b}
}

func (b *mpscBackend[T]) send(v T) error {
	if !b.receiverAlive.Load() {
		return NoRecv[T]{Message: v}
	}
	n := &mpscNode[T]{}
	n.value = v

	pause := lockfree.EnterPause()
	defer pause.Exit()

	for {
		tail := b.tail.Load()
		next := tail.next.Load()
		if tail != b.tail.Load() {
			continue
		}
		if next == nil {
			if tail.next.CompareAndSwap(nil, n) {
				b.tail.CompareAndSwap(tail, n)
				return nil
			}
		} else {
			b.tail.CompareAndSwap(tail, next)
		}
	}
}

func (b *mpscBackend[T]) recv() (T, error) {
	var zero T

	pause := lockfree.EnterPause()
	defer pause.Exit()

	head := b.head.Load()
	next := head.next.Load()
	if next == nil {
		if b.senderAlive.Load() {
			return zero, NoMessage
		}
		return zero, NoSender
	}

	val := next.value
	b.head.Store(next)
	lockfree.AddGarbage(unsafe.Pointer(head), func(unsafe.Pointer) { _ = head })
	return val, nil
}

func (b *mpscBackend[T]) closeSender()   { b.senderAlive.Store(false) }
func (b *mpscBackend[T]) closeReceiver() { b.receiverAlive.Store(false) }
