// reclaim.go: exported incinerator entry points for external collaborators
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
//
// Map uses the incinerator through the unexported helpers in
// incinerator.go. The channel subpackage lives outside this package and
// needs the same process-wide engine, so it is reached through this
// small exported surface instead of a duplicate reclamation engine.
package lockfree

import "unsafe"

// EnterPause opens a deferred-reclamation critical section against the
// process-wide incinerator. Call Exit on the result exactly once, normally
// via defer, before dereferencing any pointer obtained from a structure
// that reclaims through this package.
func EnterPause() *Pause {
	return incineratorEnter()
}

// AddGarbage hands ptr to the incinerator for deferred release. dropper
// runs once no goroutine can still be inside a pause that began before
// this call; it must not itself call AddGarbage.
func AddGarbage(ptr unsafe.Pointer, dropper func(unsafe.Pointer)) {
	incineratorAdd(ptr, dropper)
}

// TryForceReclaim drains every garbage shard if no goroutine is currently
// paused. It returns true if anything was freed.
func TryForceReclaim() bool {
	return incineratorTryForce()
}
