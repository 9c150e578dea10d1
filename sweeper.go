// sweeper.go: background incinerator draining
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package lockfree

import "time"

// StartSweeper launches a goroutine that periodically calls TryForce on
// the shared incinerator. It is entirely optional: incineratorAdd already
// drains its own shard inline whenever no goroutine is paused at the time
// garbage is queued, so most garbage is freed without any sweeper running.
// A sweeper only matters for garbage queued while a pause was active and
// never revisited afterward (e.g. a shard whose only further traffic is
// reads that no longer touch it) — this goroutine mops that up on a
// fixed interval instead of leaving it for an explicit TryForce call.
//
// The returned stop function halts the goroutine; calling it more than
// once is safe.
func StartSweeper(cfg Config) (stop func()) {
	if err := cfg.Validate(); err != nil {
		cfg = DefaultConfig()
	}
	if cfg.TryForceInterval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	var stopped bool

	go func() {
		ticker := time.NewTicker(cfg.TryForceInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				incineratorTryForce()
			case <-done:
				return
			}
		}
	}()

	return func() {
		if stopped {
			return
		}
		stopped = true
		close(done)
	}
}
