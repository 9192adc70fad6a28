// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package finality

import (
	"time"

	"github.com/luxfi/nodekernel/pkg/types"
)

// circuitBreaker is finality's three-state liveness guard (spec.md §4.4):
//
//	Running --(epochs_without_finality > inactivity_leak_epochs)--> Sync{attempt}
//	Sync{attempt} --(attempt timeout, attempt < max)--------------> Sync{attempt+1}
//	Sync{attempt} --(attempt timeout, attempt == max)--------------> Halted
//	Sync{attempt} --(justification succeeds)-----------------------> Running
//	Halted --(manual reset_from_halted)-----------------------------> Running
//
// Modeled on the teacher's EpochManager (protocol/quasar/epoch.go): a small
// state machine with an attempt counter and an explicit rejection error for
// the "not allowed from this phase" transition, rather than silently
// clamping. Caller (gadget) holds the lock; this type is not itself
// concurrency-safe.
type circuitBreaker struct {
	cfg Config

	phase              types.CircuitBreakerPhase
	syncAttempt        int
	epochsWithoutFinal uint64
	syncDeadline       time.Time
}

func newCircuitBreaker(cfg Config) *circuitBreaker {
	return &circuitBreaker{cfg: cfg, phase: types.BreakerRunning}
}

// onEpochAdvanced is called once per epoch boundary, whether or not that
// epoch finalized anything. now is the clock reading at the boundary.
func (cb *circuitBreaker) onEpochAdvanced(finalizedThisEpoch bool, now time.Time) {
	if finalizedThisEpoch {
		cb.onJustified()
		return
	}
	if cb.phase != types.BreakerRunning {
		return // Sync/Halted already tracking failure via their own timeouts
	}
	cb.epochsWithoutFinal++
	if cb.epochsWithoutFinal > cb.cfg.InactivityLeakEpochs {
		cb.enterSync(now)
	}
}

func (cb *circuitBreaker) enterSync(now time.Time) {
	cb.phase = types.BreakerSyncing
	cb.syncAttempt = 1
	cb.syncDeadline = now.Add(cb.cfg.SyncAttemptTimeout)
}

// onSyncTick is called periodically (or whenever now advances past a
// deadline check is convenient) to let a timed-out Sync attempt progress.
func (cb *circuitBreaker) onSyncTick(now time.Time) {
	if cb.phase != types.BreakerSyncing || now.Before(cb.syncDeadline) {
		return
	}
	if cb.syncAttempt >= cb.cfg.MaxSyncAttempts {
		cb.phase = types.BreakerHalted
		return
	}
	cb.syncAttempt++
	cb.syncDeadline = now.Add(cb.cfg.SyncAttemptTimeout)
}

// onJustified resets the breaker to Running: "any successful justification
// resets the breaker to Running" (spec.md §4.4).
func (cb *circuitBreaker) onJustified() {
	cb.phase = types.BreakerRunning
	cb.syncAttempt = 0
	cb.epochsWithoutFinal = 0
}

// reset is the manual reset_from_halted operator call. It only succeeds
// from Halted, mirroring the teacher's explicit-rejection idiom for
// out-of-order state transitions.
func (cb *circuitBreaker) reset() error {
	if cb.phase != types.BreakerHalted {
		return ErrNotHalted
	}
	cb.phase = types.BreakerRunning
	cb.syncAttempt = 0
	cb.epochsWithoutFinal = 0
	return nil
}

// isInactivityLeakActive reports whether the leak is currently charging
// inactive validators: "while the breaker is not Running" (spec.md §4.4).
func (cb *circuitBreaker) isInactivityLeakActive() bool {
	return cb.phase != types.BreakerRunning
}

func (cb *circuitBreaker) isHalted() bool {
	return cb.phase == types.BreakerHalted
}
