// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package mempool holds unconfirmed, signature-verified transactions behind
// a type-state pool (spec.md §4.5): a Pending entry can only become Proposed
// by an explicit call that consumes it, and a Proposed entry can only be
// Confirmed (removed) or Rolled back (returned to Pending) — never mutated
// in place. This survives block-storage failure without dropping
// transactions.
package mempool

import "errors"

var (
	// ErrDuplicateTransaction is returned when a transaction with the same
	// hash is already held by the pool.
	ErrDuplicateTransaction = errors.New("mempool: duplicate transaction")
	// ErrMempoolFull is returned when the pool is at capacity and the
	// incoming transaction does not outbid the lowest-priority entry.
	ErrMempoolFull = errors.New("mempool: full")
	// ErrUnknownTransaction describes a hash that is not held in the
	// expected state. Propose, Confirm and Rollback do not return it; they
	// skip such hashes.
	ErrUnknownTransaction = errors.New("mempool: unknown transaction")
)
