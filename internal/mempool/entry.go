// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

import (
	"time"

	"github.com/luxfi/nodekernel/pkg/types"
)

// PendingEntry is a transaction waiting to be selected for a block. The only
// way to advance it is Propose, which consumes the receiver and returns a
// ProposedEntry — there is no exported field a caller could flip to fake the
// transition (spec.md §4.5's type-state requirement).
type PendingEntry struct {
	Tx         types.VerifiedTransaction
	InsertedAt time.Time
	sequence   uint64 // FIFO tiebreaker for equal gas price
}

// Propose consumes p and returns the Proposed{height} entry it becomes once
// a candidate block includes this transaction.
func (p PendingEntry) Propose(height uint64) ProposedEntry {
	return ProposedEntry{Tx: p.Tx, InsertedAt: p.InsertedAt, sequence: p.sequence, Height: height}
}

// ProposedEntry is a transaction believed included in an in-flight
// candidate block. It is never mutated: it is either Confirmed (dropped, the
// block was durably stored) or Rollback'd back to Pending (the block was
// evicted or timed out).
type ProposedEntry struct {
	Tx         types.VerifiedTransaction
	InsertedAt time.Time
	Height     uint64
	sequence   uint64
}

// Rollback consumes p and returns the Pending entry it reverts to.
func (p ProposedEntry) Rollback() PendingEntry {
	return PendingEntry{Tx: p.Tx, InsertedAt: p.InsertedAt, sequence: p.sequence}
}
