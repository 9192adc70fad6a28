// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package storage implements the Block Storage Stateful Assembler
// (spec.md §4.2): it joins three independently-arriving events keyed by
// block_hash into one atomic StoredBlock write. Grounded on
// _examples/original_source/crates/qc-02-block-storage/src/domain/assembler.rs
// for the join/commit state machine, and on the teacher's
// networking/timeout.AdaptiveTimeoutManager for the bounded pending-set +
// periodic GC shape.
package storage

import (
	"reflect"
	"time"

	"github.com/luxfi/nodekernel/pkg/types"
)

// pendingAssembly accumulates the three components of one block's commit.
// Once Block, TxRoot and StateRoot are all present, the assembler can
// attempt a commit (spec.md §4.2 step 3).
type pendingAssembly struct {
	blockHash   types.Hash
	block       *types.ValidatedBlock
	txRoot      *types.Hash
	stateRoot   *types.Hash
	startedAt   time.Time
}

func newPendingAssembly(blockHash types.Hash, startedAt time.Time) *pendingAssembly {
	return &pendingAssembly{blockHash: blockHash, startedAt: startedAt}
}

func (p *pendingAssembly) complete() bool {
	return p.block != nil && p.txRoot != nil && p.stateRoot != nil
}

// setBlock installs the ValidatedBlock component. If one is already set, the
// new arrival must be byte-identical (a duplicate delivery) or it is a
// conflicting write (spec.md §4.2 "Assembly ordering edge-case").
func (p *pendingAssembly) setBlock(v types.ValidatedBlock) error {
	if p.block != nil {
		if !reflect.DeepEqual(*p.block, v) {
			return ErrConflictingWrite
		}
		return nil
	}
	p.block = &v
	return nil
}

func (p *pendingAssembly) setTxRoot(h types.Hash) error {
	if p.txRoot != nil {
		if *p.txRoot != h {
			return ErrConflictingWrite
		}
		return nil
	}
	p.txRoot = &h
	return nil
}

func (p *pendingAssembly) setStateRoot(h types.Hash) error {
	if p.stateRoot != nil {
		if *p.stateRoot != h {
			return ErrConflictingWrite
		}
		return nil
	}
	p.stateRoot = &h
	return nil
}
