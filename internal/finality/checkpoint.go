// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package finality

import "github.com/luxfi/nodekernel/pkg/types"

// checkpointKey identifies one candidate checkpoint: a specific block at a
// specific epoch. Distinct validators may attest to different block hashes
// at the same epoch before one accumulates a supermajority, so the lattice
// is keyed on the pair, not the epoch alone.
type checkpointKey struct {
	epoch     uint64
	blockHash types.Hash
}

// lattice holds every candidate checkpoint this gadget has seen attestations
// for, plus the per-target accumulated stake backing justification.
type lattice struct {
	checkpoints map[checkpointKey]*types.Checkpoint
	stake       map[checkpointKey]map[types.NodeID]struct{} // validators counted toward this target, for idempotent accumulation
	stakeSum    map[checkpointKey]uint64
	proof       map[checkpointKey][]types.Attestation // attestations backing this target, for the MarkFinalized proof
}

func newLattice() *lattice {
	return &lattice{
		checkpoints: make(map[checkpointKey]*types.Checkpoint),
		stake:       make(map[checkpointKey]map[types.NodeID]struct{}),
		stakeSum:    make(map[checkpointKey]uint64),
		proof:       make(map[checkpointKey][]types.Attestation),
	}
}

func (l *lattice) get(epoch uint64, blockHash types.Hash) *types.Checkpoint {
	return l.checkpoints[checkpointKey{epoch, blockHash}]
}

func (l *lattice) getOrCreate(epoch uint64, blockHash types.Hash, height uint64) *types.Checkpoint {
	key := checkpointKey{epoch, blockHash}
	cp, ok := l.checkpoints[key]
	if !ok {
		cp = &types.Checkpoint{Epoch: epoch, BlockHash: blockHash, Height: height, State: types.CheckpointPending}
		l.checkpoints[key] = cp
		l.stake[key] = make(map[types.NodeID]struct{})
	}
	return cp
}

// addStake credits validator's stake toward the target once; re-attesting
// (the same validator attesting to the same target twice) is a no-op rather
// than double-counted stake.
func (l *lattice) addStake(epoch uint64, blockHash types.Hash, validator types.NodeID, stake uint64) {
	key := checkpointKey{epoch, blockHash}
	if _, counted := l.stake[key][validator]; counted {
		return
	}
	l.stake[key][validator] = struct{}{}
	l.stakeSum[key] += stake
}

// recordProof appends att to the attestation set backing this target, for
// later inclusion in a MarkFinalized proof.
func (l *lattice) recordProof(epoch uint64, blockHash types.Hash, att types.Attestation) {
	key := checkpointKey{epoch, blockHash}
	l.proof[key] = append(l.proof[key], att)
}

func (l *lattice) proofFor(epoch uint64, blockHash types.Hash) []types.Attestation {
	return l.proof[checkpointKey{epoch, blockHash}]
}

func (l *lattice) accumulatedStake(epoch uint64, blockHash types.Hash) uint64 {
	return l.stakeSum[checkpointKey{epoch, blockHash}]
}

// findJustified returns the single Justified checkpoint at epoch, if any
// (at most one canonical target is ever justified for a given epoch in
// practice, since a justified supermajority precludes a conflicting one).
func (l *lattice) findJustified(epoch uint64) (*types.Checkpoint, bool) {
	for key, cp := range l.checkpoints {
		if key.epoch == epoch && cp.State == types.CheckpointJustified {
			return cp, true
		}
	}
	return nil, false
}
