// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

// Attestation is one validator's signed vote for a block at a checkpoint, or
// a finality target vote (source/target epoch pair used for slashing
// detection per spec.md §4.4).
type Attestation struct {
	Validator   NodeID
	BlockHash   Hash
	Slot        uint64
	Epoch       uint64
	SourceEpoch uint64
	TargetEpoch uint64
	Signature   []byte // BLS signature
}

// CheckpointState is the Casper-style two-phase finality lattice state.
type CheckpointState int

const (
	CheckpointPending CheckpointState = iota
	CheckpointJustified
	CheckpointFinalized
)

func (s CheckpointState) String() string {
	switch s {
	case CheckpointPending:
		return "pending"
	case CheckpointJustified:
		return "justified"
	case CheckpointFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Checkpoint is the special block at every N-th height where finality votes
// are tallied. Once Finalized a checkpoint's state is permanent.
type Checkpoint struct {
	Epoch     uint64
	BlockHash Hash
	Height    uint64
	State     CheckpointState
}

// CircuitBreakerPhase is the three-state machine guarding finality progress.
type CircuitBreakerPhase int

const (
	BreakerRunning CircuitBreakerPhase = iota
	BreakerSyncing
	BreakerHalted
)

func (p CircuitBreakerPhase) String() string {
	switch p {
	case BreakerRunning:
		return "running"
	case BreakerSyncing:
		return "syncing"
	case BreakerHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// SlashableOffenseKind tags the kind of double-signing behavior detected.
type SlashableOffenseKind int

const (
	OffenseDoubleVote SlashableOffenseKind = iota
	OffenseSurroundVote
)

// SlashableOffense records a validator's detected Casper-FFG violation.
type SlashableOffense struct {
	Validator     NodeID
	Kind          SlashableOffenseKind
	DetectedEpoch uint64
}
