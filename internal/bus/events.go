// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bus

import (
	"time"

	"github.com/luxfi/nodekernel/pkg/types"
)

// BlockValidated is published by Consensus once a candidate block passes the
// full validation pipeline (spec.md §4.3 step 7).
type BlockValidated struct {
	BlockHash   types.Hash
	Block       types.Block
	Proof       types.ValidationProof
	ValidatedAt time.Time
}

// MerkleRootComputed is published by the Transaction Index once it has
// folded a block's transactions into a Merkle root (spec.md §4.8).
type MerkleRootComputed struct {
	BlockHash types.Hash
	TxRoot    types.Hash
}

// StateRootComputed is published by the State Trie once it has applied a
// block's state transition (spec.md §4.7).
type StateRootComputed struct {
	BlockHash types.Hash
	StateRoot types.Hash
}

// BlockStored is published by the assembler once all three components for a
// block_hash have joined and the atomic KV write succeeded (spec.md §4.2).
type BlockStored struct {
	BlockHash types.Hash
	Height    uint64
}

// MarkFinalized is published by the Finality gadget and consumed by the
// assembler to advance metadata.finalized_height (spec.md §4.2, §4.4).
type MarkFinalized struct {
	Height uint64
	Proof  []types.Attestation
}

// BlockFinalized is published by the assembler after MarkFinalized succeeds.
type BlockFinalized struct {
	Height    uint64
	BlockHash types.Hash
}

// AssemblyEvicted is published when the assembler's pending buffer exceeds
// max_pending and evicts the oldest entry (spec.md §4.2 step 2).
type AssemblyEvicted struct {
	BlockHash types.Hash
}

// AssemblyTimeout is published by the assembler's periodic GC when a pending
// assembly exceeds assembly_timeout (spec.md §4.2 step 4).
type AssemblyTimeout struct {
	BlockHash types.Hash
}

// TransactionVerified is published by Signature Verification once a
// submitted transaction's signature has been re-verified (spec.md §4.9).
type TransactionVerified struct {
	Tx types.VerifiedTransaction
}

// SubmitTransaction is the client-ingress event that kicks off signature
// verification (spec.md §4.9's "Mempool ingress path").
type SubmitTransaction struct {
	Tx types.Transaction
}

// VerifyNodeIdentityRequest is published by Peer Discovery and consumed by
// Signature Verification (spec.md §4.9's "Identity verification").
type VerifyNodeIdentityRequest struct {
	NodeID        types.NodeID
	ClaimedPubKey []byte
	Signature     []byte
}

// VerifyNodeIdentityResult is the reply, published only by Signature
// Verification (IPC-matrix: sender must be SubsystemSignatureVerify).
type VerifyNodeIdentityResult struct {
	NodeID types.NodeID
	Valid  bool
}

// AttestationBatch is published by Consensus and consumed by Finality
// (spec.md §4.4's "Attestation processing"): a batch of Casper-FFG votes for
// one slot, each carrying a (source_epoch, target_epoch) interval.
type AttestationBatch struct {
	Attestations []types.Attestation
	Epoch        uint64
	Slot         uint64
}

// SlashableOffenseDetected is published by Finality whenever attestation
// processing detects a double-vote or surround-vote (spec.md §4.4 step 1).
type SlashableOffenseDetected struct {
	Offense types.SlashableOffense
}

// ValidatorInactivityPenalty is published by Finality for each validator
// found inactive (no attestations) during an epoch while the circuit
// breaker is not Running (spec.md §4.4's inactivity leak). The State Trie
// is the authoritative stake ledger and applies the cut; Finality only
// decides and announces it.
type ValidatorInactivityPenalty struct {
	Validator types.NodeID
	Epoch     uint64
	RateBps   uint32
}

// ChallengeResponse reports whether an eviction-challenged existing peer
// answered a liveness ping before its deadline (spec.md §4.6).
type ChallengeResponse struct {
	ChallengedPeer types.NodeID
	Alive          bool
}
