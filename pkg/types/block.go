// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import "time"

// Header is the fixed-size metadata of a Block.
type Header struct {
	Version           uint16
	Height            uint64
	ParentHash        Hash
	TxRoot            Hash
	StateRoot         Hash
	Timestamp         time.Time
	Proposer          NodeID
	ProposerSignature []byte // over Hash(); re-verified zero-trust by Consensus
	Difficulty        uint64
	Nonce             uint64
	ExtraData         []byte
}

// Block is a proposer-produced candidate: header, ordered transactions and
// the consensus proof backing it.
type Block struct {
	Header       Header
	Transactions []Transaction
	Proof        ValidationProof
}

// Hash returns the block's content hash (over the header fields that are
// fixed at proposal time; the proof itself is not covered, mirroring
// spec.md's "block_hash" used as the assembler join key before state/tx
// roots are known).
func (b *Block) Hash() Hash {
	return keccak256(
		uint32Bytes(uint32(b.Header.Version)),
		uint64Bytes(b.Header.Height),
		b.Header.ParentHash[:],
		timeBytes(b.Header.Timestamp),
		b.Header.Proposer[:],
		uint64Bytes(b.Header.Difficulty),
		uint64Bytes(b.Header.Nonce),
		b.Header.ExtraData,
	)
}

func timeBytes(t time.Time) []byte {
	return uint64Bytes(uint64(t.Unix()))
}

// ValidationProofKind tags which quorum mechanism backs a ValidationProof.
type ValidationProofKind int

const (
	ProofUnknown ValidationProofKind = iota
	ProofPoS
	ProofPBFT
)

// ValidationProof is the tagged union of consensus proofs spec.md §4.3 step 5
// describes: a PoS attestation set or a PBFT vote set, never both.
type ValidationProof struct {
	Kind         ValidationProofKind
	Attestations []Attestation // PoS: distinct validator attestations over block_hash
	Votes        []PBFTVote    // PBFT: >= 2f+1 distinct votes at the current view
}

// PBFTVote is one validator's vote for a (view, sequence, block_hash) triple.
type PBFTVote struct {
	Validator NodeID
	View      uint64
	Sequence  uint64
	BlockHash Hash
	Signature []byte
}

// ValidatedBlock is a Block plus the proof that Consensus accepted it. Only
// the assembler may construct one, on successful completion of
// internal/consensus's validation pipeline.
type ValidatedBlock struct {
	BlockHash   Hash
	Block       Block
	Proof       ValidationProof
	ValidatedAt time.Time
}

// StoredBlock is a ValidatedBlock plus the tx/state roots and checksum the
// assembler computed at commit time. Immutable once written.
type StoredBlock struct {
	Block     Block
	TxRoot    Hash
	StateRoot Hash
	Checksum  uint32
	StoredAt  time.Time
}

// StorageMetadata is the single KV metadata record (key "m:").
type StorageMetadata struct {
	GenesisHash     Hash
	LatestHeight    uint64
	FinalizedHeight uint64
	TotalBlocks     uint64
	Version         uint32
}
