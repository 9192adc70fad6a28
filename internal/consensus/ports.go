// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import "github.com/luxfi/nodekernel/pkg/types"

// SignatureVerifier is consensus's narrow outbound port onto edge signature
// verification (spec.md §4.3 steps 4-6). Zero-trust: every flag the message
// already carries is advisory only, so this interface always re-derives the
// answer from raw key material, never trusts a boolean on the wire.
// internal/sigverify provides the production implementation.
type SignatureVerifier interface {
	// VerifyProposerSignature checks that signature is a valid signature by
	// pubKey over blockHash.
	VerifyProposerSignature(pubKey []byte, blockHash types.Hash, signature []byte) bool
	// VerifyAttestation checks a PoS attestation's BLS signature over its
	// block hash.
	VerifyAttestation(att types.Attestation, pubKey []byte) bool
	// VerifyVote checks a PBFT vote's signature over (view, sequence, block_hash).
	VerifyVote(vote types.PBFTVote, pubKey []byte) bool
	// RecoverTransactionSigner recovers and verifies the sender of tx,
	// returning its derived address.
	RecoverTransactionSigner(tx types.Transaction) (types.Address, error)
}
