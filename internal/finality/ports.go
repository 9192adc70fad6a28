// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package finality

import "github.com/luxfi/nodekernel/pkg/types"

// AttestationVerifier is finality's narrow outbound port onto edge signature
// verification (spec.md §4.4 step 1: "re-verify signature, zero-trust").
// internal/sigverify provides the production implementation; its method
// shape matches internal/consensus.SignatureVerifier's VerifyAttestation so
// one Verifier instance can satisfy both ports.
type AttestationVerifier interface {
	VerifyAttestation(att types.Attestation, pubKey []byte) bool
}

// ValidatorSetProvider resolves validator stake and public keys at a given
// epoch. Reference/original_source/qc-09-finality's ports/outbound.rs notes
// state management owns stake authoritatively; here internal/consensus's
// Registry already tracks the epoch-scoped validator roster, so the
// production adapter (ConsensusValidatorProvider) wraps it rather than
// standing up a second roster.
type ValidatorSetProvider interface {
	StakeAt(epoch uint64, validator types.NodeID) (uint64, bool)
	PublicKeyAt(epoch uint64, validator types.NodeID) ([]byte, bool)
	TotalActiveStakeAt(epoch uint64) uint64
	// ActiveValidatorsAt enumerates every registered validator for epoch, so
	// the inactivity leak can charge those who never attested at all.
	ActiveValidatorsAt(epoch uint64) []types.NodeID
}
