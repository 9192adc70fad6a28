// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sigverify

import (
	"encoding/binary"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/internal/metrics"
	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/pkg/types"
)

// Verifier is the production implementation of internal/consensus's
// SignatureVerifier port, plus the mempool-ingress and identity-verification
// handlers spec.md §4.9 describes. Validator-level signatures (proposer,
// PoS attestation, PBFT vote) are BLS12-381, matching the teacher's own
// validators.Set (PublicKey *bls.PublicKey); transaction signatures are
// ECDSA secp256k1, recovered to an Ethereum-style address.
type Verifier struct {
	log nodelog.Logger
	pub *bus.Publisher

	verifiedTotal *prometheus.CounterVec
}

// New constructs a Verifier. pub is used to publish TransactionVerified and
// VerifyNodeIdentityResult; reg may be nil for tests.
func New(log nodelog.Logger, pub *bus.Publisher, reg *metrics.Registry) *Verifier {
	v := &Verifier{log: log, pub: pub}
	if reg != nil {
		v.verifiedTotal = reg.CounterVec("sigverify", "verifications_total", "signature verifications by kind and outcome", []string{"kind", "outcome"})
	}
	return v
}

func (v *Verifier) record(kind string, ok bool) {
	if v.verifiedTotal == nil {
		return
	}
	outcome := "reject"
	if ok {
		outcome = "accept"
	}
	v.verifiedTotal.WithLabelValues(kind, outcome).Inc()
}

// VerifyProposerSignature checks a BLS signature by pubKey over blockHash.
func (v *Verifier) VerifyProposerSignature(pubKey []byte, blockHash types.Hash, signature []byte) bool {
	ok, err := VerifyBLS(pubKey, blockHash[:], signature)
	if err != nil && v.log != nil {
		v.log.Debug("sigverify: proposer signature malformed", "error", err.Error())
	}
	v.record("proposer", ok)
	return ok
}

// attestationMessage binds every field of an Attestation so a signature over
// one (block_hash, slot, epoch, source_epoch, target_epoch) tuple can never
// be replayed as a signature over a different tuple sharing only the hash.
func attestationMessage(att types.Attestation) []byte {
	msg := make([]byte, 0, types.HashSize+32)
	msg = append(msg, att.BlockHash[:]...)
	msg = appendUint64(msg, att.Slot)
	msg = appendUint64(msg, att.Epoch)
	msg = appendUint64(msg, att.SourceEpoch)
	msg = appendUint64(msg, att.TargetEpoch)
	return msg
}

// VerifyAttestation checks a PoS attestation's BLS signature.
func (v *Verifier) VerifyAttestation(att types.Attestation, pubKey []byte) bool {
	ok, err := VerifyBLS(pubKey, attestationMessage(att), att.Signature)
	if err != nil && v.log != nil {
		v.log.Debug("sigverify: attestation malformed", "error", err.Error())
	}
	v.record("attestation", ok)
	return ok
}

func voteMessage(vote types.PBFTVote) []byte {
	msg := make([]byte, 0, 16+types.HashSize)
	msg = appendUint64(msg, vote.View)
	msg = appendUint64(msg, vote.Sequence)
	msg = append(msg, vote.BlockHash[:]...)
	return msg
}

// VerifyVote checks a PBFT vote's BLS signature over (view, sequence, block_hash).
func (v *Verifier) VerifyVote(vote types.PBFTVote, pubKey []byte) bool {
	ok, err := VerifyBLS(pubKey, voteMessage(vote), vote.Signature)
	if err != nil && v.log != nil {
		v.log.Debug("sigverify: vote malformed", "error", err.Error())
	}
	v.record("vote", ok)
	return ok
}

// RecoverTransactionSigner runs the full ECDSA pipeline over tx's signing
// hash and requires the recovered address to match tx.Sender: a transaction
// always claims a sender up front, and zero-trust re-verification means that
// claim must be backed by the signature, not merely well-formed.
func (v *Verifier) RecoverTransactionSigner(tx types.Transaction) (types.Address, error) {
	addr, err := RecoverAddress(tx.SigningHash(), tx.Signature)
	if err != nil {
		v.record("transaction", false)
		return types.Address{}, err
	}
	if addr != tx.Sender {
		v.record("transaction", false)
		return types.Address{}, ErrSignatureMismatch
	}
	v.record("transaction", true)
	return addr, nil
}

// VerifyNodeIdentity checks rawSig, a wire-format ECDSA signature over
// nodeID's raw bytes, under claimedPubKey (spec.md §4.9's identity
// verification path).
func (v *Verifier) VerifyNodeIdentity(nodeID types.NodeID, claimedPubKey, rawSig []byte) bool {
	sig, err := ECDSASignatureFromBytes(rawSig)
	if err != nil {
		v.record("identity", false)
		return false
	}
	pubKey, err := recoverECDSA(types.Keccak256(nodeID[:]), sig)
	if err != nil {
		v.record("identity", false)
		return false
	}
	ok := bytesEqual(pubKey.SerializeUncompressed(), claimedPubKey) || bytesEqual(pubKey.SerializeCompressed(), claimedPubKey)
	v.record("identity", ok)
	return ok
}

func appendUint64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
