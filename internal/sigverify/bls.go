// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sigverify

import (
	"github.com/luxfi/crypto/bls"
)

// VerifyBLS performs single BLS12-381 verification of sig over msg under
// pubKeyBytes (spec.md §4.9: "BLS (BLS12-381). Both single and aggregate
// verification."), grounded on the teacher's own use of
// github.com/luxfi/crypto/bls for Quasar/Warp signature checks
// (protocol/quasar/witness.go, vms/platformvm/warp/signer.go).
func VerifyBLS(pubKeyBytes, msg, sigBytes []byte) (bool, error) {
	pubKey, err := bls.PublicKeyFromCompressedBytes(pubKeyBytes)
	if err != nil {
		return false, ErrMalformedPublicKey
	}
	sig, err := bls.SignatureFromBytes(sigBytes)
	if err != nil {
		return false, ErrMalformedSignature
	}
	return bls.Verify(pubKey, sig, msg), nil
}

// VerifyBLSAggregate performs a single pairing-based aggregate verification
// over independent (pubkey_i, msg_i, sig_i) triples, as spec.md §4.9
// requires for attestation/vote batches.
func VerifyBLSAggregate(pubKeys [][]byte, msgs [][]byte, sigs [][]byte) (bool, error) {
	if len(pubKeys) != len(msgs) || len(msgs) != len(sigs) {
		return false, ErrAggregateLengthMismatch
	}
	if len(sigs) == 0 {
		return false, ErrEmptyAggregate
	}

	parsedSigs := make([]*bls.Signature, len(sigs))
	for i, s := range sigs {
		sig, err := bls.SignatureFromBytes(s)
		if err != nil {
			return false, ErrMalformedSignature
		}
		parsedSigs[i] = sig
	}
	aggSig, err := bls.AggregateSignatures(parsedSigs)
	if err != nil {
		return false, ErrMalformedSignature
	}

	parsedKeys := make([]*bls.PublicKey, len(pubKeys))
	for i, pk := range pubKeys {
		key, err := bls.PublicKeyFromCompressedBytes(pk)
		if err != nil {
			return false, ErrMalformedPublicKey
		}
		parsedKeys[i] = key
	}

	return bls.AggregateVerify(parsedKeys, msgs, aggSig), nil
}
