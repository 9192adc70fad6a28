// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sigverify

import (
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/luxfi/nodekernel/pkg/types"
)

// secp256k1Order is the order n of the secp256k1 group, used for the
// low-s malleability check (spec.md §4.9: reject s > n/2).
var secp256k1Order = func() *big.Int {
	n, ok := new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)
	if !ok {
		panic("sigverify: bad secp256k1 order constant")
	}
	return n
}()

var secp256k1HalfOrder = new(big.Int).Rsh(secp256k1Order, 1)

// recoveryIDFromV maps the wire recovery byte to Decred's compact-signature
// recovery id (0 or 1). spec.md restricts v to exactly {0,1,27,28}; any other
// value is rejected here with ErrInvalidRecoveryID.
func recoveryIDFromV(v byte) (byte, error) {
	switch v {
	case 0, 27:
		return 0, nil
	case 1, 28:
		return 1, nil
	default:
		return 0, ErrInvalidRecoveryID
	}
}

// recoverECDSA implements spec.md §4.9's ECDSA pipeline: reject zero
// components, reject high-s malleable signatures, reject unrecognized
// recovery ids, then recover the uncompressed public key over msgHash.
func recoverECDSA(msgHash types.Hash, sig types.Signature) (*secp256k1.PublicKey, error) {
	r := new(big.Int).SetBytes(sig.R[:])
	s := new(big.Int).SetBytes(sig.S[:])
	if r.Sign() == 0 || s.Sign() == 0 {
		return nil, ErrZeroComponent
	}
	if s.Cmp(secp256k1HalfOrder) > 0 {
		return nil, ErrHighS
	}
	recID, err := recoveryIDFromV(sig.V)
	if err != nil {
		return nil, err
	}

	compact := make([]byte, 65)
	compact[0] = 27 + recID // uncompressed recovery header, per RecoverCompact's convention
	copy(compact[1:33], sig.R[:])
	copy(compact[33:65], sig.S[:])

	pubKey, _, err := ecdsa.RecoverCompact(compact, msgHash[:])
	if err != nil {
		return nil, ErrRecoveryFailed
	}
	return pubKey, nil
}

// addressFromPublicKey derives the 20-byte Ethereum-style address spec.md
// §4.9 specifies: keccak256(uncompressed_pubkey_without_prefix)[12:].
func addressFromPublicKey(pubKey *secp256k1.PublicKey) types.Address {
	uncompressed := pubKey.SerializeUncompressed() // 0x04 || X(32) || Y(32)
	digest := types.Keccak256(uncompressed[1:])
	var addr types.Address
	copy(addr[:], digest[types.HashSize-types.AddressSize:])
	return addr
}

// ECDSASignatureFromBytes parses a wire-format 65-byte (r || s || v)
// signature, the shape VerifyNodeIdentityRequest and similar bus events
// carry their raw signature as.
func ECDSASignatureFromBytes(b []byte) (types.Signature, error) {
	var sig types.Signature
	if len(b) != 65 {
		return sig, ErrRecoveryFailed
	}
	copy(sig.R[:], b[0:32])
	copy(sig.S[:], b[32:64])
	sig.V = b[64]
	return sig, nil
}

// VerifyECDSA re-derives the signer of msgHash under sig and reports whether
// it matches expectedAddr. It never trusts a caller-supplied address: the
// address is always recomputed from the recovered key.
func VerifyECDSA(msgHash types.Hash, sig types.Signature, expectedAddr types.Address) bool {
	pubKey, err := recoverECDSA(msgHash, sig)
	if err != nil {
		return false
	}
	return addressFromPublicKey(pubKey) == expectedAddr
}

// RecoverAddress recovers and returns the signer address of msgHash under
// sig, without comparing against any expected value (used on first-sight
// ingress, e.g. mempool transaction submission, where there is no prior
// claimed sender to check against except the one carried in the envelope).
func RecoverAddress(msgHash types.Hash, sig types.Signature) (types.Address, error) {
	pubKey, err := recoverECDSA(msgHash, sig)
	if err != nil {
		return types.Address{}, err
	}
	return addressFromPublicKey(pubKey), nil
}
