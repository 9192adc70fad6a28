// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sigverify

import (
	"math/big"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/nodekernel/pkg/types"
)

func signCompact(t *testing.T, priv *secp256k1.PrivateKey, hash types.Hash) types.Signature {
	t.Helper()
	compact := ecdsa.SignCompact(priv, hash[:], false)
	var sig types.Signature
	copy(sig.R[:], compact[1:33])
	copy(sig.S[:], compact[33:65])
	sig.V = compact[0] - 27
	return sig
}

func TestRecoverECDSARoundTrip(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	msgHash := types.Keccak256([]byte("a signed message"))
	sig := signCompact(t, priv, msgHash)

	wantAddr := addressFromPublicKey(priv.PubKey())
	require.True(t, VerifyECDSA(msgHash, sig, wantAddr))

	addr, err := RecoverAddress(msgHash, sig)
	require.NoError(t, err)
	require.Equal(t, wantAddr, addr)
}

func TestRecoverECDSAAcceptsEthereumStyleV(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	msgHash := types.Keccak256([]byte("another message"))
	sig := signCompact(t, priv, msgHash)
	sig.V += 27 // Ethereum-style {27,28} instead of raw {0,1}

	wantAddr := addressFromPublicKey(priv.PubKey())
	require.True(t, VerifyECDSA(msgHash, sig, wantAddr))
}

func TestRecoverECDSARejectsWrongSigner(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	other, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	msgHash := types.Keccak256([]byte("yet another message"))
	sig := signCompact(t, priv, msgHash)

	require.False(t, VerifyECDSA(msgHash, sig, addressFromPublicKey(other.PubKey())))
}

func TestRecoverECDSARejectsZeroComponents(t *testing.T) {
	var sig types.Signature
	sig.R[31] = 1 // s stays zero
	_, err := recoverECDSA(types.Hash{}, sig)
	require.ErrorIs(t, err, ErrZeroComponent)
}

func TestRecoverECDSARejectsHighS(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	msgHash := types.Keccak256([]byte("malleable"))
	sig := signCompact(t, priv, msgHash)

	s := new(big.Int).SetBytes(sig.S[:])
	if s.Cmp(secp256k1HalfOrder) <= 0 {
		// Flip to the high-s representative: s' = n - s, v' = v ^ 1, still a
		// valid signature for the same key (secp256k1's malleability) but
		// must be rejected by the low-s check.
		s = new(big.Int).Sub(secp256k1Order, s)
		var flipped [32]byte
		s.FillBytes(flipped[:])
		sig.S = flipped
		sig.V ^= 1
	}

	_, err = recoverECDSA(msgHash, sig)
	require.ErrorIs(t, err, ErrHighS)
}

func TestRecoverECDSARejectsBadRecoveryID(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	msgHash := types.Keccak256([]byte("bad v"))
	sig := signCompact(t, priv, msgHash)
	sig.V = 5

	_, err = recoverECDSA(msgHash, sig)
	require.ErrorIs(t, err, ErrInvalidRecoveryID)
}

func TestECDSASignatureFromBytesRejectsShortInput(t *testing.T) {
	_, err := ECDSASignatureFromBytes([]byte{1, 2, 3})
	require.Error(t, err)
}
