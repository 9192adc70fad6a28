// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sigverify

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifyBLSRejectsMalformedPublicKey(t *testing.T) {
	_, err := VerifyBLS([]byte("not a compressed bls pubkey"), []byte("msg"), make([]byte, 96))
	require.ErrorIs(t, err, ErrMalformedPublicKey)
}

func TestVerifyBLSRejectsMalformedSignature(t *testing.T) {
	// Compressed BLS12-381 G1 generator: a valid public key, so parsing
	// reaches the signature.
	pubKey, err := hex.DecodeString("97f1d3a73197d7942695638c4fa9ac0fc3688c4f9774b905a14e3a3f171bac586c55e83ff97a1aeffb3af00adb22c6bb")
	require.NoError(t, err)
	_, err = VerifyBLS(pubKey, []byte("msg"), []byte("not a signature"))
	require.ErrorIs(t, err, ErrMalformedSignature)
}

func TestVerifyBLSAggregateRejectsLengthMismatch(t *testing.T) {
	_, err := VerifyBLSAggregate([][]byte{{1}}, [][]byte{{1}, {2}}, [][]byte{{1}})
	require.ErrorIs(t, err, ErrAggregateLengthMismatch)
}

func TestVerifyBLSAggregateRejectsEmpty(t *testing.T) {
	_, err := VerifyBLSAggregate(nil, nil, nil)
	require.ErrorIs(t, err, ErrEmptyAggregate)
}
