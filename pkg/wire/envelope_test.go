// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealAndVerifyHMAC(t *testing.T) {
	secret := []byte("super-secret-key")
	e := &Envelope{
		Version:       ProtocolVersion,
		SenderID:      3,
		RecipientID:   0,
		TimestampSecs: 1000,
		Nonce:         42,
	}
	Seal(secret, e)
	require.True(t, VerifyHMAC(secret, e))
}

func TestVerifyHMACRejectsTamperedFields(t *testing.T) {
	secret := []byte("super-secret-key")
	e := &Envelope{Version: ProtocolVersion, SenderID: 3, RecipientID: 0, TimestampSecs: 1000, Nonce: 42}
	Seal(secret, e)

	e.Nonce = 43
	require.False(t, VerifyHMAC(secret, e))
}

func TestVerifyHMACRejectsWrongSecret(t *testing.T) {
	e := &Envelope{Version: ProtocolVersion, SenderID: 3, RecipientID: 0, TimestampSecs: 1000, Nonce: 42}
	Seal([]byte("secret-a"), e)
	require.False(t, VerifyHMAC([]byte("secret-b"), e))
}

func TestEncodeDecodePayloadRoundTrip(t *testing.T) {
	type payload struct {
		Foo string
		Bar int
	}
	e := &Envelope{}
	require.NoError(t, EncodePayload(e, payload{Foo: "x", Bar: 7}))

	var out payload
	require.NoError(t, DecodePayload(e, &out))
	require.Equal(t, payload{Foo: "x", Bar: 7}, out)
}
