// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashFromBytes(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		wantErr bool
	}{
		{name: "exact 32 bytes", input: make([]byte, 32), wantErr: false},
		{name: "too short", input: make([]byte, 31), wantErr: true},
		{name: "too long", input: make([]byte, 33), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := HashFromBytes(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.input, h[:])
		})
	}
}

func TestHashString(t *testing.T) {
	var h Hash
	h[0] = 0xAA
	h[31] = 0xBB
	require.Equal(t, "0x"+"aa"+"0000000000000000000000000000000000000000000000000000000000"+"bb", h.String())
}

func TestHashIsZero(t *testing.T) {
	var h Hash
	require.True(t, h.IsZero())
	h[5] = 1
	require.False(t, h.IsZero())
}

func TestKeyedSha3_256Deterministic(t *testing.T) {
	key := []byte("k")
	a := KeyedSha3_256(key, []byte("left"), []byte("right"))
	b := KeyedSha3_256(key, []byte("left"), []byte("right"))
	require.Equal(t, a, b)

	c := KeyedSha3_256([]byte("other-key"), []byte("left"), []byte("right"))
	require.NotEqual(t, a, c)
}
