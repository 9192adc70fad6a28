// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticKeyProvider_GeneratesDistinctSecretsPerSubsystem(t *testing.T) {
	p, err := NewStaticKeyProvider([]SubsystemID{SubsystemConsensus, SubsystemFinality})
	require.NoError(t, err)

	consensusSecret, ok := p.SecretFor(uint8(SubsystemConsensus))
	require.True(t, ok)
	finalitySecret, ok := p.SecretFor(uint8(SubsystemFinality))
	require.True(t, ok)

	require.Len(t, consensusSecret, secretLen)
	require.NotEqual(t, consensusSecret, finalitySecret)

	_, ok = p.SecretFor(uint8(SubsystemMempool))
	require.False(t, ok)
}
