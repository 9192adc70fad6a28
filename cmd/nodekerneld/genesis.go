// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/luxfi/nodekernel/internal/config"
	"github.com/luxfi/nodekernel/internal/consensus"
)

// buildGenesisValidatorSet decodes cfg's hex-encoded genesis roster into
// consensus.ValidatorInfo, the form Registry.SetEpoch expects.
func buildGenesisValidatorSet(entries []config.GenesisValidator) (*consensus.ValidatorSet, error) {
	infos := make([]consensus.ValidatorInfo, 0, len(entries))
	for _, e := range entries {
		nodeID, err := parseNodeID(e.NodeID)
		if err != nil {
			return nil, fmt.Errorf("nodekerneld: genesis validator %s: %w", e.NodeID, err)
		}
		pubKey, err := hex.DecodeString(strings.TrimPrefix(e.PublicKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("nodekerneld: genesis validator %s: malformed public_key: %w", e.NodeID, err)
		}
		infos = append(infos, consensus.ValidatorInfo{
			NodeID:    nodeID,
			PublicKey: pubKey,
			Stake:     e.Stake,
		})
	}
	return consensus.NewValidatorSet(0, infos), nil
}
