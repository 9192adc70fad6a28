// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package finality

import (
	"github.com/luxfi/nodekernel/internal/consensus"
	"github.com/luxfi/nodekernel/pkg/types"
)

// ConsensusValidatorProvider adapts internal/consensus's epoch-keyed
// Registry to finality's ValidatorSetProvider port, so the node kernel
// carries one validator roster rather than two.
type ConsensusValidatorProvider struct {
	registry *consensus.Registry
}

// NewConsensusValidatorProvider wraps reg.
func NewConsensusValidatorProvider(reg *consensus.Registry) *ConsensusValidatorProvider {
	return &ConsensusValidatorProvider{registry: reg}
}

func (p *ConsensusValidatorProvider) StakeAt(epoch uint64, validator types.NodeID) (uint64, bool) {
	vs, ok := p.registry.At(epoch)
	if !ok {
		return 0, false
	}
	info, ok := vs.Get(validator)
	if !ok {
		return 0, false
	}
	return info.Stake, true
}

func (p *ConsensusValidatorProvider) PublicKeyAt(epoch uint64, validator types.NodeID) ([]byte, bool) {
	vs, ok := p.registry.At(epoch)
	if !ok {
		return nil, false
	}
	info, ok := vs.Get(validator)
	if !ok {
		return nil, false
	}
	return info.PublicKey, true
}

func (p *ConsensusValidatorProvider) TotalActiveStakeAt(epoch uint64) uint64 {
	vs, ok := p.registry.At(epoch)
	if !ok {
		return 0
	}
	return vs.TotalStake()
}

func (p *ConsensusValidatorProvider) ActiveValidatorsAt(epoch uint64) []types.NodeID {
	vs, ok := p.registry.At(epoch)
	if !ok {
		return nil
	}
	return vs.List()
}
