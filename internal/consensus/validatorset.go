// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"sync"

	"github.com/luxfi/nodekernel/pkg/types"
)

// ValidatorInfo is one validator's identity, public key and stake at a given
// epoch, the fields `validators.GetValidatorOutput` exposes in the teacher
// (NodeID/PublicKey/Light), renamed to this domain's terms (stake).
type ValidatorInfo struct {
	NodeID    types.NodeID
	PublicKey []byte
	Stake     uint64
}

// ValidatorSet is the registered validator roster for one epoch, adapted
// from the teacher's validators.Set/Manager (Has/Len/List/Light/TotalLight)
// into a single concrete epoch-scoped snapshot.
type ValidatorSet struct {
	epoch      uint64
	byID       map[types.NodeID]ValidatorInfo
	totalStake uint64
}

// NewValidatorSet builds an epoch's roster from a validator list.
func NewValidatorSet(epoch uint64, validators []ValidatorInfo) *ValidatorSet {
	vs := &ValidatorSet{epoch: epoch, byID: make(map[types.NodeID]ValidatorInfo, len(validators))}
	for _, v := range validators {
		vs.byID[v.NodeID] = v
		vs.totalStake += v.Stake
	}
	return vs
}

func (vs *ValidatorSet) Epoch() uint64 { return vs.epoch }

// Contains reports whether id is a registered validator for this epoch.
func (vs *ValidatorSet) Contains(id types.NodeID) bool {
	_, ok := vs.byID[id]
	return ok
}

// Get returns the validator's info, if registered.
func (vs *ValidatorSet) Get(id types.NodeID) (ValidatorInfo, bool) {
	v, ok := vs.byID[id]
	return v, ok
}

// TotalStake is the sum of every registered validator's stake this epoch.
func (vs *ValidatorSet) TotalStake() uint64 { return vs.totalStake }

// Len returns the number of registered validators this epoch.
func (vs *ValidatorSet) Len() int { return len(vs.byID) }

// List returns every validator ID registered for this epoch, in no
// particular order. Used by finality's inactivity-leak accounting, which
// must charge validators that registered but never attested.
func (vs *ValidatorSet) List() []types.NodeID {
	ids := make([]types.NodeID, 0, len(vs.byID))
	for id := range vs.byID {
		ids = append(ids, id)
	}
	return ids
}

// Registry holds the validator set for every known epoch, analogous to the
// teacher's validators.Manager mapping chainID to a Set, keyed here by
// epoch instead of chain.
type Registry struct {
	mu   sync.RWMutex
	sets map[uint64]*ValidatorSet
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sets: make(map[uint64]*ValidatorSet)}
}

// SetEpoch installs (or replaces) the validator set for epoch.
func (r *Registry) SetEpoch(epoch uint64, vs *ValidatorSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets[epoch] = vs
}

// At returns the validator set registered for epoch, if any.
func (r *Registry) At(epoch uint64) (*ValidatorSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vs, ok := r.sets[epoch]
	return vs, ok
}
