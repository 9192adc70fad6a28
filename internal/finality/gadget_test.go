// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package finality

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/pkg/types"
)

type fakeVerifier struct{ ok bool }

func (f fakeVerifier) VerifyAttestation(types.Attestation, []byte) bool { return f.ok }

type fakeValidators struct {
	stake map[types.NodeID]uint64
	total uint64
}

func newFakeValidators(stakes map[types.NodeID]uint64) *fakeValidators {
	var total uint64
	for _, s := range stakes {
		total += s
	}
	return &fakeValidators{stake: stakes, total: total}
}

func (f *fakeValidators) StakeAt(_ uint64, v types.NodeID) (uint64, bool) {
	s, ok := f.stake[v]
	return s, ok
}
func (f *fakeValidators) PublicKeyAt(_ uint64, v types.NodeID) ([]byte, bool) {
	_, ok := f.stake[v]
	return []byte("pub-" + string(v[:])), ok
}
func (f *fakeValidators) TotalActiveStakeAt(uint64) uint64 { return f.total }
func (f *fakeValidators) ActiveValidatorsAt(uint64) []types.NodeID {
	ids := make([]types.NodeID, 0, len(f.stake))
	for id := range f.stake {
		ids = append(ids, id)
	}
	return ids
}

type fixedSecretKeys struct{}

func (fixedSecretKeys) SecretFor(uint8) ([]byte, bool) { return []byte("secret"), true }

func nodeID(b byte) types.NodeID {
	var n types.NodeID
	n[0] = b
	return n
}

func blockHash(b byte) types.Hash {
	var h types.Hash
	h[0] = b
	return h
}

func newTestGadget(t *testing.T, cfg Config, validators *fakeValidators) (*Gadget, *ports.ManualClock, *bus.Bus) {
	t.Helper()
	clock := &ports.ManualClock{}
	b := bus.New(bus.DefaultConfig(), clock, fixedSecretKeys{}, nodelog.NewNoOp(), nil)
	pub := b.NewPublisher(bus.SubsystemFinality)
	return New(cfg, clock, fakeVerifier{ok: true}, validators, pub, nodelog.NewNoOp(), nil), clock, b
}

func threeEqualValidators() (*fakeValidators, []types.NodeID) {
	ids := []types.NodeID{nodeID(1), nodeID(2), nodeID(3)}
	return newFakeValidators(map[types.NodeID]uint64{ids[0]: 10, ids[1]: 10, ids[2]: 10}), ids
}

func TestProcessAttestations_JustifiesAtTwoThirds(t *testing.T) {
	validators, ids := threeEqualValidators()
	g, _, _ := newTestGadget(t, DefaultConfig(), validators)

	target := blockHash(7)
	batch := bus.AttestationBatch{Epoch: 5, Attestations: []types.Attestation{
		{Validator: ids[0], BlockHash: target, SourceEpoch: 4, TargetEpoch: 5},
		{Validator: ids[1], BlockHash: target, SourceEpoch: 4, TargetEpoch: 5},
	}}
	require.NoError(t, g.ProcessAttestations(batch))

	cp := g.lat.get(5, target)
	require.NotNil(t, cp)
	require.Equal(t, types.CheckpointJustified, cp.State)
}

func TestProcessAttestations_FinalizesImmediatePredecessor(t *testing.T) {
	validators, ids := threeEqualValidators()
	g, _, _ := newTestGadget(t, DefaultConfig(), validators)

	parent := blockHash(4)
	child := blockHash(5)

	require.NoError(t, g.ProcessAttestations(bus.AttestationBatch{Epoch: 4, Attestations: []types.Attestation{
		{Validator: ids[0], BlockHash: parent, SourceEpoch: 3, TargetEpoch: 4},
		{Validator: ids[1], BlockHash: parent, SourceEpoch: 3, TargetEpoch: 4},
	}}))
	require.Equal(t, types.CheckpointJustified, g.lat.get(4, parent).State)

	require.NoError(t, g.ProcessAttestations(bus.AttestationBatch{Epoch: 5, Attestations: []types.Attestation{
		{Validator: ids[0], BlockHash: child, SourceEpoch: 4, TargetEpoch: 5},
		{Validator: ids[1], BlockHash: child, SourceEpoch: 4, TargetEpoch: 5},
	}}))

	require.Equal(t, types.CheckpointFinalized, g.lat.get(4, parent).State)
	last, ok := g.GetLastFinalized()
	require.True(t, ok)
	require.Equal(t, parent, last.BlockHash)
	require.True(t, g.IsFinalized(parent))
}

func TestProcessAttestations_DoubleVoteRejected(t *testing.T) {
	validators, ids := threeEqualValidators()
	g, _, _ := newTestGadget(t, DefaultConfig(), validators)

	first := bus.AttestationBatch{Epoch: 5, Attestations: []types.Attestation{
		{Validator: ids[0], BlockHash: blockHash(1), SourceEpoch: 4, TargetEpoch: 5},
	}}
	require.NoError(t, g.ProcessAttestations(first))

	conflicting := bus.AttestationBatch{Epoch: 5, Attestations: []types.Attestation{
		{Validator: ids[0], BlockHash: blockHash(2), SourceEpoch: 4, TargetEpoch: 5},
	}}
	require.NoError(t, g.ProcessAttestations(conflicting))

	// The conflicting vote must not have been counted toward blockHash(2)'s stake.
	require.Equal(t, uint64(0), g.lat.accumulatedStake(5, blockHash(2)))
}

func TestProcessAttestations_SurroundVoteRejected(t *testing.T) {
	validators, ids := threeEqualValidators()
	g, _, _ := newTestGadget(t, DefaultConfig(), validators)

	require.NoError(t, g.ProcessAttestations(bus.AttestationBatch{Attestations: []types.Attestation{
		{Validator: ids[0], BlockHash: blockHash(1), SourceEpoch: 2, TargetEpoch: 10},
	}}))
	require.NoError(t, g.ProcessAttestations(bus.AttestationBatch{Attestations: []types.Attestation{
		{Validator: ids[0], BlockHash: blockHash(2), SourceEpoch: 4, TargetEpoch: 6},
	}}))

	require.Equal(t, uint64(0), g.lat.accumulatedStake(6, blockHash(2)))
}

func TestCircuitBreaker_RunningToSyncToHalted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InactivityLeakEpochs = 1
	cfg.MaxSyncAttempts = 2
	validators, _ := threeEqualValidators()
	g, clock, _ := newTestGadget(t, cfg, validators)

	require.Equal(t, types.BreakerRunning, g.GetState())

	g.AdvanceEpoch(1)
	g.AdvanceEpoch(2) // epochsWithoutFinal now exceeds threshold
	require.Equal(t, types.BreakerSyncing, g.GetState())

	timeoutSecs := uint64(cfg.SyncAttemptTimeout.Seconds()) + 1
	clock.Advance(timeoutSecs)
	g.Tick()
	require.Equal(t, types.BreakerSyncing, g.GetState()) // attempt 2 of 2

	clock.Advance(timeoutSecs)
	g.Tick()
	require.Equal(t, types.BreakerHalted, g.GetState())

	err := g.ProcessAttestations(bus.AttestationBatch{})
	require.ErrorIs(t, err, ErrSystemHalted)
}

func TestResetFromHalted(t *testing.T) {
	validators, _ := threeEqualValidators()
	g, _, _ := newTestGadget(t, DefaultConfig(), validators)

	require.ErrorIs(t, g.ResetFromHalted(), ErrNotHalted)

	g.breaker.phase = types.BreakerHalted
	require.NoError(t, g.ResetFromHalted())
	require.Equal(t, types.BreakerRunning, g.GetState())
}

func TestAdvanceEpoch_ActivatesInactivityLeak(t *testing.T) {
	validators, _ := threeEqualValidators()
	cfg := DefaultConfig()
	cfg.InactivityLeakEpochs = 0
	g, _, _ := newTestGadget(t, cfg, validators)

	g.AdvanceEpoch(1)
	g.AdvanceEpoch(2)
	require.True(t, g.breaker.isInactivityLeakActive())
}
