// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/pkg/types"
)

func nodeID(b byte) types.NodeID {
	var id types.NodeID
	id[0] = b
	return id
}

func peerOn(id types.NodeID, ip net.IP) PeerInfo {
	return PeerInfo{NodeID: id, IP: ip, Port: 30303}
}

func newTestTable(t *testing.T, cfg Config, pinger LivenessChecker) (*RoutingTable, *ports.ManualClock) {
	t.Helper()
	clock := ports.NewManualClock(1_000)
	self := nodeID(0xFF)
	rt := New(cfg, self, clock, pinger, nil, nil, nodelog.NewNoOp(), nil)
	return rt, clock
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.BucketSize = 2
	cfg.MaxPendingPeers = 2
	cfg.MaxPerSubnetPerBucket = 1
	cfg.MaxPerSubnetTotal = 2
	cfg.VerificationTimeout = 5 * time.Second
	cfg.ChallengeTimeout = 5 * time.Second
	return cfg
}

func TestBucketIndex_IdenticalIDsUseLastBucket(t *testing.T) {
	self := nodeID(0x42)
	require.Equal(t, NumBuckets-1, bucketIndex(self, self))
}

func TestBucketIndex_TopBitDifferenceUsesBucketZero(t *testing.T) {
	self := nodeID(0x00)
	other := nodeID(0x80) // differs in the most significant bit of byte 0
	require.Equal(t, 0, bucketIndex(self, other))
}

func TestStagePeer_RejectsOverBootstrapCapacity(t *testing.T) {
	rt, _ := newTestTable(t, smallConfig(), nil)
	require.NoError(t, rt.StagePeer(peerOn(nodeID(1), net.IPv4(1, 1, 1, 1)), nil, nil))
	require.NoError(t, rt.StagePeer(peerOn(nodeID(2), net.IPv4(2, 2, 2, 2)), nil, nil))
	err := rt.StagePeer(peerOn(nodeID(3), net.IPv4(3, 3, 3, 3)), nil, nil)
	require.ErrorIs(t, err, ErrBootstrapCapacityExceeded)
}

func TestHandleVerifyNodeIdentityResult_AdmitsValidCandidate(t *testing.T) {
	rt, _ := newTestTable(t, smallConfig(), nil)
	candidate := peerOn(nodeID(1), net.IPv4(1, 1, 1, 1))
	require.NoError(t, rt.StagePeer(candidate, nil, nil))

	rt.HandleVerifyNodeIdentityResult(bus.VerifyNodeIdentityResult{NodeID: candidate.NodeID, Valid: true})

	got, err := rt.Get(candidate.NodeID)
	require.NoError(t, err)
	require.Equal(t, candidate.NodeID, got.NodeID)
}

func TestHandleVerifyNodeIdentityResult_DropsInvalidCandidate(t *testing.T) {
	rt, _ := newTestTable(t, smallConfig(), nil)
	candidate := peerOn(nodeID(1), net.IPv4(1, 1, 1, 1))
	require.NoError(t, rt.StagePeer(candidate, nil, nil))

	rt.HandleVerifyNodeIdentityResult(bus.VerifyNodeIdentityResult{NodeID: candidate.NodeID, Valid: false})

	_, err := rt.Get(candidate.NodeID)
	require.ErrorIs(t, err, ErrUnknownPeer)
}

func TestAdmit_RejectsOverSubnetQuota(t *testing.T) {
	rt, _ := newTestTable(t, smallConfig(), nil)
	// Same /24 (10.0.0.x) and /16 (10.0.x.x): second distinct id should be
	// rejected by the per-bucket /24 quota of 1 (I-ipd).
	rt.admit(peerOn(nodeID(1), net.IPv4(10, 0, 0, 1)))
	rt.admit(peerOn(nodeID(2), net.IPv4(10, 0, 0, 2)))

	_, err := rt.Get(nodeID(2))
	require.ErrorIs(t, err, ErrUnknownPeer)
	_, err = rt.Get(nodeID(1))
	require.NoError(t, err)
}

func TestAdmit_StartsEvictionChallengeWhenBucketFull(t *testing.T) {
	cfg := smallConfig()
	cfg.BucketSize = 1
	cfg.MaxPerSubnetPerBucket = 10
	cfg.MaxPerSubnetTotal = 10

	fake := &fakePinger{alive: false}
	rt, _ := newTestTable(t, cfg, fake)

	incumbent := peerOn(nodeID(1), net.IPv4(10, 0, 0, 1))
	candidate := peerOn(nodeID(2), net.IPv4(20, 0, 0, 1))
	rt.admit(incumbent)
	rt.admit(candidate) // bucket is full (size 1): starts a challenge against incumbent

	rt.mu.Lock()
	_, inFlight := rt.pendingInsertion[incumbent.NodeID]
	rt.mu.Unlock()
	require.True(t, inFlight)

	// Simulate the challenge resolving with the incumbent unresponsive.
	rt.HandleChallengeResponse(bus.ChallengeResponse{ChallengedPeer: incumbent.NodeID, Alive: false})

	_, err := rt.Get(incumbent.NodeID)
	require.ErrorIs(t, err, ErrUnknownPeer)
	got, err := rt.Get(candidate.NodeID)
	require.NoError(t, err)
	require.Equal(t, candidate.NodeID, got.NodeID)
}

func TestHandleChallengeResponse_IncumbentSurvivesWhenAlive(t *testing.T) {
	cfg := smallConfig()
	cfg.BucketSize = 1
	cfg.MaxPerSubnetPerBucket = 10
	cfg.MaxPerSubnetTotal = 10

	rt, _ := newTestTable(t, cfg, nil)
	incumbent := peerOn(nodeID(1), net.IPv4(10, 0, 0, 1))
	candidate := peerOn(nodeID(2), net.IPv4(20, 0, 0, 1))
	rt.admit(incumbent)
	rt.admit(candidate)

	rt.HandleChallengeResponse(bus.ChallengeResponse{ChallengedPeer: incumbent.NodeID, Alive: true})

	_, err := rt.Get(incumbent.NodeID)
	require.NoError(t, err)
	_, err = rt.Get(candidate.NodeID)
	require.ErrorIs(t, err, ErrUnknownPeer)
}

func TestBan_RemovesPeerAndRejectsRestaging(t *testing.T) {
	rt, clock := newTestTable(t, smallConfig(), nil)
	peer := peerOn(nodeID(1), net.IPv4(1, 1, 1, 1))
	rt.admit(peer)
	require.NoError(t, rt.StagePeer(peerOn(nodeID(2), net.IPv4(2, 2, 2, 2)), nil, nil))

	rt.Ban(peer.NodeID, BanReasonProtocolViolation)
	_, err := rt.Get(peer.NodeID)
	require.ErrorIs(t, err, ErrUnknownPeer)
	require.True(t, rt.IsBanned(peer.NodeID))

	err = rt.StagePeer(peer, nil, nil)
	require.ErrorIs(t, err, ErrBanned)

	clock.Advance(uint64(rt.cfg.DefaultBanDuration.Seconds()) + 1)
	rt.GC()
	require.False(t, rt.IsBanned(peer.NodeID))
}

func TestGC_DropsExpiredStagedCandidate(t *testing.T) {
	rt, clock := newTestTable(t, smallConfig(), nil)
	require.NoError(t, rt.StagePeer(peerOn(nodeID(1), net.IPv4(1, 1, 1, 1)), nil, nil))

	clock.Advance(uint64(rt.cfg.VerificationTimeout.Seconds()) + 1)
	rt.GC()

	require.Equal(t, 0, rt.Stats().PendingVerificationCount)
}

type fakePinger struct {
	alive bool
}

func (f *fakePinger) Ping(ctx context.Context, peer PeerInfo) bool {
	return f.alive
}
