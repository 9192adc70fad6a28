// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import (
	"sync"
	"time"

	"github.com/luxfi/nodekernel/pkg/types"
)

// PeerScoreConfig weighs the behaviors that move a peer's score, following
// Libp2p GossipSub v1.1 peer scoring as ported in
// original_source/.../peer_score/config.rs.
type PeerScoreConfig struct {
	FirstBlockDeliveryWeight float64
	FirstTxDeliveryWeight    float64
	InvalidBlockPenalty      float64
	InvalidSignaturePenalty  float64
	MeshFailurePenalty       float64
	GraylistThreshold        float64
	BlacklistThreshold       float64
	GraylistDuration         time.Duration
	BlacklistDuration        time.Duration
	DecayRate                float64
}

// DefaultPeerScoreConfig mirrors the Rust defaults.
func DefaultPeerScoreConfig() PeerScoreConfig {
	return PeerScoreConfig{
		FirstBlockDeliveryWeight: 5.0,
		FirstTxDeliveryWeight:    0.5,
		InvalidBlockPenalty:      -50.0,
		InvalidSignaturePenalty:  -100.0,
		MeshFailurePenalty:       -1.0,
		GraylistThreshold:        0.0,
		BlacklistThreshold:       -100.0,
		GraylistDuration:         time.Hour,
		BlacklistDuration:        24 * time.Hour,
		DecayRate:                0.9,
	}
}

// PeerScoreManager tracks a running score per peer and exposes the
// graylist/blacklist verdict it implies (spec.md §4.6 doesn't name gossip
// scoring directly, but original_source ties it into the same eviction/ban
// machinery this package owns).
type PeerScoreManager struct {
	cfg PeerScoreConfig

	mu     sync.Mutex
	scores map[types.NodeID]float64
}

func NewPeerScoreManager(cfg PeerScoreConfig) *PeerScoreManager {
	return &PeerScoreManager{cfg: cfg, scores: make(map[types.NodeID]float64)}
}

func (m *PeerScoreManager) adjust(id types.NodeID, delta float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[id] += delta
	return m.scores[id]
}

// RecordFirstBlockDelivery rewards a peer for being the first to deliver a
// valid block.
func (m *PeerScoreManager) RecordFirstBlockDelivery(id types.NodeID) float64 {
	return m.adjust(id, m.cfg.FirstBlockDeliveryWeight)
}

// RecordFirstTxDelivery rewards a peer for being the first to deliver a
// valid transaction.
func (m *PeerScoreManager) RecordFirstTxDelivery(id types.NodeID) float64 {
	return m.adjust(id, m.cfg.FirstTxDeliveryWeight)
}

// RecordInvalidBlock penalizes a peer for relaying an invalid block.
func (m *PeerScoreManager) RecordInvalidBlock(id types.NodeID) float64 {
	return m.adjust(id, m.cfg.InvalidBlockPenalty)
}

// RecordInvalidSignature penalizes a peer for relaying a transaction or
// attestation with an invalid signature.
func (m *PeerScoreManager) RecordInvalidSignature(id types.NodeID) float64 {
	return m.adjust(id, m.cfg.InvalidSignaturePenalty)
}

// RecordMeshFailure penalizes unreliable relay.
func (m *PeerScoreManager) RecordMeshFailure(id types.NodeID) float64 {
	return m.adjust(id, m.cfg.MeshFailurePenalty)
}

// Score returns a peer's current score (0 if unseen).
func (m *PeerScoreManager) Score(id types.NodeID) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scores[id]
}

// Decay applies the per-tick regression-to-mean decay to every tracked
// score, keeping transient penalties from following a peer forever.
func (m *PeerScoreManager) Decay() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.scores {
		m.scores[id] = s * m.cfg.DecayRate
	}
}

// Verdict reports whether id should be graylisted or blacklisted.
type Verdict int

const (
	VerdictOK Verdict = iota
	VerdictGraylist
	VerdictBlacklist
)

func (m *PeerScoreManager) Verdict(id types.NodeID) Verdict {
	score := m.Score(id)
	switch {
	case score < m.cfg.BlacklistThreshold:
		return VerdictBlacklist
	case score < m.cfg.GraylistThreshold:
		return VerdictGraylist
	default:
		return VerdictOK
	}
}
