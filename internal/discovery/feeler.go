// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import (
	"context"
	"time"

	"github.com/luxfi/nodekernel/internal/ports"
)

// FeelerInterval is how often a feeler connection is attempted against a
// random New-table address, per
// original_source/crates/qc-01-peer-discovery/src/domain/feeler.rs's design
// ("periodically dial addresses we've never connected to, to validate them
// before they can be promoted to Tried").
const FeelerInterval = 2 * time.Minute

// Feeler periodically samples the New table and verifies one address is
// reachable, moving it to Tried on success. It never touches the verified
// k-bucket table directly; a successful feeler re-stages the peer through
// the normal StagePeer/identity-verification path.
type Feeler struct {
	addrs  *AddressManager
	rand   ports.RandomSource
	pinger LivenessChecker
	stage  func(PeerInfo) error
}

// NewFeeler builds a feeler task around addrs, sampling with rand and
// probing liveness with pinger. stage is called with the sampled candidate
// when it should be re-admitted through normal staged verification.
func NewFeeler(addrs *AddressManager, rand ports.RandomSource, pinger LivenessChecker, stage func(PeerInfo) error) *Feeler {
	return &Feeler{addrs: addrs, rand: rand, pinger: pinger, stage: stage}
}

// Run fires one feeler probe every FeelerInterval until ctx is cancelled.
func (f *Feeler) Run(ctx context.Context) {
	ticker := time.NewTicker(FeelerInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.probeOnce(ctx)
		}
	}
}

func (f *Feeler) probeOnce(ctx context.Context) {
	candidate, ok := f.addrs.RandomNew(f.rand)
	if !ok {
		return
	}
	if f.pinger == nil || !f.pinger.Ping(ctx, candidate) {
		return
	}
	f.addrs.MarkTried(candidate.NodeID, time.Now())
	if f.stage != nil {
		_ = f.stage(candidate)
	}
}
