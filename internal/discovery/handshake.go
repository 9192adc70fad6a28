// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import "github.com/luxfi/nodekernel/pkg/types"

// ChainIdentity is exchanged during the post-connection handshake so peers
// on incompatible chains never make it past staging into a k-bucket.
// Grounded on
// original_source/crates/qc-01-peer-discovery/src/domain/handshake.rs's
// fork-id convergence check.
type ChainIdentity struct {
	GenesisHash     types.Hash
	NetworkID       uint32
	ProtocolVersion uint32
	HeadHeight      uint64
	HeadHash        types.Hash
	TotalDifficulty uint64
}

// SyncRelation classifies a remote peer relative to local chain state.
type SyncRelation int

const (
	// SyncEqual means neither side has more total difficulty and neither
	// head is more than maxBehindBlocks ahead of the other.
	SyncEqual SyncRelation = iota
	// SyncSource means the remote is ahead: local should sync from it.
	SyncSource
	// SyncTarget means local is ahead: remote should sync from local.
	SyncTarget
	// SyncIncompatible means genesis/network/protocol diverge and the
	// connection must be rejected outright.
	SyncIncompatible
)

// ClassifyHandshake rejects peers on a different genesis, network, or
// protocol version outright, then reports which side should serve sync data
// based on (head_height, total_difficulty) like a fork-choice comparison.
func ClassifyHandshake(local, remote ChainIdentity, maxBehindBlocks uint64) SyncRelation {
	if local.GenesisHash != remote.GenesisHash ||
		local.NetworkID != remote.NetworkID ||
		local.ProtocolVersion != remote.ProtocolVersion {
		return SyncIncompatible
	}
	switch {
	case remote.TotalDifficulty > local.TotalDifficulty,
		remote.HeadHeight > local.HeadHeight+maxBehindBlocks:
		return SyncSource
	case local.TotalDifficulty > remote.TotalDifficulty,
		local.HeadHeight > remote.HeadHeight+maxBehindBlocks:
		return SyncTarget
	default:
		return SyncEqual
	}
}
