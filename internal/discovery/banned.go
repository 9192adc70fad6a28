// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import (
	"time"

	"github.com/luxfi/nodekernel/pkg/types"
)

// BanReason tags why a peer was banned.
type BanReason int

const (
	BanReasonInvalidIdentity BanReason = iota
	BanReasonProtocolViolation
	BanReasonForkIDMismatch
	BanReasonManual
)

type bannedEntry struct {
	bannedUntil time.Time
	reason      BanReason
}

// bannedPeers tracks banned peers with expiration times. Ported from
// original_source/crates/qc-01-peer-discovery/src/domain/routing_table/banned.rs's
// BannedPeers.
type bannedPeers struct {
	entries map[types.NodeID]bannedEntry
}

func newBannedPeers() *bannedPeers {
	return &bannedPeers{entries: make(map[types.NodeID]bannedEntry)}
}

func (b *bannedPeers) ban(id types.NodeID, until time.Time, reason BanReason) {
	b.entries[id] = bannedEntry{bannedUntil: until, reason: reason}
}

func (b *bannedPeers) isBanned(id types.NodeID, now time.Time) bool {
	entry, ok := b.entries[id]
	return ok && entry.bannedUntil.After(now)
}

// gcExpired removes bans whose expiry has passed and returns how many were
// removed.
func (b *bannedPeers) gcExpired(now time.Time) int {
	removed := 0
	for id, entry := range b.entries {
		if !entry.bannedUntil.After(now) {
			delete(b.entries, id)
			removed++
		}
	}
	return removed
}

func (b *bannedPeers) count(now time.Time) int {
	n := 0
	for _, entry := range b.entries {
		if entry.bannedUntil.After(now) {
			n++
		}
	}
	return n
}
