// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import (
	"time"

	"github.com/luxfi/nodekernel/pkg/types"
)

// Capability advertises a feature a node supports (full node, light server,
// a specific shard range, ...). Ported from
// original_source/.../enr/capability.rs's Capability/CapabilityType, with
// the shard fields kept for forward compatibility even though this module
// runs single-shard.
type Capability struct {
	Type     CapabilityType
	ShardMin uint16
	ShardMax uint16
}

type CapabilityType uint8

const (
	CapabilityFullNode CapabilityType = iota + 1
	CapabilityLightServer
	CapabilityShardRange
	CapabilityArchive
)

// NodeRecord is a self-signed identity/capability record (EIP-778-inspired,
// per original_source/.../enr.rs), exchanged so peers can select capable
// sync sources without a separate handshake round-trip.
type NodeRecord struct {
	NodeID       types.NodeID
	Seq          uint64
	PubKey       []byte
	IP           []byte
	Port         uint16
	Capabilities []Capability
}

type cachedRecord struct {
	record     NodeRecord
	receivedAt time.Time
}

// EnrCache holds the highest-sequence NodeRecord seen per peer, discarding
// stale replays. Grounded on original_source/.../enr/cache.rs's EnrCache.
type EnrCache struct {
	maxAge  time.Duration
	maxCaps int
	records map[types.NodeID]cachedRecord
}

func NewEnrCache(maxAge time.Duration, maxCapabilities int) *EnrCache {
	return &EnrCache{
		maxAge:  maxAge,
		maxCaps: maxCapabilities,
		records: make(map[types.NodeID]cachedRecord),
	}
}

// Insert stores record if it is newer than whatever is cached for its
// NodeID and within the capability-count limit (anti-bloat, per
// original_source's max_capabilities check). Returns whether it was stored.
func (c *EnrCache) Insert(record NodeRecord, now time.Time) bool {
	if len(record.Capabilities) > c.maxCaps {
		return false
	}
	if existing, ok := c.records[record.NodeID]; ok && record.Seq <= existing.record.Seq {
		return false
	}
	c.records[record.NodeID] = cachedRecord{record: record, receivedAt: now}
	return true
}

func (c *EnrCache) Get(id types.NodeID) (NodeRecord, bool) {
	cached, ok := c.records[id]
	return cached.record, ok
}

// FindByCapability returns every cached record advertising capType.
func (c *EnrCache) FindByCapability(capType CapabilityType) []NodeRecord {
	var out []NodeRecord
	for _, cached := range c.records {
		for _, cap := range cached.record.Capabilities {
			if cap.Type == capType {
				out = append(out, cached.record)
				break
			}
		}
	}
	return out
}

// GCStale removes records older than maxAge, returning how many were purged.
func (c *EnrCache) GCStale(now time.Time) int {
	removed := 0
	for id, cached := range c.records {
		if now.Sub(cached.receivedAt) >= c.maxAge {
			delete(c.records, id)
			removed++
		}
	}
	return removed
}
