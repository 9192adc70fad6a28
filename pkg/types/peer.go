// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"net"
	"time"
)

// PeerInfo is a discovered peer's identity and address, after it has passed
// (or while awaiting) identity verification.
type PeerInfo struct {
	NodeID    NodeID
	Addr      net.IP
	Port      uint16
	FirstSeen time.Time
}

// ForkID is the compact handshake identifier exchanged to fail fast on
// incompatible peers (spec.md §4.6 handshake filter).
type ForkID struct {
	GenesisHash     Hash
	NetworkID       uint32
	ProtocolVersion uint32
	HeadHeight      uint64
	HeadHash        Hash
	TotalDifficulty uint64
}

// PeerClass classifies an accepted peer by relative chain progress.
type PeerClass int

const (
	PeerEqual PeerClass = iota
	PeerSyncSource
	PeerSyncTarget
)
