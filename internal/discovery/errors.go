// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package discovery maintains a Kademlia-style routing table of verified
// peers (spec.md §4.6), resistant to Sybil, eclipse, and memory-exhaustion
// attacks: staged admission through pending_verification, IP-diversity
// quotas per bucket, an eviction-challenge protocol that favors the
// incumbent, and a segregated New/Tried address manager patterned after
// Bitcoin/Decred's addrmgr.
package discovery

import "errors"

var (
	// ErrBootstrapCapacityExceeded is returned by StagePeer when
	// pending_verification is already at max_pending_peers (I-memory-bomb).
	ErrBootstrapCapacityExceeded = errors.New("discovery: bootstrap capacity exceeded")
	// ErrNotVerified is returned for any attempt to treat an unverified peer
	// as routable.
	ErrNotVerified = errors.New("discovery: peer not verified")
	// ErrSubnetQuotaExceeded is returned when I-ipd's per-bucket or global
	// subnet diversity caps would be violated.
	ErrSubnetQuotaExceeded = errors.New("discovery: subnet quota exceeded")
	// ErrBanned is returned when staging or admitting a currently-banned peer.
	ErrBanned = errors.New("discovery: peer is banned")
	// ErrUnknownPeer is returned by operations on a peer id the table has no
	// record of.
	ErrUnknownPeer = errors.New("discovery: unknown peer")
)
