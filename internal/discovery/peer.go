// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import (
	"net"
	"time"

	"github.com/luxfi/nodekernel/pkg/types"
)

// PeerInfo is everything the routing table knows about a peer candidate or
// bucket member.
type PeerInfo struct {
	NodeID     types.NodeID
	IP         net.IP
	Port       uint16
	LastSeen   time.Time
	Identified bool // true once NodeIdentityVerificationResult{valid: true} observed
}

// net24 and net16 are comparable subnet keys (net.IP is a slice and cannot be
// used as a map key or compared with ==).
type net24 [3]byte
type net16 [2]byte

// subnet24AsNet24 returns the IPv4 /24 this peer's IP belongs to, as its
// first three octets; IPv6 addresses are not subject to the /24 check
// (spec.md §4.6 describes the IPv4 /24 quota; a /64 analog would apply to
// IPv6, left unimplemented since no example in the pack models IPv6
// subnetting).
func (p PeerInfo) subnet24AsNet24() (net24, bool) {
	v4 := p.IP.To4()
	if v4 == nil {
		return net24{}, false
	}
	return net24{v4[0], v4[1], v4[2]}, true
}

// subnet16AsNet16 returns the IPv4 /16 this peer's IP belongs to.
func (p PeerInfo) subnet16AsNet16() (net16, bool) {
	v4 := p.IP.To4()
	if v4 == nil {
		return net16{}, false
	}
	return net16{v4[0], v4[1]}, true
}
