// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import (
	"time"

	"github.com/luxfi/nodekernel/pkg/types"
)

// kBucket holds at most `capacity` verified peers ordered least-recently-seen
// first (spec.md §4.6). The front of peers is the eviction candidate; touch
// moves a peer to the back.
type kBucket struct {
	peers    []PeerInfo
	capacity int
}

func newKBucket(capacity int) *kBucket {
	return &kBucket{capacity: capacity}
}

func (k *kBucket) len() int { return len(k.peers) }

func (k *kBucket) full() bool { return len(k.peers) >= k.capacity }

func (k *kBucket) indexOf(id types.NodeID) int {
	for i, p := range k.peers {
		if p.NodeID == id {
			return i
		}
	}
	return -1
}

func (k *kBucket) contains(id types.NodeID) bool {
	return k.indexOf(id) >= 0
}

// touch moves an existing peer to the back (most-recently-seen) and updates
// its LastSeen, or no-ops if the peer isn't present.
func (k *kBucket) touch(info PeerInfo) {
	i := k.indexOf(info.NodeID)
	if i < 0 {
		return
	}
	k.peers = append(k.peers[:i], k.peers[i+1:]...)
	k.peers = append(k.peers, info)
}

// touchLastSeen moves an existing peer to the back and bumps its LastSeen
// without disturbing its other fields (used when a liveness check confirms
// a peer is alive but doesn't re-advertise its address).
func (k *kBucket) touchLastSeen(id types.NodeID, lastSeen time.Time) {
	i := k.indexOf(id)
	if i < 0 {
		return
	}
	p := k.peers[i]
	p.LastSeen = lastSeen
	k.peers = append(k.peers[:i], k.peers[i+1:]...)
	k.peers = append(k.peers, p)
}

// insert appends a peer to the back. Callers must check full() first.
func (k *kBucket) insert(info PeerInfo) {
	k.peers = append(k.peers, info)
}

// remove deletes a peer by id, returning whether it was present.
func (k *kBucket) remove(id types.NodeID) bool {
	i := k.indexOf(id)
	if i < 0 {
		return false
	}
	k.peers = append(k.peers[:i], k.peers[i+1:]...)
	return true
}

// oldest returns the least-recently-seen peer: the eviction-challenge
// incumbent absent any reputation signal.
func (k *kBucket) oldest() (PeerInfo, bool) {
	if len(k.peers) == 0 {
		return PeerInfo{}, false
	}
	return k.peers[0], true
}

// challengeTarget picks who gets eviction-challenged when the bucket is
// full: the lowest-scored member if scorer is supplied (original_source's
// peer_score supplement — reputation outranks recency), falling back to the
// least-recently-seen member (k.peers is ordered LRU-first) on a tie or
// when no scorer is wired.
func (k *kBucket) challengeTarget(scorer *PeerScoreManager) (PeerInfo, bool) {
	if len(k.peers) == 0 {
		return PeerInfo{}, false
	}
	if scorer == nil {
		return k.peers[0], true
	}
	worst := k.peers[0]
	worstScore := scorer.Score(worst.NodeID)
	for _, p := range k.peers[1:] {
		if s := scorer.Score(p.NodeID); s < worstScore {
			worst, worstScore = p, s
		}
	}
	return worst, true
}

// countSubnet24 counts peers sharing the given candidate's /24, for I-ipd.
func (k *kBucket) countSubnet24(subnet net24) int {
	n := 0
	for _, p := range k.peers {
		if s, ok := p.subnet24AsNet24(); ok && s == subnet {
			n++
		}
	}
	return n
}
