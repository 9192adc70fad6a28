// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/internal/metrics"
	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/pkg/types"

	"github.com/prometheus/client_golang/prometheus"
)

// pendingVerificationEntry is a staged candidate awaiting
// VerifyNodeIdentityResult (spec.md §4.6's "bootstrap -> pending_verification").
type pendingVerificationEntry struct {
	candidate PeerInfo
	deadline  time.Time
}

// pendingInsertionEntry tracks an in-flight eviction challenge: candidate
// wants challengedPeer's bucket slot, and challengedPeer gets one liveness
// ping before losing it.
type pendingInsertionEntry struct {
	candidate      PeerInfo
	challengedPeer types.NodeID
	bucketIdx      int
	deadline       time.Time
}

// RoutingTableStats is a point-in-time snapshot for status/metrics surfaces.
// Shape grounded on original_source's RoutingTableStats.
type RoutingTableStats struct {
	TotalPeers               int
	BucketsUsed              int
	BannedCount              int
	OldestPeerAgeSeconds     uint64
	PendingVerificationCount int
	MaxPendingPeers          int
}

// RoutingTable is the Kademlia-style verified-peer store (spec.md §4.6).
type RoutingTable struct {
	cfg    Config
	selfID types.NodeID
	clock  ports.TimeSource
	pinger LivenessChecker
	scorer *PeerScoreManager
	pub    *bus.Publisher
	log    nodelog.Logger

	mu                  sync.Mutex
	buckets             [NumBuckets]*kBucket
	pendingVerification map[types.NodeID]pendingVerificationEntry
	pendingInsertion    map[types.NodeID]pendingInsertionEntry // keyed by challengedPeer
	banned              *bannedPeers
	subnet16Counts      map[net16]int

	peersStaged    prometheus.Counter
	peersAdmitted  prometheus.Counter
	peersRejected  *prometheus.CounterVec
	peersEvicted   prometheus.Counter
	bucketGauge    prometheus.Gauge
}

// New constructs an empty routing table around self. scorer may be nil, in
// which case eviction challenges fall back to pure least-recently-seen
// selection.
func New(cfg Config, self types.NodeID, clock ports.TimeSource, pinger LivenessChecker, scorer *PeerScoreManager, pub *bus.Publisher, log nodelog.Logger, reg *metrics.Registry) *RoutingTable {
	rt := &RoutingTable{
		cfg:                  cfg,
		selfID:               self,
		clock:                clock,
		pinger:               pinger,
		scorer:               scorer,
		pub:                  pub,
		log:                  log,
		pendingVerification:  make(map[types.NodeID]pendingVerificationEntry),
		pendingInsertion:     make(map[types.NodeID]pendingInsertionEntry),
		banned:               newBannedPeers(),
		subnet16Counts:       make(map[net16]int),
	}
	for i := range rt.buckets {
		rt.buckets[i] = newKBucket(cfg.BucketSize)
	}
	if reg != nil {
		rt.peersStaged = reg.Counter("discovery", "peers_staged_total", "Candidates staged for identity verification.")
		rt.peersAdmitted = reg.Counter("discovery", "peers_admitted_total", "Peers admitted into a k-bucket.")
		rt.peersRejected = reg.CounterVec("discovery", "peers_rejected_total", "Candidates rejected by reason.", []string{"reason"})
		rt.peersEvicted = reg.Counter("discovery", "peers_evicted_total", "Incumbents evicted after a failed liveness challenge.")
		rt.bucketGauge = reg.Gauge("discovery", "verified_peers", "Total verified peers across all buckets.")
	}
	return rt
}

func (rt *RoutingTable) now() time.Time { return time.Unix(int64(rt.clock.NowUnix()), 0) }

func (rt *RoutingTable) reject(reason string) {
	if rt.peersRejected != nil {
		rt.peersRejected.WithLabelValues(reason).Inc()
	}
}

// StagePeer admits candidate into pending_verification and asks Signature
// Verification to check its claimed identity (spec.md §4.6 step 1). Returns
// ErrBootstrapCapacityExceeded once max_pending_peers is reached (I-memory-bomb),
// and ErrBanned for a currently-banned id.
func (rt *RoutingTable) StagePeer(candidate PeerInfo, claimedPubKey, signature []byte) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	now := rt.now()
	if rt.banned.isBanned(candidate.NodeID, now) {
		rt.reject("banned")
		return ErrBanned
	}
	if _, ok := rt.pendingVerification[candidate.NodeID]; ok {
		return nil // already staged
	}
	if len(rt.pendingVerification) >= rt.cfg.MaxPendingPeers {
		rt.reject("bootstrap_capacity")
		return ErrBootstrapCapacityExceeded
	}
	rt.pendingVerification[candidate.NodeID] = pendingVerificationEntry{
		candidate: candidate,
		deadline:  now.Add(rt.cfg.VerificationTimeout),
	}
	if rt.peersStaged != nil {
		rt.peersStaged.Inc()
	}
	if rt.pub != nil {
		_ = rt.pub.Publish(bus.TopicVerifyNodeIdentityRequest, bus.SubsystemSignatureVerify, bus.VerifyNodeIdentityRequest{
			NodeID:        candidate.NodeID,
			ClaimedPubKey: claimedPubKey,
			Signature:     signature,
		})
	}
	return nil
}

// HandleVerifyNodeIdentityResult resolves a staged candidate: invalid
// identities are dropped, valid ones proceed to bucket admission.
func (rt *RoutingTable) HandleVerifyNodeIdentityResult(result bus.VerifyNodeIdentityResult) {
	rt.mu.Lock()
	entry, ok := rt.pendingVerification[result.NodeID]
	if ok {
		delete(rt.pendingVerification, result.NodeID)
	}
	rt.mu.Unlock()
	if !ok {
		return
	}
	if !result.Valid {
		rt.reject("invalid_identity")
		return
	}
	entry.candidate.Identified = true
	rt.admit(entry.candidate)
}

// admit places a verified candidate into its bucket, starting an
// eviction challenge against the incumbent if the bucket is full.
func (rt *RoutingTable) admit(candidate PeerInfo) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	now := rt.now()
	if rt.banned.isBanned(candidate.NodeID, now) {
		rt.reject("banned")
		return
	}
	idx := bucketIndex(rt.selfID, candidate.NodeID)
	bucket := rt.buckets[idx]

	if bucket.contains(candidate.NodeID) {
		candidate.LastSeen = now
		bucket.touch(candidate)
		return
	}
	if err := rt.checkSubnetQuotaLocked(idx, candidate); err != nil {
		rt.reject("subnet_quota")
		return
	}
	candidate.LastSeen = now
	if !bucket.full() {
		bucket.insert(candidate)
		rt.accountSubnetLocked(candidate, 1)
		rt.onAdmittedLocked()
		return
	}

	oldest, ok := bucket.challengeTarget(rt.scorer)
	if !ok {
		bucket.insert(candidate)
		rt.accountSubnetLocked(candidate, 1)
		rt.onAdmittedLocked()
		return
	}
	if _, inFlight := rt.pendingInsertion[oldest.NodeID]; inFlight {
		rt.reject("bucket_full")
		return
	}
	rt.pendingInsertion[oldest.NodeID] = pendingInsertionEntry{
		candidate:      candidate,
		challengedPeer: oldest.NodeID,
		bucketIdx:      idx,
		deadline:       now.Add(rt.cfg.ChallengeTimeout),
	}
	rt.startChallenge(oldest)
}

func (rt *RoutingTable) onAdmittedLocked() {
	if rt.peersAdmitted != nil {
		rt.peersAdmitted.Inc()
	}
	if rt.bucketGauge != nil {
		rt.bucketGauge.Inc()
	}
}

// startChallenge pings the incumbent out-of-band and self-publishes the
// outcome as ChallengeResponse (spec.md §4.6), mirroring the
// publish-then-consume loop internal/sigverify uses for identity results.
func (rt *RoutingTable) startChallenge(incumbent PeerInfo) {
	if rt.pinger == nil || rt.pub == nil {
		return
	}
	go func(peer PeerInfo) {
		alive := rt.pinger.Ping(context.Background(), peer)
		_ = rt.pub.Publish(bus.TopicChallengeResponse, bus.SubsystemPeerDiscovery, bus.ChallengeResponse{
			ChallengedPeer: peer.NodeID,
			Alive:          alive,
		})
	}(incumbent)
}

// HandleChallengeResponse resolves an eviction challenge: a live incumbent
// keeps its slot and the candidate is discarded; a non-responsive incumbent
// is evicted in favor of the candidate.
func (rt *RoutingTable) HandleChallengeResponse(resp bus.ChallengeResponse) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	pending, ok := rt.pendingInsertion[resp.ChallengedPeer]
	if !ok {
		return
	}
	delete(rt.pendingInsertion, resp.ChallengedPeer)

	if resp.Alive {
		rt.buckets[pending.bucketIdx].touchLastSeen(resp.ChallengedPeer, rt.now())
		rt.reject("challenge_survived")
		return
	}

	bucket := rt.buckets[pending.bucketIdx]
	if removed, ok := rt.bucketRemove(bucket, resp.ChallengedPeer); ok {
		rt.accountSubnetLocked(removed, -1)
		if rt.peersEvicted != nil {
			rt.peersEvicted.Inc()
		}
		if rt.bucketGauge != nil {
			rt.bucketGauge.Dec()
		}
	}
	if err := rt.checkSubnetQuotaLocked(pending.bucketIdx, pending.candidate); err != nil {
		rt.reject("subnet_quota")
		return
	}
	pending.candidate.LastSeen = rt.now()
	bucket.insert(pending.candidate)
	rt.accountSubnetLocked(pending.candidate, 1)
	rt.onAdmittedLocked()
}

// bucketRemove removes id from bucket, returning the removed PeerInfo.
func (rt *RoutingTable) bucketRemove(bucket *kBucket, id types.NodeID) (PeerInfo, bool) {
	idx := bucket.indexOf(id)
	if idx < 0 {
		return PeerInfo{}, false
	}
	removed := bucket.peers[idx]
	bucket.remove(id)
	return removed, true
}

// checkSubnetQuotaLocked enforces I-ipd: at most MaxPerSubnetPerBucket peers
// sharing a /24 within one bucket, and MaxPerSubnetTotal sharing a /16
// across the whole table. Callers must hold rt.mu.
func (rt *RoutingTable) checkSubnetQuotaLocked(bucketIdx int, candidate PeerInfo) error {
	if s24, ok := candidate.subnet24AsNet24(); ok {
		if rt.buckets[bucketIdx].countSubnet24(s24) >= rt.cfg.MaxPerSubnetPerBucket {
			return ErrSubnetQuotaExceeded
		}
	}
	if s16, ok := candidate.subnet16AsNet16(); ok {
		if rt.subnet16Counts[s16] >= rt.cfg.MaxPerSubnetTotal {
			return ErrSubnetQuotaExceeded
		}
	}
	return nil
}

func (rt *RoutingTable) accountSubnetLocked(peer PeerInfo, delta int) {
	if s16, ok := peer.subnet16AsNet16(); ok {
		rt.subnet16Counts[s16] += delta
		if rt.subnet16Counts[s16] <= 0 {
			delete(rt.subnet16Counts, s16)
		}
	}
}

// Ban marks id banned for the configured default duration.
func (rt *RoutingTable) Ban(id types.NodeID, reason BanReason) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.banned.ban(id, rt.now().Add(rt.cfg.DefaultBanDuration), reason)
	delete(rt.pendingVerification, id)
	for _, b := range rt.buckets {
		if removed, ok := rt.bucketRemove(b, id); ok {
			rt.accountSubnetLocked(removed, -1)
			if rt.bucketGauge != nil {
				rt.bucketGauge.Dec()
			}
			break
		}
	}
}

// Get returns a verified peer's current PeerInfo. It returns ErrNotVerified
// if id is only staged in pending_verification, or ErrUnknownPeer if the
// table has no record of it at all.
func (rt *RoutingTable) Get(id types.NodeID) (PeerInfo, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	idx := bucketIndex(rt.selfID, id)
	if i := rt.buckets[idx].indexOf(id); i >= 0 {
		return rt.buckets[idx].peers[i], nil
	}
	if _, ok := rt.pendingVerification[id]; ok {
		return PeerInfo{}, ErrNotVerified
	}
	return PeerInfo{}, ErrUnknownPeer
}

// IsBanned reports whether id is currently banned.
func (rt *RoutingTable) IsBanned(id types.NodeID) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.banned.isBanned(id, rt.now())
}

// GC sweeps expired bans and timed-out staged/challenged entries. Staged
// candidates that never resolved in time are simply dropped; unresolved
// eviction challenges are treated as a non-responsive incumbent so the
// candidate is not starved forever by a dead ping.
func (rt *RoutingTable) GC() {
	rt.mu.Lock()
	now := rt.now()
	rt.banned.gcExpired(now)

	for id, entry := range rt.pendingVerification {
		if now.After(entry.deadline) {
			delete(rt.pendingVerification, id)
			rt.reject("verification_timeout")
		}
	}
	var timedOut []bus.ChallengeResponse
	for challenged, entry := range rt.pendingInsertion {
		if now.After(entry.deadline) {
			timedOut = append(timedOut, bus.ChallengeResponse{ChallengedPeer: challenged, Alive: false})
		}
	}
	rt.mu.Unlock()

	for _, resp := range timedOut {
		rt.HandleChallengeResponse(resp)
	}
}

// Stats returns a point-in-time snapshot of table occupancy.
func (rt *RoutingTable) Stats() RoutingTableStats {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	now := rt.now()
	var total, used int
	var oldestAge uint64
	for _, b := range rt.buckets {
		if b.len() == 0 {
			continue
		}
		used++
		total += b.len()
		if oldest, ok := b.oldest(); ok {
			age := uint64(now.Sub(oldest.LastSeen).Seconds())
			if age > oldestAge {
				oldestAge = age
			}
		}
	}
	return RoutingTableStats{
		TotalPeers:               total,
		BucketsUsed:              used,
		BannedCount:              rt.banned.count(now),
		OldestPeerAgeSeconds:     oldestAge,
		PendingVerificationCount: len(rt.pendingVerification),
		MaxPendingPeers:          rt.cfg.MaxPendingPeers,
	}
}
