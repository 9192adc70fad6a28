// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import (
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/pkg/types"
)

// addressEntry is a gossiped address the manager has not necessarily
// connected to yet. Grounded on
// original_source/.../address_manager/types.rs's AddressEntry.
type addressEntry struct {
	peer         PeerInfo
	firstSeen    time.Time
	lastAttempt  time.Time
	lastSuccess  time.Time
	attempts     uint32
	sourceSubnet net16
}

// addressTable is one segregated table (New or Tried): a fixed bucket count
// with per-subnet totals, mirroring
// original_source/.../address_manager/table.rs's AddressTable.
type addressTable struct {
	buckets       []map[types.NodeID]addressEntry
	subnetTotals  map[net16]int
	nodeToBucket  map[types.NodeID]int
}

func newAddressTable(bucketCount int) *addressTable {
	t := &addressTable{
		buckets:      make([]map[types.NodeID]addressEntry, bucketCount),
		subnetTotals: make(map[net16]int),
		nodeToBucket: make(map[types.NodeID]int),
	}
	for i := range t.buckets {
		t.buckets[i] = make(map[types.NodeID]addressEntry)
	}
	return t
}

func (t *addressTable) len() int {
	n := 0
	for _, b := range t.buckets {
		n += len(b)
	}
	return n
}

func (t *addressTable) contains(id types.NodeID) bool {
	_, ok := t.nodeToBucket[id]
	return ok
}

// AddressManagerStats mirrors address_manager/types.rs's AddressManagerStats.
type AddressManagerStats struct {
	NewCount         int
	TriedCount       int
	NewBucketCount   int
	TriedBucketCount int
}

// AddressManager is a Bitcoin-addrman-style segregated New/Tried address
// book, complementing RoutingTable's verified k-buckets with a larger pool
// of gossiped-but-unverified candidates (spec.md §4.6's Eclipse-resistance
// discussion). Grounded on
// original_source/crates/qc-01-peer-discovery/src/domain/address_manager/.
type AddressManager struct {
	newTable   *addressTable
	triedTable *addressTable
	bucketSize int
	secret     [32]byte
}

const (
	newBucketCount   = 1024
	triedBucketCount = 256
	addrBucketSize   = 64
)

// NewAddressManager builds an empty manager, keying its bucket-hash with
// secret so bucket placement is unpredictable to an attacker (the Go
// equivalent of original_source's secure_bucket_hash, but using a real
// keyed SHA-256 rather than a process-seeded SipHash placeholder, per the
// module's "no placeholder hashes" policy).
func NewAddressManager(rand ports.RandomSource) *AddressManager {
	am := &AddressManager{
		newTable:   newAddressTable(newBucketCount),
		triedTable: newAddressTable(triedBucketCount),
		bucketSize: addrBucketSize,
	}
	var seed [32]byte
	for i := range seed {
		seed[i] = byte(rand.Intn(256))
	}
	am.secret = seed
	return am
}

// bucketHash computes a keyed bucket index for (subnet, nodeID) within
// modulus buckets.
func (am *AddressManager) bucketHash(subnet net16, id types.NodeID, modulus int) int {
	h := sha256.New()
	h.Write(am.secret[:])
	h.Write(subnet[:])
	h.Write(id[:])
	sum := h.Sum(nil)
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(modulus))
}

// AddNew records a gossiped candidate in the New table, keyed by the
// subnet of whoever told us about it (source), not the candidate's own IP;
// this is what prevents an attacker who controls many IPs from
// concentrating their own addresses into a single bucket purely by
// reporting them from one source.
func (am *AddressManager) AddNew(peer PeerInfo, source net16, now time.Time) {
	if am.triedTable.contains(peer.NodeID) {
		return
	}
	idx := am.bucketHash(source, peer.NodeID, newBucketCount)
	am.insertLocked(am.newTable, idx, addressEntry{
		peer:         peer,
		firstSeen:    now,
		sourceSubnet: source,
	})
}

// MarkTried moves a successfully-connected address from New into Tried.
func (am *AddressManager) MarkTried(id types.NodeID, now time.Time) {
	bucketIdx, ok := am.newTable.nodeToBucket[id]
	if !ok {
		return
	}
	entry, ok := am.newTable.buckets[bucketIdx][id]
	if !ok {
		return
	}
	am.removeLocked(am.newTable, bucketIdx, id)
	entry.lastSuccess = now
	entry.attempts++
	idx := am.bucketHash(entry.sourceSubnet, id, triedBucketCount)
	am.insertLocked(am.triedTable, idx, entry)
}

func (am *AddressManager) insertLocked(t *addressTable, bucketIdx int, entry addressEntry) {
	bucket := t.buckets[bucketIdx]
	if _, exists := bucket[entry.peer.NodeID]; !exists && len(bucket) >= am.bucketSize {
		return // bucket full; Bitcoin-style addrman silently drops rather than evicting here
	}
	bucket[entry.peer.NodeID] = entry
	t.nodeToBucket[entry.peer.NodeID] = bucketIdx
	t.subnetTotals[entry.sourceSubnet]++
}

func (am *AddressManager) removeLocked(t *addressTable, bucketIdx int, id types.NodeID) {
	entry, ok := t.buckets[bucketIdx][id]
	if !ok {
		return
	}
	delete(t.buckets[bucketIdx], id)
	delete(t.nodeToBucket, id)
	t.subnetTotals[entry.sourceSubnet]--
	if t.subnetTotals[entry.sourceSubnet] <= 0 {
		delete(t.subnetTotals, entry.sourceSubnet)
	}
}

// Stats returns occupancy counts for both tables.
func (am *AddressManager) Stats() AddressManagerStats {
	return AddressManagerStats{
		NewCount:         am.newTable.len(),
		TriedCount:       am.triedTable.len(),
		NewBucketCount:   newBucketCount,
		TriedBucketCount: triedBucketCount,
	}
}

// RandomNew returns a random entry from the New table: rand picks one
// position across all entries, walked bucket by bucket; the order of
// entries inside a bucket is Go's map iteration order.
func (am *AddressManager) RandomNew(rand ports.RandomSource) (PeerInfo, bool) {
	return randomFrom(am.newTable, rand)
}

// RandomTried returns a uniformly random entry from the Tried table.
func (am *AddressManager) RandomTried(rand ports.RandomSource) (PeerInfo, bool) {
	return randomFrom(am.triedTable, rand)
}

func randomFrom(t *addressTable, rand ports.RandomSource) (PeerInfo, bool) {
	total := t.len()
	if total == 0 {
		return PeerInfo{}, false
	}
	target := rand.Intn(total)
	for _, bucket := range t.buckets {
		if target < len(bucket) {
			for _, entry := range bucket {
				if target == 0 {
					return entry.peer, true
				}
				target--
			}
		}
		target -= len(bucket)
	}
	return PeerInfo{}, false
}
