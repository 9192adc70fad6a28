// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trie

import "github.com/luxfi/nodekernel/pkg/types"

// recordSnapshotLocked records next under the snapshot table, keyed by its
// height, so a future prove/diagnostic can reconstruct state as of that
// height even after later blocks have been applied (spec.md §4.7
// "Snapshots": every snapshot_interval blocks). Caller holds t.mu.
func (t *StateTrie) recordSnapshotLocked(next *snapshot) {
	t.snaps[next.height] = next
	t.snapsAge = append(t.snapsAge, next.height)
	incr(t.snapshotsTaken)
}

// SnapshotAt returns the recorded snapshot's root hash for height, if one
// was taken (height is an exact multiple of SnapshotInterval and has not
// been dropped by PruneOlderThan).
func (t *StateTrie) SnapshotAt(height uint64) (root types.Hash, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, exists := t.snaps[height]
	if !exists {
		return root, false
	}
	return s.root, true
}
