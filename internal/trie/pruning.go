// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trie

// PruneOlderThan drops recorded snapshots more than depth blocks behind the
// current height and returns how many it dropped. It does not read
// t.cfg.PruningDepth, and nothing in the trie calls it on a schedule.
// Because the node store is content-addressed and shared across snapshots,
// pruning here bounds the snapshot *index* kept for historical lookups; it
// removes no trie node from the node store.
func (t *StateTrie) PruneOlderThan(depth uint64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	tip := t.cur.height
	if tip < depth {
		return 0
	}
	cutoff := tip - depth

	pruned := 0
	kept := t.snapsAge[:0]
	for _, h := range t.snapsAge {
		if h < cutoff {
			delete(t.snaps, h)
			pruned++
			incr(t.nodesPruned)
			continue
		}
		kept = append(kept, h)
	}
	t.snapsAge = kept
	return pruned
}
