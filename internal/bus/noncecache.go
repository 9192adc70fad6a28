// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bus

import (
	"errors"
	"sync"
)

// ErrNonceCacheFull is returned when the nonce cache cannot admit a new
// entry (spec.md §4.1's "Cache full ⇒ reject with NonceCacheFull").
var ErrNonceCacheFull = errors.New("bus: nonce cache full")

// ErrNonceReused is returned when the same (sender_id, nonce) pair is
// observed twice within the validity window (spec.md §4.1 step 4).
var ErrNonceReused = errors.New("bus: nonce reused")

type nonceKey struct {
	sender SubsystemID
	nonce  uint64
}

// NonceCache is the time-bounded (sender_id, nonce) -> insert_time map
// spec.md §4.1 requires for replay protection. A single guarded map is
// shared by every subscriber (spec.md §5's "Shared-resource policy").
type NonceCache struct {
	mu       sync.Mutex
	entries  map[nonceKey]uint64 // insert_time (unix secs)
	maxSize  int
	retention uint64 // max_age + jitter, in seconds
}

// NewNonceCache returns an empty cache bounded to maxSize entries, retaining
// entries for retentionSecs after insertion.
func NewNonceCache(maxSize int, retentionSecs uint64) *NonceCache {
	return &NonceCache{
		entries:   make(map[nonceKey]uint64),
		maxSize:   maxSize,
		retention: retentionSecs,
	}
}

// Insert atomically checks-and-inserts (sender, nonce) at time now. It
// returns ErrNonceReused if the pair was already present, or
// ErrNonceCacheFull if the cache has no room and sweeping didn't free any.
func (c *NonceCache) Insert(sender SubsystemID, nonce uint64, now uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := nonceKey{sender: sender, nonce: nonce}
	if _, exists := c.entries[key]; exists {
		return ErrNonceReused
	}

	if len(c.entries) >= c.maxSize {
		c.sweepLocked(now)
		if len(c.entries) >= c.maxSize {
			return ErrNonceCacheFull
		}
	}

	c.entries[key] = now
	return nil
}

// Sweep removes every entry older than retention, relative to now. Intended
// to run on a fixed interval (spec.md §4.1's "swept at a fixed interval").
func (c *NonceCache) Sweep(now uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(now)
}

func (c *NonceCache) sweepLocked(now uint64) int {
	removed := 0
	for k, t := range c.entries {
		if now-t > c.retention {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the current number of tracked nonces (for tests/metrics).
func (c *NonceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
