// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txindex

// Config bounds the transaction index's cache and fixes its commitment
// algorithm (spec.md §4.8's MerkleConfig).
type Config struct {
	// MaxCachedTrees bounds the LRU of recent per-block Merkle trees.
	// Eviction is purely a cache miss: proofs can always be rebuilt from
	// the indexed transactions.
	MaxCachedTrees int `yaml:"max_cached_trees"`
}

// DefaultConfig returns spec.md's documented defaults.
func DefaultConfig() Config {
	return Config{MaxCachedTrees: 1000}
}
