// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trie

// Config bounds the trie's storage-limit enforcement and snapshot/pruning
// cadence (spec.md §4.7 "Snapshots").
type Config struct {
	// MaxStorageSlotsPerAccount caps a single contract's storage slot count;
	// exceeding it on apply returns ErrStorageLimitExceeded.
	MaxStorageSlotsPerAccount int `yaml:"max_storage_slots_per_account"`
	// SnapshotInterval is the block-height period at which a state snapshot
	// is recorded.
	SnapshotInterval uint64 `yaml:"snapshot_interval"`
	// PruningDepth is how many blocks behind the chain tip a non-snapshot
	// node may be pruned. The trie does not read it: PruneOlderThan takes
	// its depth as an argument.
	PruningDepth uint64 `yaml:"pruning_depth"`
}

// DefaultConfig mirrors qc-02-block-storage's snapshot/pruning defaults,
// adapted from block storage to trie node retention.
func DefaultConfig() Config {
	return Config{
		MaxStorageSlotsPerAccount: 100_000,
		SnapshotInterval:          1000,
		PruningDepth:              256,
	}
}
