// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

// Config bounds the pool's size and per-block selection (spec.md §4.5).
type Config struct {
	MaxSize       int    `yaml:"max_size"`       // eviction threshold (I-memory-bomb equivalent for the pool)
	MaxBatchCount int    `yaml:"max_batch_count"` // get_for_block's tx count limit
	MaxBatchGas   uint64 `yaml:"max_batch_gas"`
}

// DefaultConfig returns spec.md's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxSize:       50_000,
		MaxBatchCount: 2_000,
		MaxBatchGas:   30_000_000,
	}
}
