// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import "time"

// Config bounds consensus's structural and timing checks (spec.md §4.3
// steps 1-2).
type Config struct {
	MaxExtraDataBytes int           `yaml:"max_extra_data_bytes"`
	MaxTxsPerBlock    int           `yaml:"max_txs_per_block"`
	MaxBlockGas       uint64        `yaml:"max_block_gas"`
	ClockSkew         time.Duration `yaml:"clock_skew"`
	EpochLength       uint64        `yaml:"epoch_length"` // blocks per epoch, for proof-staleness and validator rotation
}

// DefaultConfig returns workable defaults for a small test network.
func DefaultConfig() Config {
	return Config{
		MaxExtraDataBytes: 32,
		MaxTxsPerBlock:    5000,
		MaxBlockGas:       30_000_000,
		ClockSkew:         5 * time.Second,
		EpochLength:       32,
	}
}
