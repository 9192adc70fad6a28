// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import "time"

// NumBuckets is the number of k-buckets: one per bit of a 32-byte NodeID
// (spec.md §4.6's "256 buckets indexed by XOR distance").
const NumBuckets = 256

// Config bounds the routing table's admission, diversity and ban policy.
type Config struct {
	BucketSize                  int           `yaml:"bucket_size"` // k: max verified peers per bucket
	MaxPendingPeers              int           `yaml:"max_pending_peers"` // I-memory-bomb cap on pending_verification
	VerificationTimeout          time.Duration `yaml:"verification_timeout"`
	ChallengeTimeout             time.Duration `yaml:"challenge_timeout"`
	MaxPerSubnetPerBucket        int           `yaml:"max_per_subnet_per_bucket"` // I-ipd: /24 cap within one bucket
	MaxPerSubnetTotal            int           `yaml:"max_per_subnet_total"`      // I-ipd: /16 cap across all buckets
	DefaultBanDuration           time.Duration `yaml:"default_ban_duration"`
	GCInterval                   time.Duration `yaml:"gc_interval"`
	MaxBehindBlocksForHandshake  uint64        `yaml:"max_behind_blocks_for_handshake"`
}

// DefaultConfig mirrors qc-01-peer-discovery's documented defaults.
func DefaultConfig() Config {
	return Config{
		BucketSize:                  20,
		MaxPendingPeers:             1000,
		VerificationTimeout:         10 * time.Second,
		ChallengeTimeout:            5 * time.Second,
		MaxPerSubnetPerBucket:       2,
		MaxPerSubnetTotal:           10,
		DefaultBanDuration:          24 * time.Hour,
		GCInterval:                  1 * time.Second,
		MaxBehindBlocksForHandshake: 1000,
	}
}
