// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package finality

import "time"

// Config bounds the finality gadget's checkpoint cadence, justification
// threshold and circuit breaker timing (spec.md §4.4).
type Config struct {
	EpochLength                 uint64        `yaml:"epoch_length"` // blocks per epoch / checkpoint interval
	JustificationNumerator      uint64        `yaml:"justification_numerator"`   // default 2
	JustificationDenominator    uint64        `yaml:"justification_denominator"` // default 3 (2/3 supermajority)
	InactivityLeakEpochs        uint64        `yaml:"inactivity_leak_epochs"`    // epochs_without_finality threshold before entering Sync
	MaxSyncAttempts             int           `yaml:"max_sync_attempts"`         // consecutive Sync failures before Halted
	SyncAttemptTimeout          time.Duration `yaml:"sync_attempt_timeout"`      // bound on one Sync attempt
	InactivityLeakRateBps       uint32        `yaml:"inactivity_leak_rate_bps"`  // basis points per epoch charged to inactive validators
	SlashingHistoryPerValidator int           `yaml:"slashing_history_per_validator"` // bounded attestation history kept per validator for conflict detection
}

// DefaultConfig mirrors qc-09-finality's FinalityConfig::default().
func DefaultConfig() Config {
	return Config{
		EpochLength:                 32,
		JustificationNumerator:      2,
		JustificationDenominator:    3,
		InactivityLeakEpochs:        4,
		MaxSyncAttempts:             10,
		SyncAttemptTimeout:          5 * time.Second,
		InactivityLeakRateBps:       100,
		SlashingHistoryPerValidator: 16,
	}
}
