// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package finality implements the Casper-style two-phase finality gadget
// (spec.md §4.4): it turns a stream of attestations into justified and
// finalized checkpoints, detects slashable double-vote/surround-vote
// offenses, applies an inactivity leak while not Running, and guards its own
// progress behind a three-state circuit breaker.
package finality

import "errors"

var (
	// ErrSystemHalted is returned by ProcessAttestations while the circuit
	// breaker is in its Halted phase; only ResetFromHalted clears it.
	ErrSystemHalted = errors.New("finality: halted awaiting manual intervention")
	// ErrUnknownValidator describes an attestation naming a validator absent
	// from the target epoch's validator set. ProcessAttestations does not
	// return it: such attestations are dropped and counted under the
	// "unknown_validator" reject reason.
	ErrUnknownValidator = errors.New("finality: unknown validator for target epoch")
	// ErrInvalidSignature describes an attestation whose signature fails
	// zero-trust re-verification. ProcessAttestations does not return it:
	// such attestations are dropped and counted under "invalid_signature".
	ErrInvalidSignature = errors.New("finality: invalid attestation signature")
	// ErrSlashableOffense describes a vote that double-votes or
	// surround-votes a prior one. ProcessAttestations does not return it:
	// the attestation is dropped, counted under "slashable_offense", and a
	// SlashableOffenseDetected event is published.
	ErrSlashableOffense = errors.New("finality: slashable offense, vote rejected")
	// ErrNotHalted is returned by ResetFromHalted when the breaker isn't
	// actually in the Halted phase.
	ErrNotHalted = errors.New("finality: reset_from_halted called while not halted")
)
