// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sigverify is the node kernel's edge authentication boundary
// (spec.md §4.9). Every externally-sourced signature — transaction
// signatures, proposer/attestation/vote signatures, peer identity claims —
// is re-verified here from raw key material before it is trusted anywhere
// else in the system; no other subsystem trusts a boolean carried on the
// wire.
package sigverify

import "errors"

var (
	// ErrZeroComponent is returned when an ECDSA signature's r or s is zero.
	ErrZeroComponent = errors.New("sigverify: signature r or s is zero")
	// ErrHighS is returned for a malleable (high-s) ECDSA signature, per
	// spec.md's EIP-2 style low-s requirement.
	ErrHighS = errors.New("sigverify: signature s exceeds curve order / 2 (malleable)")
	// ErrInvalidRecoveryID is returned when v is not in {0,1,27,28}.
	ErrInvalidRecoveryID = errors.New("sigverify: recovery id v not in {0,1,27,28}")
	// ErrRecoveryFailed is returned when public key recovery itself fails
	// (invalid curve point, bad hash length, etc).
	ErrRecoveryFailed = errors.New("sigverify: public key recovery failed")
	// ErrMalformedPublicKey is returned when a BLS public key cannot be
	// deserialized.
	ErrMalformedPublicKey = errors.New("sigverify: malformed BLS public key")
	// ErrMalformedSignature is returned when a BLS signature cannot be
	// deserialized.
	ErrMalformedSignature = errors.New("sigverify: malformed BLS signature")
	// ErrAggregateLengthMismatch is returned when an aggregate verification
	// call receives mismatched pubkey/message slice lengths.
	ErrAggregateLengthMismatch = errors.New("sigverify: pubkeys and messages length mismatch")
	// ErrEmptyAggregate is returned when an aggregate verification call is
	// given zero signatures to aggregate.
	ErrEmptyAggregate = errors.New("sigverify: aggregate verification requires at least one signature")
	// ErrSignatureMismatch is returned when a recovered signer does not
	// match the sender a transaction claims.
	ErrSignatureMismatch = errors.New("sigverify: recovered signer does not match claimed sender")
)
