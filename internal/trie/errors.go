// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package trie implements the authoritative Address -> AccountState mapping
// as a Merkle-Patricia trie (spec.md §4.7): deterministic application of a
// block's account deltas, a per-block state_root, inclusion proofs, and
// periodic snapshot + pruning of superseded nodes.
package trie

import "errors"

var (
	// ErrInsufficientBalance is returned when a delta would take an
	// account's balance negative.
	ErrInsufficientBalance = errors.New("trie: insufficient balance")
	// ErrInvalidNonce is returned when a transition's nonce is below the
	// account's current nonce (reuse of an already-applied nonce).
	ErrInvalidNonce = errors.New("trie: invalid nonce")
	// ErrNonceGap is returned when a transition's nonce is ahead of the
	// account's current nonce (by one or more).
	ErrNonceGap = errors.New("trie: nonce gap")
	// ErrStorageLimitExceeded is returned when a contract account's storage
	// slot count would exceed the configured cap.
	ErrStorageLimitExceeded = errors.New("trie: storage limit exceeded")
	// ErrUnknownAccount is returned by prove/get for an address with no
	// recorded state.
	ErrUnknownAccount = errors.New("trie: unknown account")
	// ErrStaleApply is returned when apply is called for a height that is
	// not exactly latest_height+1 (spec.md §5: "apply is serialized with
	// respect to the monotonic chain tip").
	ErrStaleApply = errors.New("trie: apply height is not the chain tip successor")
)
