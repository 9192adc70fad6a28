// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package txindex implements the per-block transaction Merkle tree
// (spec.md §4.8): leaves are transaction hashes in block order, padded to a
// power of two with SENTINEL_HASH, folded pairwise into a keyed-hash root.
// It publishes MerkleRootComputed for the assembler to join against
// BlockValidated and StateRootComputed, and serves O(log n) inclusion
// proofs from an LRU cache of recently built trees.
package txindex

import "errors"

var (
	// ErrBlockNotIndexed is returned by Prove when the block_hash has no
	// entry in the recent-tree cache nor a known transaction set to rebuild
	// from.
	ErrBlockNotIndexed = errors.New("txindex: block not indexed")
	// ErrTransactionNotInBlock is returned by Prove when the requested
	// transaction hash is not one of the block's leaves.
	ErrTransactionNotInBlock = errors.New("txindex: transaction not in block")
)
