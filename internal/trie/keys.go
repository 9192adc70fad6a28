// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trie

import "github.com/luxfi/nodekernel/pkg/types"

// accountKey derives the trie's 32-byte account key from a 20-byte address
// (spec.md §4.7: "Account key = 32-byte keyed hash of the 20-byte
// address"), so bucket/path placement isn't directly predictable from the
// raw address.
func accountKey(addr types.Address) types.Hash {
	return types.KeyedSha3_256([]byte("trie-account-key"), addr[:])
}

// validatorAddress maps a validator's NodeID onto the account address the
// trie charges for an inactivity leak (spec.md §4.4's penalty is announced
// against a NodeID; the trie is the stake ledger, keyed by Address).
func validatorAddress(id types.NodeID) types.Address {
	h := types.KeyedSha3_256([]byte("trie-validator-address"), id[:])
	var addr types.Address
	copy(addr[:], h[len(h)-types.AddressSize:])
	return addr
}
