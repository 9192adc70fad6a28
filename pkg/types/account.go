// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

// AccountState is the state trie's authoritative per-address record
// (spec.md §4.7): balance, a strictly-incrementing nonce, the hash of any
// deployed contract code, and a hash commitment over that contract's
// storage slots (a sorted keyed hash chain, not a nested trie).
type AccountState struct {
	Balance     uint64
	Nonce       uint64
	CodeHash    Hash
	StorageRoot Hash
}

// IsEmpty reports whether every field of the account is zero. The trie
// does not use it: an account touched only by zero deltas keeps its
// zero-value leaf.
func (a AccountState) IsEmpty() bool {
	return a.Balance == 0 && a.Nonce == 0 && a.CodeHash.IsZero() && a.StorageRoot.IsZero()
}

// StorageWrite is one contract storage slot write within an AccountDelta.
type StorageWrite struct {
	Slot  Hash
	Value Hash
}

// AccountDelta is one account's contribution to a BlockStateTransition
// (spec.md §4.7's "fold account deltas"): a balance change (signed, so a
// debit is negative), a nonce increment, and optional storage/code changes
// for contract accounts.
type AccountDelta struct {
	Address Address
	// BalanceDelta is signed: a debit (e.g. value + gas sent) is negative.
	BalanceDelta int64
	// BumpNonce marks this delta as the transaction sender's own: when true,
	// ExpectedNonce must equal the account's stored nonce exactly (lower
	// means reuse -> ErrInvalidNonce, higher means a gap -> ErrNonceGap) and
	// the account's nonce becomes ExpectedNonce+1 on success. A recipient or
	// fee-credit delta for the same transaction sets this false: its
	// balance moves without touching or validating that account's nonce.
	BumpNonce     bool
	ExpectedNonce uint64
	CodeHash      *Hash // nil: no code change
	Storage       []StorageWrite
}

// BlockStateTransition is the full set of account deltas a block's
// transactions (and any protocol-level penalties) produce, folded
// atomically by internal/trie.apply (spec.md §4.7).
type BlockStateTransition struct {
	BlockHash Hash
	Height    uint64
	Deltas    []AccountDelta
}
