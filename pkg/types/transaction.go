// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

// Transaction is a client-submitted, not-yet-verified transfer. Signature
// verification (internal/sigverify) turns a Transaction into a
// VerifiedTransaction before it may enter the mempool.
type Transaction struct {
	Sender    Address
	Recipient *Address // nil for contract-creation style transactions
	Value     uint64
	Nonce     uint64
	GasPrice  uint64
	GasLimit  uint64
	Data      []byte
	Signature Signature
}

// Signature is a raw ECDSA secp256k1 signature: (r, s, v). It carries no
// recovered address; VerifiedTransaction.Signer holds that after
// verification.
type Signature struct {
	R [32]byte
	S [32]byte
	V byte
}

// SigningHash returns the canonical transaction hash (sender, nonce, value,
// recipient, gas, data — excludes the signature itself, which is what gets
// signed).
func (tx *Transaction) SigningHash() Hash {
	return keccak256(
		tx.Sender[:],
		recipientBytes(tx.Recipient),
		uint64Bytes(tx.Value),
		uint64Bytes(tx.Nonce),
		uint64Bytes(tx.GasPrice),
		uint64Bytes(tx.GasLimit),
		tx.Data,
	)
}

func recipientBytes(a *Address) []byte {
	if a == nil {
		return nil
	}
	return a[:]
}

// VerifiedTransaction is a Transaction whose signature has been re-verified
// by internal/sigverify. Only VerifiedTransaction may be admitted to the
// mempool (spec.md I-nonce-unique and the mempool's zero-trust contract both
// depend on this boundary).
type VerifiedTransaction struct {
	Transaction
	TxHash Hash
	Signer Address
}
