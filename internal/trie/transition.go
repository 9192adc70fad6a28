// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trie

import (
	"encoding/binary"

	"github.com/luxfi/nodekernel/pkg/types"
)

// deltasForBlock turns a validated block's transactions into the account
// deltas Apply folds (spec.md §4.7's "fold account deltas"). Each
// transaction debits its sender for value + (gas_price * gas_limit),
// credits its recipient (if any) for value, and credits the block's
// proposer for the fee. A nil Recipient is a contract-creation transaction:
// the created account's address is derived from the sender and nonce
// (contractCreationAddress), and its CodeHash is set from the transaction
// payload.
func deltasForBlock(block types.Block) []types.AccountDelta {
	deltas := make([]types.AccountDelta, 0, len(block.Transactions)*2+1)
	var feeTotal uint64

	for _, tx := range block.Transactions {
		fee := tx.GasPrice * tx.GasLimit
		feeTotal += fee

		deltas = append(deltas, types.AccountDelta{
			Address:       tx.Sender,
			BalanceDelta:  -(int64(tx.Value) + int64(fee)),
			BumpNonce:     true,
			ExpectedNonce: tx.Nonce,
		})

		if tx.Recipient != nil {
			deltas = append(deltas, types.AccountDelta{
				Address:      *tx.Recipient,
				BalanceDelta: int64(tx.Value),
			})
		} else {
			created := contractCreationAddress(tx)
			codeHash := types.Keccak256(tx.Data)
			deltas = append(deltas, types.AccountDelta{
				Address:      created,
				BalanceDelta: int64(tx.Value),
				CodeHash:     &codeHash,
			})
		}
	}

	if feeTotal > 0 && !block.Header.Proposer.IsZero() {
		deltas = append(deltas, types.AccountDelta{
			Address:      validatorAddress(block.Header.Proposer),
			BalanceDelta: int64(feeTotal),
		})
	}

	return deltas
}

// contractCreationAddress derives a deterministic address for a
// contract-creation transaction (nil Recipient) from the sender and nonce,
// matching the Ethereum-style "new contract address" derivation the rest of
// pkg/types already uses for keccak-based identifiers.
func contractCreationAddress(tx types.Transaction) types.Address {
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], tx.Nonce)
	h := types.Keccak256(tx.Sender[:], nonceBytes[:])
	var addr types.Address
	copy(addr[:], h[len(h)-types.AddressSize:])
	return addr
}
