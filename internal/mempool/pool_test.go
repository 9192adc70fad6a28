// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/pkg/types"
)

func newTestPool(t *testing.T, cfg Config) *Pool {
	t.Helper()
	return New(cfg, ports.NewManualClock(1_000), nodelog.NewNoOp(), nil)
}

func sender(b byte) types.Address {
	var a types.Address
	a[0] = b
	return a
}

func verifiedTx(from byte, nonce uint64, gasPrice uint64) types.VerifiedTransaction {
	tx := types.Transaction{Sender: sender(from), Nonce: nonce, GasPrice: gasPrice, GasLimit: 21_000}
	return types.VerifiedTransaction{Transaction: tx, TxHash: tx.SigningHash(), Signer: tx.Sender}
}

func TestAdmit_RejectsDuplicate(t *testing.T) {
	p := newTestPool(t, DefaultConfig())
	tx := verifiedTx(1, 0, 100)
	require.NoError(t, p.Admit(tx))
	require.ErrorIs(t, p.Admit(tx), ErrDuplicateTransaction)
	require.Equal(t, 1, p.Size())
}

func TestAdmit_EvictsLowestPriorityWhenFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSize = 2
	p := newTestPool(t, cfg)

	require.NoError(t, p.Admit(verifiedTx(1, 0, 10)))
	require.NoError(t, p.Admit(verifiedTx(2, 0, 20)))

	// Higher-priced tx evicts the lowest-priced one.
	high := verifiedTx(3, 0, 30)
	require.NoError(t, p.Admit(high))
	require.Equal(t, 2, p.Size())
	require.True(t, p.Contains(high.TxHash))
	require.False(t, p.Contains(verifiedTx(1, 0, 10).TxHash))
}

func TestAdmit_RejectsWhenFullAndNotOutbidding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSize = 1
	p := newTestPool(t, cfg)

	require.NoError(t, p.Admit(verifiedTx(1, 0, 100)))
	err := p.Admit(verifiedTx(2, 0, 50))
	require.ErrorIs(t, err, ErrMempoolFull)
	require.Equal(t, 1, p.Size())
}

func TestGetForBlock_OrdersByGasPriceDesc(t *testing.T) {
	p := newTestPool(t, DefaultConfig())
	require.NoError(t, p.Admit(verifiedTx(1, 0, 10)))
	require.NoError(t, p.Admit(verifiedTx(2, 0, 50)))
	require.NoError(t, p.Admit(verifiedTx(3, 0, 30)))

	batch := p.GetForBlock(10, 1_000_000)
	require.Len(t, batch, 3)
	require.Equal(t, uint64(50), batch[0].GasPrice)
	require.Equal(t, uint64(30), batch[1].GasPrice)
	require.Equal(t, uint64(10), batch[2].GasPrice)
}

func TestGetForBlock_SkipsNonceGap(t *testing.T) {
	p := newTestPool(t, DefaultConfig())
	// sender 1's nonce-1 tx has the highest gas price, but sender 1's
	// nonce-0 tx is still Pending when it is reached, so nonce 1 is skipped.
	require.NoError(t, p.Admit(verifiedTx(1, 1, 100)))
	require.NoError(t, p.Admit(verifiedTx(2, 0, 10)))
	require.NoError(t, p.Admit(verifiedTx(1, 0, 5)))

	batch := p.GetForBlock(10, 1_000_000)
	require.Len(t, batch, 2)
	require.Equal(t, sender(2), batch[0].Sender)
	require.Equal(t, sender(1), batch[1].Sender)
	require.Equal(t, uint64(0), batch[1].Nonce)
}

func TestGetForBlock_RespectsGasBudget(t *testing.T) {
	p := newTestPool(t, DefaultConfig())
	require.NoError(t, p.Admit(verifiedTx(1, 0, 10)))
	require.NoError(t, p.Admit(verifiedTx(2, 0, 20)))

	batch := p.GetForBlock(10, 21_000)
	require.Len(t, batch, 1)
	require.Equal(t, uint64(20), batch[0].GasPrice)
}

func TestProposeConfirmRollback(t *testing.T) {
	p := newTestPool(t, DefaultConfig())
	tx := verifiedTx(1, 0, 10)
	require.NoError(t, p.Admit(tx))

	blockHash := types.Hash{9}
	p.Propose([]types.Hash{tx.TxHash}, blockHash, 5)
	require.True(t, p.Contains(tx.TxHash))
	require.Empty(t, p.GetForBlock(10, 1_000_000)) // Proposed entries aren't selectable again

	p.Rollback(blockHash)
	require.True(t, p.Contains(tx.TxHash))
	require.Len(t, p.GetForBlock(10, 1_000_000), 1) // back to Pending

	p.Propose([]types.Hash{tx.TxHash}, blockHash, 5)
	p.Confirm(blockHash)
	require.False(t, p.Contains(tx.TxHash))
	require.Equal(t, 0, p.Size())
}
