// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	busp "github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/internal/kv"
	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/pkg/types"
)

func commitRealBlock(t *testing.T, ctx context.Context, a *Assembler, height uint64, parent types.Hash, tx types.Transaction) types.Hash {
	t.Helper()
	block := types.Block{
		Header:       types.Header{Height: height, ParentHash: parent},
		Transactions: []types.Transaction{tx},
	}
	blockHash := block.Hash()
	require.NoError(t, a.HandleBlockValidated(ctx, busp.BlockValidated{BlockHash: blockHash, Block: block}))
	require.NoError(t, a.HandleMerkleRootComputed(ctx, busp.MerkleRootComputed{BlockHash: blockHash, TxRoot: types.Hash{2}}))
	require.NoError(t, a.HandleStateRootComputed(ctx, busp.StateRootComputed{BlockHash: blockHash, StateRoot: types.Hash{3}}))
	return blockHash
}

func TestRepairIndex_RebuildsHeightAndTxIndicesFromBlocksOnly(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	store := kv.NewMemory()
	b := busp.New(busp.DefaultConfig(), clock, fixedKeys{secret: []byte("s")}, nodelog.NewNoOp(), nil)
	pub := b.NewPublisher(busp.SubsystemBlockStorage)
	a := New(DefaultConfig(), store, clock, FixedDiskSpaceChecker{Ratio: 0.5}, pub, nodelog.NewNoOp(), nil)
	ctx := context.Background()

	tx := types.Transaction{Nonce: 1, Value: 10}
	genesisHash := commitRealBlock(t, ctx, a, 0, types.Hash{}, tx)

	// Simulate index corruption: delete the derived h: and t: entries,
	// keeping only the authoritative b: record.
	require.NoError(t, store.Delete(ctx, kv.HeightKey(0)))
	require.NoError(t, store.Delete(ctx, kv.TxKey(tx.SigningHash())))

	_, err := a.GetBlockByHeight(ctx, 0)
	require.ErrorIs(t, err, ErrBlockNotFound)
	_, err = a.GetBlockByTxHash(ctx, tx.SigningHash())
	require.ErrorIs(t, err, ErrBlockNotFound)

	n, err := a.RepairIndex(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	stored, err := a.GetBlockByHeight(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, genesisHash, stored.Block.Hash())

	stored, err = a.GetBlockByTxHash(ctx, tx.SigningHash())
	require.NoError(t, err)
	require.Equal(t, genesisHash, stored.Block.Hash())
}

func TestRepairIndex_EmptyStoreIsNoop(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	store := kv.NewMemory()
	b := busp.New(busp.DefaultConfig(), clock, fixedKeys{secret: []byte("s")}, nodelog.NewNoOp(), nil)
	pub := b.NewPublisher(busp.SubsystemBlockStorage)
	a := New(DefaultConfig(), store, clock, FixedDiskSpaceChecker{Ratio: 0.5}, pub, nodelog.NewNoOp(), nil)

	n, err := a.RepairIndex(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
