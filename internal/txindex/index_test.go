// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/pkg/types"
)

type fixedKeys struct{ secret []byte }

func (f fixedKeys) SecretFor(senderID uint8) ([]byte, bool) { return f.secret, true }

func txWithNonce(n uint64) types.Transaction {
	return types.Transaction{Sender: types.Address{1}, Nonce: n, Value: uint64(n)}
}

func TestIndexBlock_EmptyBlockIsSentinel(t *testing.T) {
	idx := New(DefaultConfig(), nil, nil, nil)
	root := idx.IndexBlock(types.Hash{1}, nil)
	require.Equal(t, sentinelHash, root)
}

func TestIndexBlock_DeterministicAcrossCalls(t *testing.T) {
	idxA := New(DefaultConfig(), nil, nil, nil)
	idxB := New(DefaultConfig(), nil, nil, nil)
	txs := []types.Transaction{txWithNonce(1), txWithNonce(2), txWithNonce(3)}

	rootA := idxA.IndexBlock(types.Hash{1}, txs)
	rootB := idxB.IndexBlock(types.Hash{1}, txs)
	require.Equal(t, rootA, rootB)
	require.NotEqual(t, sentinelHash, rootA)
}

func TestIndexBlock_PadsOddCountWithSentinel(t *testing.T) {
	idx := New(DefaultConfig(), nil, nil, nil)
	txs := []types.Transaction{txWithNonce(1), txWithNonce(2), txWithNonce(3)}
	idx.IndexBlock(types.Hash{1}, txs)

	tree, err := idx.treeFor(types.Hash{1})
	require.NoError(t, err)
	require.Len(t, tree.levels[0], 4) // padded 3 -> 4
	require.Equal(t, sentinelHash, tree.levels[0][3])
}

func TestProve_RoundTripsForEveryTransaction(t *testing.T) {
	idx := New(DefaultConfig(), nil, nil, nil)
	txs := []types.Transaction{txWithNonce(1), txWithNonce(2), txWithNonce(3), txWithNonce(4), txWithNonce(5)}
	blockHash := types.Hash{9}
	root := idx.IndexBlock(blockHash, txs)

	for _, tx := range txs {
		proof, err := idx.Prove(blockHash, tx.SigningHash())
		require.NoError(t, err)
		require.True(t, VerifyProof(proof, root))
	}
}

func TestProve_UnknownTransaction(t *testing.T) {
	idx := New(DefaultConfig(), nil, nil, nil)
	txs := []types.Transaction{txWithNonce(1), txWithNonce(2)}
	blockHash := types.Hash{9}
	idx.IndexBlock(blockHash, txs)

	_, err := idx.Prove(blockHash, types.Hash{0xFF})
	require.ErrorIs(t, err, ErrTransactionNotInBlock)
}

func TestProve_UnindexedBlock(t *testing.T) {
	idx := New(DefaultConfig(), nil, nil, nil)
	_, err := idx.Prove(types.Hash{0xAB}, types.Hash{1})
	require.ErrorIs(t, err, ErrBlockNotIndexed)
}

func TestVerifyProof_RejectsMutatedSibling(t *testing.T) {
	idx := New(DefaultConfig(), nil, nil, nil)
	txs := []types.Transaction{txWithNonce(1), txWithNonce(2), txWithNonce(3), txWithNonce(4)}
	blockHash := types.Hash{9}
	root := idx.IndexBlock(blockHash, txs)

	proof, err := idx.Prove(blockHash, txs[0].SigningHash())
	require.NoError(t, err)
	require.NotEmpty(t, proof.Steps)
	proof.Steps[0].Sibling[0] ^= 0xFF
	require.False(t, VerifyProof(proof, root))
}

func TestTreeFor_RebuildsAfterCacheEviction(t *testing.T) {
	cfg := Config{MaxCachedTrees: 1}
	idx := New(cfg, nil, nil, nil)

	txsA := []types.Transaction{txWithNonce(1)}
	txsB := []types.Transaction{txWithNonce(2)}
	rootA := idx.IndexBlock(types.Hash{1}, txsA)
	idx.IndexBlock(types.Hash{2}, txsB) // evicts block 1's cached tree (size 1)

	proof, err := idx.Prove(types.Hash{1}, txsA[0].SigningHash())
	require.NoError(t, err)
	require.True(t, VerifyProof(proof, rootA))
}

func TestHandleBlockValidated_PublishesMerkleRootComputed(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	b := bus.New(bus.DefaultConfig(), clock, fixedKeys{secret: []byte("shared-secret")}, nodelog.NewNoOp(), nil)
	pub := b.NewPublisher(bus.SubsystemTransactionIndex)

	idx := New(DefaultConfig(), pub, nil, nil)
	block := types.Block{Transactions: []types.Transaction{txWithNonce(1)}}

	err := idx.HandleBlockValidated(context.Background(), bus.BlockValidated{
		BlockHash: types.Hash{7},
		Block:     block,
	})
	require.NoError(t, err)
}
