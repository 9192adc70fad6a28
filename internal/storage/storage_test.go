// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	busp "github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/internal/kv"
	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/pkg/types"
)

type fixedKeys struct{ secret []byte }

func (f fixedKeys) SecretFor(uint8) ([]byte, bool) { return f.secret, true }

func newTestAssembler(t *testing.T, clock *ports.ManualClock, disk DiskSpaceChecker) *Assembler {
	t.Helper()
	b := busp.New(busp.DefaultConfig(), clock, fixedKeys{secret: []byte("s")}, nodelog.NewNoOp(), nil)
	pub := b.NewPublisher(busp.SubsystemBlockStorage)
	cfg := DefaultConfig()
	cfg.AssemblyTimeout = 2 * time.Second
	return New(cfg, kv.NewMemory(), clock, disk, pub, nodelog.NewNoOp(), nil)
}

func testBlock(height uint64, hash types.Hash) types.Block {
	return types.Block{Header: types.Header{Height: height, ParentHash: types.Hash{}}}
}

func TestAssemblerCommitsOnThirdComponentAnyOrder(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	a := newTestAssembler(t, clock, FixedDiskSpaceChecker{Ratio: 0.5})

	blockHash := types.Hash{1}
	txRoot := types.Hash{2}
	stateRoot := types.Hash{3}
	ctx := context.Background()

	require.NoError(t, a.HandleMerkleRootComputed(ctx, busp.MerkleRootComputed{BlockHash: blockHash, TxRoot: txRoot}))
	require.NoError(t, a.HandleStateRootComputed(ctx, busp.StateRootComputed{BlockHash: blockHash, StateRoot: stateRoot}))

	_, err := a.GetBlockByHash(ctx, blockHash)
	require.ErrorIs(t, err, ErrBlockNotFound)

	require.NoError(t, a.HandleBlockValidated(ctx, busp.BlockValidated{
		BlockHash: blockHash,
		Block:     testBlock(0, blockHash),
	}))

	stored, err := a.GetBlockByHash(ctx, blockHash)
	require.NoError(t, err)
	require.Equal(t, txRoot, stored.TxRoot)
	require.Equal(t, stateRoot, stored.StateRoot)
}

func TestAssemblerRejectsUnknownParent(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	a := newTestAssembler(t, clock, FixedDiskSpaceChecker{Ratio: 0.5})
	ctx := context.Background()

	blockHash := types.Hash{9}
	require.NoError(t, a.HandleBlockValidated(ctx, busp.BlockValidated{BlockHash: blockHash, Block: testBlock(5, blockHash)}))
	require.NoError(t, a.HandleMerkleRootComputed(ctx, busp.MerkleRootComputed{BlockHash: blockHash, TxRoot: types.Hash{2}}))
	err := a.HandleStateRootComputed(ctx, busp.StateRootComputed{BlockHash: blockHash, StateRoot: types.Hash{3}})
	require.ErrorIs(t, err, ErrUnknownParent)
}

func TestAssemblerIdempotentDuplicateComponent(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	a := newTestAssembler(t, clock, FixedDiskSpaceChecker{Ratio: 0.5})
	ctx := context.Background()
	blockHash := types.Hash{4}

	require.NoError(t, a.HandleMerkleRootComputed(ctx, busp.MerkleRootComputed{BlockHash: blockHash, TxRoot: types.Hash{2}}))
	require.NoError(t, a.HandleMerkleRootComputed(ctx, busp.MerkleRootComputed{BlockHash: blockHash, TxRoot: types.Hash{2}}))
}

func TestAssemblerRejectsConflictingComponent(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	a := newTestAssembler(t, clock, FixedDiskSpaceChecker{Ratio: 0.5})
	ctx := context.Background()
	blockHash := types.Hash{4}

	require.NoError(t, a.HandleMerkleRootComputed(ctx, busp.MerkleRootComputed{BlockHash: blockHash, TxRoot: types.Hash{2}}))
	err := a.HandleMerkleRootComputed(ctx, busp.MerkleRootComputed{BlockHash: blockHash, TxRoot: types.Hash{99}})
	require.ErrorIs(t, err, ErrConflictingWrite)
}

func TestAssemblerEvictsOldestOnOverflow(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	a := newTestAssembler(t, clock, FixedDiskSpaceChecker{Ratio: 0.5})
	a.cfg.MaxPending = 2
	ctx := context.Background()

	first := types.Hash{1}
	require.NoError(t, a.HandleMerkleRootComputed(ctx, busp.MerkleRootComputed{BlockHash: first, TxRoot: types.Hash{1}}))
	clock.Advance(1)
	require.NoError(t, a.HandleMerkleRootComputed(ctx, busp.MerkleRootComputed{BlockHash: types.Hash{2}, TxRoot: types.Hash{2}}))
	clock.Advance(1)
	require.NoError(t, a.HandleMerkleRootComputed(ctx, busp.MerkleRootComputed{BlockHash: types.Hash{3}, TxRoot: types.Hash{3}}))

	a.mu.Lock()
	_, stillPending := a.pending[first]
	count := len(a.pending)
	a.mu.Unlock()
	require.False(t, stillPending)
	require.Equal(t, 2, count)
}

func TestAssemblerSweepsTimedOutEntries(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	a := newTestAssembler(t, clock, FixedDiskSpaceChecker{Ratio: 0.5})
	ctx := context.Background()

	blockHash := types.Hash{7}
	require.NoError(t, a.HandleMerkleRootComputed(ctx, busp.MerkleRootComputed{BlockHash: blockHash, TxRoot: types.Hash{1}}))
	clock.Advance(uint64(a.cfg.AssemblyTimeout.Seconds()) + 1)

	removed := a.SweepTimedOut()
	require.Equal(t, 1, removed)

	a.mu.Lock()
	_, pending := a.pending[blockHash]
	a.mu.Unlock()
	require.False(t, pending)
}

func TestAssemblerFinalityMonotonic(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	a := newTestAssembler(t, clock, FixedDiskSpaceChecker{Ratio: 0.5})
	ctx := context.Background()

	blockHash := types.Hash{1}
	require.NoError(t, a.HandleBlockValidated(ctx, busp.BlockValidated{BlockHash: blockHash, Block: testBlock(0, blockHash)}))
	require.NoError(t, a.HandleMerkleRootComputed(ctx, busp.MerkleRootComputed{BlockHash: blockHash, TxRoot: types.Hash{2}}))
	require.NoError(t, a.HandleStateRootComputed(ctx, busp.StateRootComputed{BlockHash: blockHash, StateRoot: types.Hash{3}}))

	require.NoError(t, a.HandleMarkFinalized(ctx, 0))
	err := a.HandleMarkFinalized(ctx, 0)
	require.ErrorIs(t, err, ErrNotFinalizable)
}

func TestAssemblerDetectsCorruptionOnRead(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	store := kv.NewMemory()
	b := busp.New(busp.DefaultConfig(), clock, fixedKeys{secret: []byte("s")}, nodelog.NewNoOp(), nil)
	pub := b.NewPublisher(busp.SubsystemBlockStorage)
	a := New(DefaultConfig(), store, clock, FixedDiskSpaceChecker{Ratio: 0.5}, pub, nodelog.NewNoOp(), nil)
	ctx := context.Background()

	blockHash := types.Hash{1}
	require.NoError(t, a.HandleBlockValidated(ctx, busp.BlockValidated{BlockHash: blockHash, Block: testBlock(0, blockHash)}))
	require.NoError(t, a.HandleMerkleRootComputed(ctx, busp.MerkleRootComputed{BlockHash: blockHash, TxRoot: types.Hash{2}}))
	require.NoError(t, a.HandleStateRootComputed(ctx, busp.StateRootComputed{BlockHash: blockHash, StateRoot: types.Hash{3}}))

	raw, ok, err := store.Get(ctx, kv.BlockKey(blockHash))
	require.NoError(t, err)
	require.True(t, ok)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	fields["Checksum"] = uint32(fields["Checksum"].(float64)) + 1
	tampered, err := json.Marshal(fields)
	require.NoError(t, err)
	require.NoError(t, store.WriteBatch(ctx, []ports.KeyValuePair{{Key: kv.BlockKey(blockHash), Value: tampered}}, nil))

	_, err = a.GetBlockByHash(ctx, blockHash)
	var corrupt *DataCorruption
	require.ErrorAs(t, err, &corrupt)
}
