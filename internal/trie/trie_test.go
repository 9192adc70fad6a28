// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trie

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/pkg/types"
)

func addr(b byte) types.Address {
	var a types.Address
	a[0] = b
	return a
}

func TestApply_CreditsAndDebitsAccounts(t *testing.T) {
	tr := New(DefaultConfig(), nil, nil, nil)
	alice, bob := addr(1), addr(2)

	err := tr.Apply(context.Background(), types.BlockStateTransition{
		Height: 1,
		Deltas: []types.AccountDelta{
			{Address: alice, BalanceDelta: 1000},
			{Address: bob, BalanceDelta: 0},
		},
	})
	require.NoError(t, err)

	err = tr.Apply(context.Background(), types.BlockStateTransition{
		Height: 2,
		Deltas: []types.AccountDelta{
			{Address: alice, BalanceDelta: -100, BumpNonce: true, ExpectedNonce: 0},
			{Address: bob, BalanceDelta: 100},
		},
	})
	require.NoError(t, err)

	aliceState, err := tr.Get(alice)
	require.NoError(t, err)
	require.Equal(t, uint64(900), aliceState.Balance)
	require.Equal(t, uint64(1), aliceState.Nonce)

	bobState, err := tr.Get(bob)
	require.NoError(t, err)
	require.Equal(t, uint64(100), bobState.Balance)
}

func TestApply_RejectsInsufficientBalance(t *testing.T) {
	tr := New(DefaultConfig(), nil, nil, nil)
	alice := addr(1)

	err := tr.Apply(context.Background(), types.BlockStateTransition{
		Height: 1,
		Deltas: []types.AccountDelta{
			{Address: alice, BalanceDelta: -1, BumpNonce: true, ExpectedNonce: 0},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestApply_RejectsNonceReuseAndGap(t *testing.T) {
	tr := New(DefaultConfig(), nil, nil, nil)
	alice := addr(1)

	require.NoError(t, tr.Apply(context.Background(), types.BlockStateTransition{
		Height: 1,
		Deltas: []types.AccountDelta{{Address: alice, BalanceDelta: 100}},
	}))
	require.NoError(t, tr.Apply(context.Background(), types.BlockStateTransition{
		Height: 2,
		Deltas: []types.AccountDelta{{Address: alice, BumpNonce: true, ExpectedNonce: 0}},
	}))

	err := tr.Apply(context.Background(), types.BlockStateTransition{
		Height: 3,
		Deltas: []types.AccountDelta{{Address: alice, BumpNonce: true, ExpectedNonce: 0}},
	})
	require.ErrorIs(t, err, ErrInvalidNonce)

	err = tr.Apply(context.Background(), types.BlockStateTransition{
		Height: 3,
		Deltas: []types.AccountDelta{{Address: alice, BumpNonce: true, ExpectedNonce: 5}},
	})
	require.ErrorIs(t, err, ErrNonceGap)
}

func TestApply_RejectsStaleHeight(t *testing.T) {
	tr := New(DefaultConfig(), nil, nil, nil)
	err := tr.Apply(context.Background(), types.BlockStateTransition{Height: 2})
	require.ErrorIs(t, err, ErrStaleApply)
}

func TestApply_RejectsStorageLimitExceeded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxStorageSlotsPerAccount = 1
	tr := New(cfg, nil, nil, nil)
	contract := addr(9)

	err := tr.Apply(context.Background(), types.BlockStateTransition{
		Height: 1,
		Deltas: []types.AccountDelta{{
			Address: contract,
			Storage: []types.StorageWrite{
				{Slot: types.Hash{1}, Value: types.Hash{1}},
				{Slot: types.Hash{2}, Value: types.Hash{2}},
			},
		}},
	})
	require.ErrorIs(t, err, ErrStorageLimitExceeded)
}

func TestRootHash_DeterministicAcrossInsertionOrder(t *testing.T) {
	trA := New(DefaultConfig(), nil, nil, nil)
	trB := New(DefaultConfig(), nil, nil, nil)

	require.NoError(t, trA.Apply(context.Background(), types.BlockStateTransition{
		Height: 1,
		Deltas: []types.AccountDelta{
			{Address: addr(1), BalanceDelta: 10},
			{Address: addr(2), BalanceDelta: 20},
		},
	}))
	require.NoError(t, trB.Apply(context.Background(), types.BlockStateTransition{
		Height: 1,
		Deltas: []types.AccountDelta{
			{Address: addr(2), BalanceDelta: 20},
			{Address: addr(1), BalanceDelta: 10},
		},
	}))

	require.Equal(t, trA.RootHash(), trB.RootHash())
	require.False(t, trA.RootHash().IsZero())
}

func TestProve_RoundTripsAgainstRoot(t *testing.T) {
	tr := New(DefaultConfig(), nil, nil, nil)
	accounts := []types.Address{addr(1), addr(2), addr(3), addr(4)}
	deltas := make([]types.AccountDelta, 0, len(accounts))
	for i, a := range accounts {
		deltas = append(deltas, types.AccountDelta{Address: a, BalanceDelta: int64(i + 1)})
	}
	require.NoError(t, tr.Apply(context.Background(), types.BlockStateTransition{Height: 1, Deltas: deltas}))

	for _, a := range accounts {
		proof, state, err := tr.Prove(a)
		require.NoError(t, err)
		require.True(t, VerifyProof(proof, tr.RootHash()))
		got, err := tr.Get(a)
		require.NoError(t, err)
		require.Equal(t, got, state)
	}

	// Tampering with a sibling branch's children must break verification.
	proof, _, err := tr.Prove(accounts[0])
	require.NoError(t, err)
	for i := range proof.Steps {
		if proof.Steps[i].Kind == nodeBranch {
			proof.Steps[i].Children[(proof.Steps[i].Index+1)%16][0] ^= 0xFF
			break
		}
	}
	require.False(t, VerifyProof(proof, tr.RootHash()))
}

func TestProve_UnknownAccount(t *testing.T) {
	tr := New(DefaultConfig(), nil, nil, nil)
	_, _, err := tr.Prove(addr(1))
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestApplyPenalty_DebitsWithoutAdvancingHeight(t *testing.T) {
	tr := New(DefaultConfig(), nil, nil, nil)
	validatorAddr := validatorAddress(types.NodeID{7})

	require.NoError(t, tr.Apply(context.Background(), types.BlockStateTransition{
		Height: 1,
		Deltas: []types.AccountDelta{{Address: validatorAddr, BalanceDelta: 10_000}},
	}))
	heightBefore := tr.Height()

	require.NoError(t, tr.ApplyPenalty(context.Background(), []types.AccountDelta{
		{Address: validatorAddr, BalanceDelta: -1000},
	}))

	require.Equal(t, heightBefore, tr.Height())
	acc, err := tr.Get(validatorAddr)
	require.NoError(t, err)
	require.Equal(t, uint64(9000), acc.Balance)

	// The next real block applies at heightBefore+1, unaffected by the
	// penalty's in-place fold.
	require.NoError(t, tr.Apply(context.Background(), types.BlockStateTransition{
		Height: heightBefore + 1,
		Deltas: []types.AccountDelta{{Address: addr(99), BalanceDelta: 1}},
	}))
}

func TestHandleValidatorInactivityPenalty_AppliesBps(t *testing.T) {
	tr := New(DefaultConfig(), nil, nil, nil)
	validator := types.NodeID{3}
	validatorAddr := validatorAddress(validator)

	require.NoError(t, tr.Apply(context.Background(), types.BlockStateTransition{
		Height: 1,
		Deltas: []types.AccountDelta{{Address: validatorAddr, BalanceDelta: 10_000}},
	}))

	require.NoError(t, tr.HandleValidatorInactivityPenalty(context.Background(), bus.ValidatorInactivityPenalty{
		Validator: validator,
		RateBps:   100,
	}))

	acc, err := tr.Get(validatorAddr)
	require.NoError(t, err)
	require.Equal(t, uint64(9900), acc.Balance) // 100 bps == 1%
}

func TestPruneOlderThan_DropsOldSnapshotsOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SnapshotInterval = 1
	tr := New(cfg, nil, nil, nil)

	for h := uint64(1); h <= 5; h++ {
		require.NoError(t, tr.Apply(context.Background(), types.BlockStateTransition{
			Height: h,
			Deltas: []types.AccountDelta{{Address: addr(byte(h)), BalanceDelta: 1}},
		}))
	}

	pruned := tr.PruneOlderThan(2)
	require.Greater(t, pruned, 0)

	_, ok := tr.SnapshotAt(5)
	require.True(t, ok)
	_, ok = tr.SnapshotAt(1)
	require.False(t, ok)
}
