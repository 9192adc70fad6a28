// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trie

import (
	"context"

	"github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/pkg/types"
)

// HandleBlockValidated derives the block's account deltas and folds them
// into the trie (spec.md §4.7's "apply(BlockStateTransition)").
func (t *StateTrie) HandleBlockValidated(ctx context.Context, ev bus.BlockValidated) error {
	transition := types.BlockStateTransition{
		BlockHash: ev.BlockHash,
		Height:    ev.Block.Header.Height,
		Deltas:    deltasForBlock(ev.Block),
	}
	return t.Apply(ctx, transition)
}

// HandleValidatorInactivityPenalty applies the inactivity leak Finality
// announced, debiting the validator's stake balance by RateBps basis points
// (spec.md §4.4: "the State Trie is the authoritative stake ledger and
// applies the cut"). It is folded as its own single-delta transition rather
// than waiting for the next block, since the penalty is independent of any
// block's transactions.
func (t *StateTrie) HandleValidatorInactivityPenalty(ctx context.Context, ev bus.ValidatorInactivityPenalty) error {
	addr := validatorAddress(ev.Validator)

	t.mu.RLock()
	acc, known := t.cur.accounts[addr]
	t.mu.RUnlock()
	if !known || acc.Balance == 0 {
		return nil
	}

	cut := acc.Balance * uint64(ev.RateBps) / 10_000
	if cut == 0 {
		return nil
	}

	return t.ApplyPenalty(ctx, []types.AccountDelta{{
		Address:      addr,
		BalanceDelta: -int64(cut),
	}})
}
