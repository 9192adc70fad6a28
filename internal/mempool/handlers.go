// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

import (
	"github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/pkg/types"
)

// HandleTransactionVerified admits a signature-verified transaction
// (spec.md §4.9's "Mempool subscribes and admits"). Admission failures are
// logged, not propagated: a rejected transaction is simply absent from the
// pool, matching the bus's envelope-failure "silent drop" policy.
func (p *Pool) HandleTransactionVerified(ev bus.TransactionVerified) error {
	if err := p.Admit(ev.Tx); err != nil {
		if p.log != nil {
			p.log.Debug("mempool: admission rejected", "tx_hash", ev.Tx.TxHash, "error", err.Error())
		}
	}
	return nil
}

// HandleBlockValidated marks every transaction in the newly validated
// candidate Proposed at its height (spec.md §4.5's `propose`), keyed so a
// later BlockStored/AssemblyTimeout/AssemblyEvicted for the same block_hash
// can Confirm or Rollback the same set.
func (p *Pool) HandleBlockValidated(ev bus.BlockValidated) error {
	hashes := make([]types.Hash, 0, len(ev.Block.Transactions))
	for i := range ev.Block.Transactions {
		hashes = append(hashes, ev.Block.Transactions[i].SigningHash())
	}
	p.Propose(hashes, ev.BlockHash, ev.Block.Header.Height)
	return nil
}

// HandleBlockStored confirms (removes) every transaction proposed into
// blockHash: it was durably stored (spec.md §4.5's `confirm`).
func (p *Pool) HandleBlockStored(ev bus.BlockStored) error {
	p.Confirm(ev.BlockHash)
	return nil
}

// HandleAssemblyTimeout rolls every transaction proposed into blockHash back
// to Pending: the assembly timed out before all three components joined
// (spec.md §4.5's `rollback`, testable property 6).
func (p *Pool) HandleAssemblyTimeout(ev bus.AssemblyTimeout) error {
	p.Rollback(ev.BlockHash)
	return nil
}

// HandleAssemblyEvicted rolls every transaction proposed into blockHash back
// to Pending: the pending-assembly buffer evicted it before it could be
// stored.
func (p *Pool) HandleAssemblyEvicted(ev bus.AssemblyEvicted) error {
	p.Rollback(ev.BlockHash)
	return nil
}
