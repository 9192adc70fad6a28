// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

import (
	"container/heap"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/nodekernel/internal/metrics"
	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/pkg/types"
)

// Pool is the mempool: a primary by-hash map, a priority index over Pending
// entries, and a per-sender nonce index (spec.md §4.5's "Data").
type Pool struct {
	cfg   Config
	clock ports.TimeSource
	log   nodelog.Logger

	mu       sync.Mutex
	pending  map[types.Hash]PendingEntry
	proposed map[types.Hash]ProposedEntry
	heap     priorityHeap
	nonces   map[types.Address]map[uint64]types.Hash // sender -> nonce -> tx hash, Pending and Proposed; removed on Confirm or eviction
	nextSeq  uint64

	// blockTxs tracks which tx hashes were proposed into a given block hash,
	// since spec.md's propose/confirm/rollback operate on hash sets but the
	// bus only tells this subsystem a block_hash (BlockStored/AssemblyTimeout/
	// AssemblyEvicted); this map lets Run translate one into the other.
	blockTxs map[types.Hash][]types.Hash

	admittedTotal prometheus.Counter
	rejectedTotal *prometheus.CounterVec
	evictedTotal  prometheus.Counter
	sizeGauge     prometheus.Gauge
}

// New constructs an empty Pool. reg may be nil for tests.
func New(cfg Config, clock ports.TimeSource, log nodelog.Logger, reg *metrics.Registry) *Pool {
	p := &Pool{
		cfg:      cfg,
		clock:    clock,
		log:      log,
		pending:  make(map[types.Hash]PendingEntry),
		proposed: make(map[types.Hash]ProposedEntry),
		nonces:   make(map[types.Address]map[uint64]types.Hash),
		blockTxs: make(map[types.Hash][]types.Hash),
	}
	if reg != nil {
		p.admittedTotal = reg.Counter("mempool", "admitted_total", "transactions admitted")
		p.rejectedTotal = reg.CounterVec("mempool", "rejected_total", "transactions rejected by reason", []string{"reason"})
		p.evictedTotal = reg.Counter("mempool", "evicted_total", "transactions evicted for low fee")
		p.sizeGauge = reg.Gauge("mempool", "size", "current entry count (pending + proposed)")
	}
	return p
}

func (p *Pool) reject(reason string) {
	if p.rejectedTotal != nil {
		p.rejectedTotal.WithLabelValues(reason).Inc()
	}
}

func (p *Pool) size() int { return len(p.pending) + len(p.proposed) }

func (p *Pool) updateSizeGauge() {
	if p.sizeGauge != nil {
		p.sizeGauge.Set(float64(p.size()))
	}
}

// Admit inserts a newly verified transaction as Pending. It rejects exact
// duplicates and evicts the lowest-priority Pending entry when the pool is
// full and tx outbids it (fee-based eviction, anti-dust).
func (p *Pool) Admit(tx types.VerifiedTransaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.pending[tx.TxHash]; ok {
		p.reject("duplicate")
		return ErrDuplicateTransaction
	}
	if _, ok := p.proposed[tx.TxHash]; ok {
		p.reject("duplicate")
		return ErrDuplicateTransaction
	}

	if p.size() >= p.cfg.MaxSize {
		if p.heap.Len() == 0 {
			// every slot is held by in-flight Proposed entries; nothing
			// evictable, so the pool is hard-full.
			p.reject("full")
			return ErrMempoolFull
		}
		lowest := p.heap.lowest()
		if tx.GasPrice <= lowest.Tx.GasPrice {
			p.reject("full")
			return ErrMempoolFull
		}
		p.evictLocked(lowest.Tx.TxHash)
		if p.evictedTotal != nil {
			p.evictedTotal.Inc()
		}
	}

	entry := PendingEntry{Tx: tx, InsertedAt: p.clockNow(), sequence: p.nextSeq}
	p.nextSeq++
	p.pending[tx.TxHash] = entry
	heap.Push(&p.heap, entry)

	senderNonces, ok := p.nonces[tx.Sender]
	if !ok {
		senderNonces = make(map[uint64]types.Hash)
		p.nonces[tx.Sender] = senderNonces
	}
	senderNonces[tx.Nonce] = tx.TxHash

	if p.admittedTotal != nil {
		p.admittedTotal.Inc()
	}
	p.updateSizeGauge()
	return nil
}

func (p *Pool) clockNow() time.Time {
	return time.Unix(int64(p.clock.NowUnix()), 0)
}

// evictLocked removes a Pending entry from every index. Caller holds p.mu.
func (p *Pool) evictLocked(hash types.Hash) {
	entry, ok := p.pending[hash]
	if !ok {
		return
	}
	delete(p.pending, hash)
	if senderNonces, ok := p.nonces[entry.Tx.Sender]; ok {
		delete(senderNonces, entry.Tx.Nonce)
		if len(senderNonces) == 0 {
			delete(p.nonces, entry.Tx.Sender)
		}
	}
	for i, e := range p.heap {
		if e.Tx.TxHash == hash {
			heap.Remove(&p.heap, i)
			break
		}
	}
}

// GetForBlock returns up to maxCount Pending transactions, in priority
// order, whose combined GasLimit does not exceed gasBudget, skipping any
// sender's transaction until that sender's lower-nonce entries have already
// been selected (spec.md §4.5's "skipping ... whose sender has a lower-nonce
// entry still Pending"). It does not itself mark anything Proposed — callers
// that actually build a block with the result must follow up with Propose.
func (p *Pool) GetForBlock(maxCount int, gasBudget uint64) []types.VerifiedTransaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	selectedNonce := make(map[types.Address]uint64) // highest nonce selected so far, sender present once it has one
	hasSelection := make(map[types.Address]bool)

	var out []types.VerifiedTransaction
	var gasUsed uint64
	for _, entry := range p.heap.sorted() {
		if len(out) >= maxCount {
			break
		}
		tx := entry.Tx
		if gasUsed+tx.GasLimit > gasBudget {
			continue
		}
		if hasSelection[tx.Sender] && tx.Nonce != selectedNonce[tx.Sender]+1 {
			continue // gap: this sender's next expected nonce hasn't been reached
		}
		if !hasSelection[tx.Sender] && p.lowestPendingNonceLocked(tx.Sender) != tx.Nonce {
			continue // a lower-nonce entry for this sender is still Pending
		}
		out = append(out, tx)
		gasUsed += tx.GasLimit
		selectedNonce[tx.Sender] = tx.Nonce
		hasSelection[tx.Sender] = true
	}
	return out
}

func (p *Pool) lowestPendingNonceLocked(sender types.Address) uint64 {
	senderNonces, ok := p.nonces[sender]
	if !ok || len(senderNonces) == 0 {
		return 0
	}
	lowest := ^uint64(0)
	for nonce, hash := range senderNonces {
		if _, pending := p.pending[hash]; !pending {
			continue
		}
		if nonce < lowest {
			lowest = nonce
		}
	}
	return lowest
}

// Propose marks every hash in hashes Proposed{height}, moving it out of the
// priority index (spec.md §4.5's `propose`). Unknown or already-Proposed
// hashes are skipped rather than failing the whole batch, since a
// candidate's transaction set may race a concurrent Confirm/Rollback of one
// member.
func (p *Pool) Propose(hashes []types.Hash, blockHash types.Hash, height uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	proposedHashes := make([]types.Hash, 0, len(hashes))
	for _, hash := range hashes {
		entry, ok := p.pending[hash]
		if !ok {
			continue
		}
		delete(p.pending, hash)
		for i, e := range p.heap {
			if e.Tx.TxHash == hash {
				heap.Remove(&p.heap, i)
				break
			}
		}
		p.proposed[hash] = entry.Propose(height)
		proposedHashes = append(proposedHashes, hash)
	}
	p.blockTxs[blockHash] = proposedHashes
	p.updateSizeGauge()
}

// Confirm removes every Proposed transaction belonging to blockHash: the
// block was durably stored (spec.md §4.5's `confirm`).
func (p *Pool) Confirm(blockHash types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, hash := range p.blockTxs[blockHash] {
		entry, ok := p.proposed[hash]
		if !ok {
			continue
		}
		delete(p.proposed, hash)
		if senderNonces, ok := p.nonces[entry.Tx.Sender]; ok {
			delete(senderNonces, entry.Tx.Nonce)
			if len(senderNonces) == 0 {
				delete(p.nonces, entry.Tx.Sender)
			}
		}
	}
	delete(p.blockTxs, blockHash)
	p.updateSizeGauge()
}

// Rollback returns every Proposed transaction belonging to blockHash to
// Pending: the block was evicted or timed out (spec.md §4.5's `rollback`,
// I-memory-bomb-adjacent invariant that pending blocks never silently lose
// transactions).
func (p *Pool) Rollback(blockHash types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, hash := range p.blockTxs[blockHash] {
		entry, ok := p.proposed[hash]
		if !ok {
			continue
		}
		delete(p.proposed, hash)
		pending := entry.Rollback()
		p.pending[hash] = pending
		heap.Push(&p.heap, pending)
	}
	delete(p.blockTxs, blockHash)
	p.updateSizeGauge()
}

// Size reports the total entry count (Pending + Proposed).
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size()
}

// Contains reports whether hash is held, in either state.
func (p *Pool) Contains(hash types.Hash) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[hash]; ok {
		return true
	}
	_, ok := p.proposed[hash]
	return ok
}
