// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trie

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/internal/metrics"
	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/pkg/types"
	"github.com/luxfi/nodekernel/pkg/wire"
)

// snapshot is one immutable committed state: an account table, its backing
// node store, the contract storage table, and the height it was committed
// at. Reads take a reference to the current snapshot under a brief RLock and
// then never block a concurrent writer (spec.md §5's "reads are lock-free
// snapshots of the last committed root").
type snapshot struct {
	height   uint64
	root     types.Hash
	nodes    nodeStore
	accounts map[types.Address]types.AccountState
	storage  map[types.Address]map[types.Hash]types.Hash
}

func emptySnapshot() *snapshot {
	return &snapshot{
		root:     emptyNodeHash,
		nodes:    make(nodeStore),
		accounts: make(map[types.Address]types.AccountState),
		storage:  make(map[types.Address]map[types.Hash]types.Hash),
	}
}

// StateTrie is the authoritative Address -> AccountState mapping (spec.md
// §4.7): it folds block state transitions into a Merkle-Patricia trie,
// publishes the resulting state_root, serves inclusion proofs, and records
// a snapshot every SnapshotInterval blocks; PruneOlderThan drops old
// snapshots when called.
type StateTrie struct {
	cfg Config
	pub *bus.Publisher
	log nodelog.Logger

	mu       sync.RWMutex
	cur      *snapshot
	snaps    map[uint64]*snapshot // height -> snapshot, taken every SnapshotInterval blocks
	snapsAge []uint64             // insertion order, for pruning sweeps

	rootsComputed  prometheus.Counter
	applyRejected  *prometheus.CounterVec
	snapshotsTaken prometheus.Counter
	nodesPruned    prometheus.Counter
}

// New constructs a StateTrie at genesis (empty root, height 0). reg may be
// nil for tests.
func New(cfg Config, pub *bus.Publisher, log nodelog.Logger, reg *metrics.Registry) *StateTrie {
	t := &StateTrie{
		cfg:   cfg,
		pub:   pub,
		log:   log,
		cur:   emptySnapshot(),
		snaps: make(map[uint64]*snapshot),
	}
	if reg != nil {
		t.rootsComputed = reg.Counter("trie", "roots_computed_total", "state roots computed")
		t.applyRejected = reg.CounterVec("trie", "apply_rejected_total", "block state transitions rejected", []string{"reason"})
		t.snapshotsTaken = reg.Counter("trie", "snapshots_taken_total", "state snapshots recorded")
		t.nodesPruned = reg.Counter("trie", "nodes_pruned_total", "state snapshots dropped by PruneOlderThan")
	}
	return t
}

func incr(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

func (t *StateTrie) reject(reason string) {
	if t.applyRejected != nil {
		t.applyRejected.WithLabelValues(reason).Inc()
	}
}

// Height returns the height of the last applied transition.
func (t *StateTrie) Height() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cur.height
}

// RootHash returns the trie's current root hash.
func (t *StateTrie) RootHash() types.Hash {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cur.root
}

// Get returns the recorded AccountState for addr, or ErrUnknownAccount.
func (t *StateTrie) Get(addr types.Address) (types.AccountState, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	acc, ok := t.cur.accounts[addr]
	if !ok {
		return types.AccountState{}, ErrUnknownAccount
	}
	return acc, nil
}

// Apply folds transition's account deltas into the trie, publishing
// StateRootComputed on success. It is serialized with respect to the
// monotonic chain tip (spec.md §5): transition.Height must be exactly the
// current height + 1.
func (t *StateTrie) Apply(ctx context.Context, transition types.BlockStateTransition) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if transition.Height != t.cur.height+1 {
		t.reject("stale_height")
		return ErrStaleApply
	}

	next, err := t.foldLocked(transition.Height, transition.Deltas)
	if err != nil {
		return err
	}
	t.cur = next
	incr(t.rootsComputed)

	if t.pub != nil {
		_ = t.pub.Publish(bus.TopicStateRootComputed, bus.SubsystemBlockStorage, bus.StateRootComputed{
			BlockHash: transition.BlockHash,
			StateRoot: next.root,
		})
	}

	if t.cfg.SnapshotInterval > 0 && next.height%t.cfg.SnapshotInterval == 0 {
		t.recordSnapshotLocked(next)
	}
	return nil
}

// ApplyPenalty folds deltas into the trie without advancing the chain-tip
// height gate and without publishing StateRootComputed: used for
// protocol-level adjustments (the finality inactivity leak) that aren't
// keyed to a specific block_hash the assembler is joining. The next
// genuinely-applied block's StateRootComputed carries the adjustment
// forward, since it folds from this updated root.
func (t *StateTrie) ApplyPenalty(ctx context.Context, deltas []types.AccountDelta) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	next, err := t.foldLocked(t.cur.height, deltas)
	if err != nil {
		return err
	}
	t.cur = next
	return nil
}

// foldLocked builds a fresh snapshot at height by cloning the current
// account/storage tables and folding deltas into it, sharing the
// content-addressed node store. Caller holds t.mu.
func (t *StateTrie) foldLocked(height uint64, deltas []types.AccountDelta) (*snapshot, error) {
	next := &snapshot{
		height:   height,
		root:     t.cur.root,
		nodes:    t.cur.nodes, // append-only and content-addressed: safe to extend in place
		accounts: cloneAccounts(t.cur.accounts),
		storage:  cloneStorage(t.cur.storage),
	}
	for _, delta := range deltas {
		if err := t.applyDeltaLocked(next, delta); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// applyDeltaLocked folds one account delta into next. Caller holds t.mu.
func (t *StateTrie) applyDeltaLocked(next *snapshot, delta types.AccountDelta) error {
	acc := next.accounts[delta.Address]

	if delta.BumpNonce {
		if delta.ExpectedNonce < acc.Nonce {
			t.reject("invalid_nonce")
			return ErrInvalidNonce
		}
		if delta.ExpectedNonce > acc.Nonce {
			t.reject("nonce_gap")
			return ErrNonceGap
		}
	}

	newBalance := int64(acc.Balance) + delta.BalanceDelta
	if newBalance < 0 {
		t.reject("insufficient_balance")
		return ErrInsufficientBalance
	}
	acc.Balance = uint64(newBalance)
	if delta.BumpNonce {
		acc.Nonce = delta.ExpectedNonce + 1
	}

	if delta.CodeHash != nil {
		acc.CodeHash = *delta.CodeHash
	}

	if len(delta.Storage) > 0 {
		slots := next.storage[delta.Address]
		if slots == nil {
			slots = make(map[types.Hash]types.Hash)
		}
		for _, w := range delta.Storage {
			slots[w.Slot] = w.Value
		}
		if len(slots) > t.cfg.MaxStorageSlotsPerAccount {
			t.reject("storage_limit_exceeded")
			return ErrStorageLimitExceeded
		}
		next.storage[delta.Address] = slots
		acc.StorageRoot = storageRoot(slots)
	}

	next.accounts[delta.Address] = acc

	key := accountKey(delta.Address)
	encoded, err := wire.Codec.Marshal(wire.CurrentVersion, acc)
	if err != nil {
		return err
	}
	next.root = next.nodes.insert(next.root, keyToNibbles(key), encoded)
	return nil
}

// Prove produces an inclusion proof for addr's current AccountState against
// the trie's current root (spec.md §4.7's "prove(address)").
func (t *StateTrie) Prove(addr types.Address) (Proof, types.AccountState, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	acc, ok := t.cur.accounts[addr]
	if !ok {
		return Proof{}, types.AccountState{}, ErrUnknownAccount
	}
	proof, _, ok := t.cur.nodes.prove(t.cur.root, keyToNibbles(accountKey(addr)))
	if !ok {
		return Proof{}, types.AccountState{}, ErrUnknownAccount
	}
	return proof, acc, nil
}

// storageRoot is a deterministic, order-independent commitment over a
// contract's storage slots: a sorted-by-slot keyed hash chain rather than a
// second nested Merkle-Patricia trie, since nothing downstream needs
// sub-slot inclusion proofs (only the top-level account trie does, per
// spec.md §4.7's operations list).
func storageRoot(slots map[types.Hash]types.Hash) types.Hash {
	if len(slots) == 0 {
		return types.Hash{}
	}
	keys := make([]types.Hash, 0, len(slots))
	for k := range slots {
		keys = append(keys, k)
	}
	sortHashes(keys)
	parts := make([][]byte, 0, len(keys)*2)
	for _, k := range keys {
		v := slots[k]
		parts = append(parts, append([]byte(nil), k[:]...), append([]byte(nil), v[:]...))
	}
	return types.KeyedSha3_256([]byte("trie-storage-root"), parts...)
}

func cloneAccounts(m map[types.Address]types.AccountState) map[types.Address]types.AccountState {
	out := make(map[types.Address]types.AccountState, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStorage(m map[types.Address]map[types.Hash]types.Hash) map[types.Address]map[types.Hash]types.Hash {
	out := make(map[types.Address]map[types.Hash]types.Hash, len(m))
	for addr, slots := range m {
		cp := make(map[types.Hash]types.Hash, len(slots))
		for k, v := range slots {
			cp[k] = v
		}
		out[addr] = cp
	}
	return out
}
