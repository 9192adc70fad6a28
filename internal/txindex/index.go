// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txindex

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/internal/metrics"
	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/pkg/types"
)

// indexedBlock is what Prove needs to rebuild a tree after an LRU eviction:
// the transaction hashes, in block order, that the tree was built over.
type indexedBlock struct {
	txHashes []types.Hash
}

// Index is the authoritative per-block transaction Merkle tree (spec.md
// §4.8): it folds each validated block's transaction hashes into a root,
// publishes MerkleRootComputed, and serves inclusion proofs either from a
// cached tree or rebuilt on demand from the indexed transaction set.
type Index struct {
	cfg Config
	pub *bus.Publisher
	log nodelog.Logger

	mu      sync.RWMutex
	trees   *lru.Cache[types.Hash, *merkleTree]
	indexed map[types.Hash]indexedBlock // never evicted: the durable record Prove rebuilds from

	rootsComputed prometheus.Counter
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
}

// New constructs an Index. reg may be nil for tests.
func New(cfg Config, pub *bus.Publisher, log nodelog.Logger, reg *metrics.Registry) *Index {
	size := cfg.MaxCachedTrees
	if size <= 0 {
		size = DefaultConfig().MaxCachedTrees
	}
	trees, err := lru.New[types.Hash, *merkleTree](size)
	if err != nil {
		// Only returns an error for a non-positive size, which DefaultConfig
		// never produces.
		panic("txindex: lru.New: " + err.Error())
	}

	idx := &Index{
		cfg:     cfg,
		pub:     pub,
		log:     log,
		trees:   trees,
		indexed: make(map[types.Hash]indexedBlock),
	}
	if reg != nil {
		idx.rootsComputed = reg.Counter("txindex", "roots_computed_total", "transaction Merkle roots computed")
		idx.cacheHits = reg.Counter("txindex", "tree_cache_hits_total", "Merkle tree cache hits")
		idx.cacheMisses = reg.Counter("txindex", "tree_cache_misses_total", "Merkle tree cache misses, rebuilt from indexed transactions")
	}
	return idx
}

func incr(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// IndexBlock folds block's transactions (in order) into a Merkle tree,
// caches it, and returns the resulting tx_root (spec.md §4.8's tree
// construction). Called from HandleBlockValidated, and safe to call
// standalone for tests.
func (idx *Index) IndexBlock(blockHash types.Hash, txs []types.Transaction) types.Hash {
	txHashes := make([]types.Hash, len(txs))
	for i := range txs {
		txHashes[i] = txs[i].SigningHash()
	}
	tree := buildTree(txHashes)

	idx.mu.Lock()
	idx.trees.Add(blockHash, tree)
	idx.indexed[blockHash] = indexedBlock{txHashes: txHashes}
	idx.mu.Unlock()

	incr(idx.rootsComputed)
	return tree.root()
}

// RootOf returns the cached or rebuilt tx_root for blockHash.
func (idx *Index) RootOf(blockHash types.Hash) (types.Hash, error) {
	tree, err := idx.treeFor(blockHash)
	if err != nil {
		return types.Hash{}, err
	}
	return tree.root(), nil
}

// Prove produces an inclusion proof for txHash within blockHash's tree
// (spec.md §4.8's "O(log n) inclusion proofs").
func (idx *Index) Prove(blockHash, txHash types.Hash) (Proof, error) {
	tree, err := idx.treeFor(blockHash)
	if err != nil {
		return Proof{}, err
	}
	i, ok := tree.indexOf(txHash)
	if !ok {
		return Proof{}, ErrTransactionNotInBlock
	}
	return tree.proveIndex(i), nil
}

// treeFor returns blockHash's tree, from cache if present, otherwise
// rebuilt from the durable indexed transaction set (spec.md §4.8's
// "eviction is purely a cache miss").
func (idx *Index) treeFor(blockHash types.Hash) (*merkleTree, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if tree, ok := idx.trees.Get(blockHash); ok {
		incr(idx.cacheHits)
		return tree, nil
	}

	rec, ok := idx.indexed[blockHash]
	if !ok {
		return nil, ErrBlockNotIndexed
	}
	incr(idx.cacheMisses)
	tree := buildTree(rec.txHashes)
	idx.trees.Add(blockHash, tree)
	return tree, nil
}

// HandleBlockValidated indexes the block's transactions and publishes
// MerkleRootComputed (spec.md §4.8).
func (idx *Index) HandleBlockValidated(ctx context.Context, ev bus.BlockValidated) error {
	root := idx.IndexBlock(ev.BlockHash, ev.Block.Transactions)
	if idx.pub == nil {
		return nil
	}
	return idx.pub.Publish(bus.TopicMerkleRootComputed, bus.SubsystemBlockStorage, bus.MerkleRootComputed{
		BlockHash: ev.BlockHash,
		TxRoot:    root,
	})
}
