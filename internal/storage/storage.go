// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"hash/crc32"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/internal/kv"
	"github.com/luxfi/nodekernel/internal/metrics"
	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/pkg/types"
	"github.com/luxfi/nodekernel/pkg/wire"
)

// Config bounds the assembler's resource usage (spec.md §4.2 "State").
type Config struct {
	MaxPending       int           `yaml:"max_pending"`
	AssemblyTimeout  time.Duration `yaml:"assembly_timeout"`
	MinFreeDiskRatio float64       `yaml:"min_free_disk_ratio"`
	GCInterval       time.Duration `yaml:"gc_interval"`
	DataDir          string        `yaml:"data_dir"`
}

// DefaultConfig returns spec.md's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxPending:       1000,
		AssemblyTimeout:  30 * time.Second,
		MinFreeDiskRatio: 0.05,
		GCInterval:       5 * time.Second,
		DataDir:          ".",
	}
}

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// Assembler is the Block Storage Stateful Assembler (spec.md §4.2): it
// joins BlockValidated, MerkleRootComputed and StateRootComputed events by
// block_hash into one atomic StoredBlock commit.
type Assembler struct {
	cfg   Config
	kv    ports.KeyValueStore
	clock ports.TimeSource
	disk  DiskSpaceChecker
	pub   *bus.Publisher
	log   nodelog.Logger

	mu      sync.Mutex
	pending map[types.Hash]*pendingAssembly

	evictedTotal    prometheus.Counter
	timeoutTotal    prometheus.Counter
	committedTotal  prometheus.Counter
	conflictTotal   prometheus.Counter
	corruptionTotal prometheus.Counter
}

// New constructs an Assembler. reg may be nil for tests.
func New(cfg Config, store ports.KeyValueStore, clock ports.TimeSource, disk DiskSpaceChecker, pub *bus.Publisher, log nodelog.Logger, reg *metrics.Registry) *Assembler {
	a := &Assembler{
		cfg:     cfg,
		kv:      store,
		clock:   clock,
		disk:    disk,
		pub:     pub,
		log:     log,
		pending: make(map[types.Hash]*pendingAssembly),
	}
	if reg != nil {
		a.evictedTotal = reg.Counter("storage", "assembly_evicted_total", "pending assemblies evicted for exceeding max_pending")
		a.timeoutTotal = reg.Counter("storage", "assembly_timeout_total", "pending assemblies GC'd for exceeding assembly_timeout")
		a.committedTotal = reg.Counter("storage", "blocks_committed_total", "blocks committed to storage")
		a.conflictTotal = reg.Counter("storage", "assembly_conflicts_total", "conflicting duplicate components rejected")
		a.corruptionTotal = reg.Counter("storage", "corruption_detected_total", "checksum mismatches detected on read")
	}
	return a
}

func incr(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// HandleBlockValidated processes a BlockValidated event (spec.md §4.2 step 1).
func (a *Assembler) HandleBlockValidated(ctx context.Context, ev bus.BlockValidated) error {
	a.mu.Lock()
	p := a.findOrCreate(ev.BlockHash)
	err := p.setBlock(types.ValidatedBlock{
		BlockHash:   ev.BlockHash,
		Block:       ev.Block,
		Proof:       ev.Proof,
		ValidatedAt: ev.ValidatedAt,
	})
	a.mu.Unlock()
	if err != nil {
		incr(a.conflictTotal)
		if a.log != nil {
			a.log.Warn("storage: conflicting BlockValidated component", "block_hash", ev.BlockHash.String())
		}
		return err
	}
	return a.tryCommit(ctx, ev.BlockHash)
}

// HandleMerkleRootComputed processes a MerkleRootComputed event.
func (a *Assembler) HandleMerkleRootComputed(ctx context.Context, ev bus.MerkleRootComputed) error {
	a.mu.Lock()
	p := a.findOrCreate(ev.BlockHash)
	err := p.setTxRoot(ev.TxRoot)
	a.mu.Unlock()
	if err != nil {
		incr(a.conflictTotal)
		return err
	}
	return a.tryCommit(ctx, ev.BlockHash)
}

// HandleStateRootComputed processes a StateRootComputed event.
func (a *Assembler) HandleStateRootComputed(ctx context.Context, ev bus.StateRootComputed) error {
	a.mu.Lock()
	p := a.findOrCreate(ev.BlockHash)
	err := p.setStateRoot(ev.StateRoot)
	a.mu.Unlock()
	if err != nil {
		incr(a.conflictTotal)
		return err
	}
	return a.tryCommit(ctx, ev.BlockHash)
}

// findOrCreate returns the pending assembly for blockHash, creating it (and
// evicting the oldest entry if max_pending is now exceeded) if needed.
// Caller must hold a.mu.
func (a *Assembler) findOrCreate(blockHash types.Hash) *pendingAssembly {
	if p, ok := a.pending[blockHash]; ok {
		return p
	}
	p := newPendingAssembly(blockHash, time.Unix(int64(a.clock.NowUnix()), 0))
	a.pending[blockHash] = p

	if len(a.pending) > a.cfg.MaxPending {
		a.evictOldestLocked()
	}
	return p
}

// evictOldestLocked removes the oldest pending entry by started_at (spec.md
// §4.2 step 2). Caller must hold a.mu.
func (a *Assembler) evictOldestLocked() {
	var oldestHash types.Hash
	var oldestTime time.Time
	first := true
	for h, p := range a.pending {
		if first || p.startedAt.Before(oldestTime) {
			oldestHash, oldestTime, first = h, p.startedAt, false
		}
	}
	if first {
		return
	}
	delete(a.pending, oldestHash)
	incr(a.evictedTotal)
	if a.pub != nil {
		_ = a.pub.Publish(bus.TopicAssemblyEvicted, bus.SubsystemUnknown, bus.AssemblyEvicted{BlockHash: oldestHash})
	}
}

// tryCommit attempts the atomic three-way join commit for blockHash if all
// three components are present (spec.md §4.2 step 3).
func (a *Assembler) tryCommit(ctx context.Context, blockHash types.Hash) error {
	a.mu.Lock()
	p, ok := a.pending[blockHash]
	if !ok || !p.complete() {
		a.mu.Unlock()
		return nil
	}
	block := *p.block
	txRoot := *p.txRoot
	stateRoot := *p.stateRoot
	a.mu.Unlock()

	stored := types.StoredBlock{
		Block:     block.Block,
		TxRoot:    txRoot,
		StateRoot: stateRoot,
		StoredAt:  time.Unix(int64(a.clock.NowUnix()), 0),
	}

	raw, err := wire.Codec.Marshal(wire.CurrentVersion, struct {
		Block     types.Block
		TxRoot    types.Hash
		StateRoot types.Hash
	}{stored.Block, txRoot, stateRoot})
	if err != nil {
		return err
	}
	stored.Checksum = crc32.Checksum(raw, castagnoliTable)

	height := stored.Block.Header.Height
	if height > 0 {
		if _, ok, err := a.kv.Get(ctx, kv.HeightKey(height-1)); err != nil {
			return err
		} else if !ok {
			return ErrUnknownParent
		}
	}

	if a.disk != nil {
		ratio, err := a.disk.FreeRatio(a.cfg.DataDir)
		if err != nil {
			return err
		}
		if ratio < a.cfg.MinFreeDiskRatio {
			return ErrInsufficientDisk
		}
	}

	meta, err := a.loadMetadata(ctx)
	if err != nil {
		return err
	}
	if height == 0 {
		if !meta.GenesisHash.IsZero() && meta.GenesisHash != blockHash {
			return ErrGenesisImmutable
		}
		meta.GenesisHash = blockHash
	}
	if meta.TotalBlocks == 0 || height > meta.LatestHeight {
		meta.LatestHeight = height
	}
	meta.TotalBlocks++

	blockBytes, err := wire.Codec.Marshal(wire.CurrentVersion, stored)
	if err != nil {
		return err
	}
	metaBytes, err := wire.Codec.Marshal(wire.CurrentVersion, meta)
	if err != nil {
		return err
	}

	pairs := []ports.KeyValuePair{
		{Key: kv.BlockKey(blockHash), Value: blockBytes},
		{Key: kv.HeightKey(height), Value: blockHash[:]},
		{Key: kv.MetadataKey(), Value: metaBytes},
	}
	for _, tx := range stored.Block.Transactions {
		pairs = append(pairs, ports.KeyValuePair{Key: kv.TxKey(tx.SigningHash()), Value: blockHash[:]})
	}
	if err := a.kv.WriteBatch(ctx, pairs, nil); err != nil {
		return err
	}

	a.mu.Lock()
	delete(a.pending, blockHash)
	a.mu.Unlock()

	incr(a.committedTotal)
	if a.pub != nil {
		_ = a.pub.Publish(bus.TopicBlockStored, bus.SubsystemUnknown, bus.BlockStored{BlockHash: blockHash, Height: height})
	}
	return nil
}

// SweepTimedOut removes pending assemblies older than assembly_timeout,
// publishing AssemblyTimeout for each (spec.md §4.2 step 4). Intended to run
// on a.cfg.GCInterval.
func (a *Assembler) SweepTimedOut() int {
	now := time.Unix(int64(a.clock.NowUnix()), 0)
	a.mu.Lock()
	var expired []types.Hash
	for h, p := range a.pending {
		if now.Sub(p.startedAt) > a.cfg.AssemblyTimeout {
			expired = append(expired, h)
		}
	}
	for _, h := range expired {
		delete(a.pending, h)
	}
	a.mu.Unlock()

	for _, h := range expired {
		incr(a.timeoutTotal)
		if a.pub != nil {
			_ = a.pub.Publish(bus.TopicAssemblyTimeout, bus.SubsystemUnknown, bus.AssemblyTimeout{BlockHash: h})
		}
	}
	return len(expired)
}

// HandleMarkFinalized advances metadata.finalized_height, rejecting any
// regression (I-finalize) (spec.md §4.2 "Finality integration").
func (a *Assembler) HandleMarkFinalized(ctx context.Context, height uint64) error {
	meta, err := a.loadMetadata(ctx)
	if err != nil {
		return err
	}
	if height <= meta.FinalizedHeight {
		return ErrNotFinalizable
	}
	meta.FinalizedHeight = height

	blockHash, ok, err := a.kv.Get(ctx, kv.HeightKey(height))
	if err != nil {
		return err
	}
	if !ok {
		return ErrBlockNotFound
	}
	var hash types.Hash
	copy(hash[:], blockHash)

	metaBytes, err := wire.Codec.Marshal(wire.CurrentVersion, meta)
	if err != nil {
		return err
	}
	if err := a.kv.WriteBatch(ctx, []ports.KeyValuePair{{Key: kv.MetadataKey(), Value: metaBytes}}, nil); err != nil {
		return err
	}
	if a.pub != nil {
		_ = a.pub.Publish(bus.TopicBlockFinalized, bus.SubsystemUnknown, bus.BlockFinalized{Height: height, BlockHash: hash})
	}
	return nil
}

func (a *Assembler) loadMetadata(ctx context.Context) (types.StorageMetadata, error) {
	var meta types.StorageMetadata
	raw, ok, err := a.kv.Get(ctx, kv.MetadataKey())
	if err != nil {
		return meta, err
	}
	if !ok {
		return meta, nil
	}
	if _, err := wire.Codec.Unmarshal(raw, &meta); err != nil {
		return meta, err
	}
	return meta, nil
}

// GetBlockByHash returns the stored block for hash, re-verifying its
// checksum (spec.md §4.2 "Read contract").
func (a *Assembler) GetBlockByHash(ctx context.Context, hash types.Hash) (types.StoredBlock, error) {
	raw, ok, err := a.kv.Get(ctx, kv.BlockKey(hash))
	if err != nil {
		return types.StoredBlock{}, err
	}
	if !ok {
		return types.StoredBlock{}, ErrBlockNotFound
	}
	var stored types.StoredBlock
	if _, err := wire.Codec.Unmarshal(raw, &stored); err != nil {
		return types.StoredBlock{}, err
	}

	check, err := wire.Codec.Marshal(wire.CurrentVersion, struct {
		Block     types.Block
		TxRoot    types.Hash
		StateRoot types.Hash
	}{stored.Block, stored.TxRoot, stored.StateRoot})
	if err != nil {
		return types.StoredBlock{}, err
	}
	actual := crc32.Checksum(check, castagnoliTable)
	if actual != stored.Checksum {
		incr(a.corruptionTotal)
		return types.StoredBlock{}, &DataCorruption{BlockHash: hash, Expected: stored.Checksum, Actual: actual}
	}
	return stored, nil
}

// GetBlockByHeight resolves height to a hash via the height index, then
// delegates to GetBlockByHash (spec.md §4.2 "Read contract": O(1) via two
// KV lookups).
func (a *Assembler) GetBlockByHeight(ctx context.Context, height uint64) (types.StoredBlock, error) {
	raw, ok, err := a.kv.Get(ctx, kv.HeightKey(height))
	if err != nil {
		return types.StoredBlock{}, err
	}
	if !ok {
		return types.StoredBlock{}, ErrBlockNotFound
	}
	var hash types.Hash
	copy(hash[:], raw)
	return a.GetBlockByHash(ctx, hash)
}

// GetBlockByTxHash resolves txHash to its containing block via the
// transaction index, then delegates to GetBlockByHash (spec.md §6's
// `t:` namespace, populated at commit time alongside `h:`).
func (a *Assembler) GetBlockByTxHash(ctx context.Context, txHash types.Hash) (types.StoredBlock, error) {
	raw, ok, err := a.kv.Get(ctx, kv.TxKey(txHash))
	if err != nil {
		return types.StoredBlock{}, err
	}
	if !ok {
		return types.StoredBlock{}, ErrBlockNotFound
	}
	var hash types.Hash
	copy(hash[:], raw)
	return a.GetBlockByHash(ctx, hash)
}
