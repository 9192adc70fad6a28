// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/internal/config"
	"github.com/luxfi/nodekernel/internal/consensus"
	"github.com/luxfi/nodekernel/internal/discovery"
	"github.com/luxfi/nodekernel/internal/finality"
	"github.com/luxfi/nodekernel/internal/mempool"
	"github.com/luxfi/nodekernel/internal/metrics"
	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/internal/sigverify"
	"github.com/luxfi/nodekernel/internal/storage"
	"github.com/luxfi/nodekernel/internal/trie"
	"github.com/luxfi/nodekernel/internal/txindex"
	"github.com/luxfi/nodekernel/pkg/types"
)

// Kernel holds every constructed subsystem plus the bus that wires them
// together. buildKernel assembles them leaves-first: signature verification
// depends on nothing, peer discovery and the mempool depend only on the bus,
// consensus and finality depend on the validator registry, block storage
// closes the loop.
type Kernel struct {
	bus *bus.Bus

	SigVerify  *sigverify.Verifier
	Discovery  *discovery.RoutingTable
	Mempool    *mempool.Pool
	TxIndex    *txindex.Index
	Trie       *trie.StateTrie
	Validators *consensus.Registry
	Consensus  *consensus.Validator
	Storage    *storage.Assembler
	Finality   *finality.Gadget
}

// buildKernel constructs every subsystem per cfg. self is this node's
// identity, used to keep the routing table from inserting itself as a peer.
func buildKernel(cfg config.Config, self types.NodeID, kvStore ports.KeyValueStore, log nodelog.Logger, promReg *prometheus.Registry) (*Kernel, error) {
	clock := ports.SystemClock{}
	reg := metrics.NewRegistry(promReg, "nodekernel")

	ids := []bus.SubsystemID{
		bus.SubsystemPeerDiscovery,
		bus.SubsystemBlockStorage,
		bus.SubsystemTransactionIndex,
		bus.SubsystemStateTrie,
		bus.SubsystemMempool,
		bus.SubsystemConsensus,
		bus.SubsystemFinality,
		bus.SubsystemSignatureVerify,
	}
	keys, err := bus.NewStaticKeyProvider(ids)
	if err != nil {
		return nil, fmt.Errorf("nodekerneld: build key provider: %w", err)
	}
	b := bus.New(cfg.Bus, clock, keys, log, reg)

	validators, err := buildGenesisValidatorSet(cfg.GenesisValidators)
	if err != nil {
		return nil, err
	}
	registry := consensus.NewRegistry()
	registry.SetEpoch(0, validators)

	// Lvl 0: signature verification depends on nothing else.
	sv := sigverify.New(log, b.NewPublisher(bus.SubsystemSignatureVerify), reg)

	// Lvl 1: peer discovery and the mempool depend only on the bus.
	disc := discovery.New(
		cfg.Discovery, self, clock,
		discovery.AlwaysAliveLivenessChecker{},
		discovery.NewPeerScoreManager(discovery.DefaultPeerScoreConfig()),
		b.NewPublisher(bus.SubsystemPeerDiscovery), log, reg,
	)
	mp := mempool.New(cfg.Mempool, clock, log, reg)

	// Lvl 2: transaction index and state trie.
	txi := txindex.New(cfg.TxIndex, b.NewPublisher(bus.SubsystemTransactionIndex), log, reg)
	st := trie.New(cfg.Trie, b.NewPublisher(bus.SubsystemStateTrie), log, reg)

	// Lvl 3: consensus, validated synchronously via ValidateBlock rather
	// than a bus-driven Run loop — there is no bus-delivered candidate-block
	// topic to subscribe to; candidates arrive through direct calls instead.
	cons := consensus.New(cfg.Consensus, clock, sv, registry, b.NewPublisher(bus.SubsystemConsensus), log, reg)

	// Lvl 4: block storage and finality close the loop.
	disk := storage.OSDiskSpaceChecker{}
	store := storage.New(cfg.Storage, kvStore, clock, disk, b.NewPublisher(bus.SubsystemBlockStorage), log, reg)
	fin := finality.New(
		cfg.Finality, clock, sv,
		finality.NewConsensusValidatorProvider(registry),
		b.NewPublisher(bus.SubsystemFinality), log, reg,
	)

	return &Kernel{
		bus:        b,
		SigVerify:  sv,
		Discovery:  disc,
		Mempool:    mp,
		TxIndex:    txi,
		Trie:       st,
		Validators: registry,
		Consensus:  cons,
		Storage:    store,
		Finality:   fin,
	}, nil
}

// Start launches every bus-driven subsystem's Run loop in its own goroutine.
// Consensus has no Run loop: it is invoked synchronously by whatever submits
// candidate blocks, a mechanism this process does not itself provide.
func (k *Kernel) Start(ctx context.Context) {
	go k.SigVerify.Run(ctx, k.bus)
	go k.Discovery.Run(ctx, k.bus)
	go k.Mempool.Run(ctx, k.bus)
	go k.TxIndex.Run(ctx, k.bus)
	go k.Trie.Run(ctx, k.bus)
	go k.Storage.Run(ctx, k.bus)
	go k.Finality.Run(ctx, k.bus)
}
