// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config is the layered configuration loader for the node kernel
// process: built-in defaults, overridden by a YAML file, overridden by
// environment variables, following the teacher's config/config.go
// struct-of-tunables-with-defaults idiom. cmd/nodekerneld's flags only pick
// the YAML file; no flag overrides an individual setting.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/internal/consensus"
	"github.com/luxfi/nodekernel/internal/discovery"
	"github.com/luxfi/nodekernel/internal/finality"
	"github.com/luxfi/nodekernel/internal/mempool"
	"github.com/luxfi/nodekernel/internal/storage"
	"github.com/luxfi/nodekernel/internal/trie"
	"github.com/luxfi/nodekernel/internal/txindex"
)

// Config aggregates every subsystem's tunables plus the process-wide
// settings (spec.md §9's parameter table, one struct per numbered
// subsystem).
type Config struct {
	DataDir     string `yaml:"data_dir"`
	MetricsAddr string `yaml:"metrics_addr"`

	Bus       bus.Config       `yaml:"bus"`
	Discovery discovery.Config `yaml:"discovery"`
	Mempool   mempool.Config   `yaml:"mempool"`
	TxIndex   txindex.Config   `yaml:"txindex"`
	Trie      trie.Config      `yaml:"trie"`
	Consensus consensus.Config `yaml:"consensus"`
	Storage   storage.Config   `yaml:"storage"`
	Finality  finality.Config  `yaml:"finality"`

	// GenesisValidators seeds epoch 0 of the consensus validator registry.
	// The node kernel is not an RPC server or chain-sync client (spec.md
	// §1's non-goals), so it has no other way to learn the initial roster.
	GenesisValidators []GenesisValidator `yaml:"genesis_validators"`
}

// GenesisValidator is one validator's identity, hex-encoded the way a
// human-edited YAML genesis file would carry it.
type GenesisValidator struct {
	NodeID    string `yaml:"node_id"`
	PublicKey string `yaml:"public_key"`
	Stake     uint64 `yaml:"stake"`
}

// DefaultConfig returns every subsystem's own documented defaults, matching
// spec.md §9's parameter table.
func DefaultConfig() Config {
	return Config{
		DataDir:     "./data",
		MetricsAddr: ":9090",
		Bus:         bus.DefaultConfig(),
		Discovery:   discovery.DefaultConfig(),
		Mempool:     mempool.DefaultConfig(),
		TxIndex:     txindex.DefaultConfig(),
		Trie:        trie.DefaultConfig(),
		Consensus:   consensus.DefaultConfig(),
		Storage:     storage.DefaultConfig(),
		Finality:    finality.DefaultConfig(),
	}
}

// Load starts from DefaultConfig, overlays path's YAML contents (if path is
// non-empty), then overlays a small set of environment variables, so the
// environment takes precedence over the file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays NODEKERNEL_-prefixed environment variables, the last
// layer, on top of the YAML file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("NODEKERNEL_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("NODEKERNEL_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
}
