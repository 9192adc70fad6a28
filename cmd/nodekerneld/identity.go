// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/luxfi/nodekernel/pkg/types"
)

// loadOrCreateNodeID reads the node's persistent identity from
// <dataDir>/node_id, generating and persisting a fresh random one on first
// run. The identity is an ordinary workspace file, not a KV entry, since it
// must be readable before the KV store and bus are constructed.
func loadOrCreateNodeID(dataDir string) (types.NodeID, error) {
	path := filepath.Join(dataDir, "node_id")

	raw, err := os.ReadFile(path)
	if err == nil {
		return parseNodeID(strings.TrimSpace(string(raw)))
	}
	if !os.IsNotExist(err) {
		return types.NodeID{}, fmt.Errorf("nodekerneld: read %s: %w", path, err)
	}

	var id types.NodeID
	if _, err := rand.Read(id[:]); err != nil {
		return types.NodeID{}, fmt.Errorf("nodekerneld: generate node id: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return types.NodeID{}, fmt.Errorf("nodekerneld: create data dir %s: %w", dataDir, err)
	}
	if err := os.WriteFile(path, []byte(id.String()+"\n"), 0o644); err != nil {
		return types.NodeID{}, fmt.Errorf("nodekerneld: write %s: %w", path, err)
	}
	return id, nil
}

func parseNodeID(s string) (types.NodeID, error) {
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return types.NodeID{}, fmt.Errorf("nodekerneld: malformed node id %q: %w", s, err)
	}
	if len(b) != types.NodeIDSize {
		return types.NodeID{}, fmt.Errorf("nodekerneld: node id must be %d bytes, got %d", types.NodeIDSize, len(b))
	}
	var id types.NodeID
	copy(id[:], b)
	return id, nil
}
