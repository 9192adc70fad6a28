// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package kv implements the pluggable KeyValueStore port (spec.md §6) with
// two adapters: an in-memory store for tests and a goleveldb-backed store
// for production, following the teacher's Batch/Reader/Writer interface
// split in crypto/database/database.go.
package kv

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/luxfi/nodekernel/internal/ports"
)

// Memory is an in-memory KeyValueStore, safe for concurrent use. Writes in
// one WriteBatch call are applied atomically under a single lock.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ ports.KeyValueStore = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) WriteBatch(_ context.Context, pairs []ports.KeyValuePair, deletes [][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range pairs {
		v := make([]byte, len(p.Value))
		copy(v, p.Value)
		m.data[string(p.Key)] = v
	}
	for _, k := range deletes {
		delete(m.data, string(k))
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *Memory) Iterate(_ context.Context, prefix []byte, fn func(key, value []byte) error) error {
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	snapshot := make(map[string][]byte, len(keys))
	for _, k := range keys {
		snapshot[k] = m.data[k]
	}
	m.mu.RUnlock()

	for _, k := range keys {
		if err := fn([]byte(k), snapshot[k]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) Close() error { return nil }
