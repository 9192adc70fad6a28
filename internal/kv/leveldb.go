// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kv

import (
	"context"
	"fmt"

	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB is a production KeyValueStore backed by goleveldb, the same
// embedded KV engine EXCCoin-exccd (dcrd) and tolelom-tolchain depend on.
// spec.md §1 treats persistent KV *engines* as out of scope; this adapter
// only exercises the pluggable port named in spec.md §6.
type LevelDB struct {
	db *leveldb.DB
}

var _ ports.KeyValueStore = (*LevelDB)(nil)

// OpenLevelDB opens (creating if absent) a goleveldb database at dir.
func OpenLevelDB(dir string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("kv: open leveldb at %s: %w", dir, err)
	}
	return &LevelDB{db: db}, nil
}

func (l *LevelDB) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	v, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv: get: %w", err)
	}
	return v, true, nil
}

// WriteBatch commits pairs and deletes in a single atomic leveldb.Batch,
// satisfying spec.md §6's "writes in one batch are atomic" requirement.
func (l *LevelDB) WriteBatch(_ context.Context, pairs []ports.KeyValuePair, deletes [][]byte) error {
	batch := new(leveldb.Batch)
	for _, p := range pairs {
		batch.Put(p.Key, p.Value)
	}
	for _, k := range deletes {
		batch.Delete(k)
	}
	if err := l.db.Write(batch, nil); err != nil {
		return fmt.Errorf("kv: write batch: %w", err)
	}
	return nil
}

func (l *LevelDB) Delete(_ context.Context, key []byte) error {
	if err := l.db.Delete(key, nil); err != nil {
		return fmt.Errorf("kv: delete: %w", err)
	}
	return nil
}

func (l *LevelDB) Iterate(_ context.Context, prefix []byte, fn func(key, value []byte) error) error {
	iter := l.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}
