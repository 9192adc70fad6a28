// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"fmt"

	"github.com/luxfi/nodekernel/internal/kv"
	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/pkg/types"
	"github.com/luxfi/nodekernel/pkg/wire"
)

// RepairIndex rebuilds the `h:` height index and `t:` transaction index by
// scanning every `b:` value, an offline maintenance operation for recovering
// from secondary-index corruption. It never touches `b:` itself: a block's
// stored bytes are the source of truth, the secondary indices are derived.
// Returns the number of blocks re-indexed.
func (a *Assembler) RepairIndex(ctx context.Context) (int, error) {
	var pairs []ports.KeyValuePair
	var latestHeight uint64
	var genesisHash types.Hash
	haveGenesis := false
	count := 0

	err := a.kv.Iterate(ctx, []byte(kv.PrefixBlock), func(key, value []byte) error {
		var stored types.StoredBlock
		if _, err := wire.Codec.Unmarshal(value, &stored); err != nil {
			return fmt.Errorf("storage: repair_index: decode %x: %w", key, err)
		}
		blockHash := stored.Block.Hash()

		pairs = append(pairs, ports.KeyValuePair{Key: kv.HeightKey(stored.Block.Header.Height), Value: blockHash[:]})
		for _, tx := range stored.Block.Transactions {
			pairs = append(pairs, ports.KeyValuePair{Key: kv.TxKey(tx.SigningHash()), Value: blockHash[:]})
		}

		if stored.Block.Header.Height == 0 {
			genesisHash, haveGenesis = blockHash, true
		}
		if stored.Block.Header.Height >= latestHeight || count == 0 {
			latestHeight = stored.Block.Header.Height
		}
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	meta, err := a.loadMetadata(ctx)
	if err != nil {
		return 0, err
	}
	meta.TotalBlocks = uint64(count)
	meta.LatestHeight = latestHeight
	if haveGenesis {
		meta.GenesisHash = genesisHash
	}
	metaBytes, err := wire.Codec.Marshal(wire.CurrentVersion, meta)
	if err != nil {
		return 0, err
	}
	pairs = append(pairs, ports.KeyValuePair{Key: kv.MetadataKey(), Value: metaBytes})

	if err := a.kv.WriteBatch(ctx, pairs, nil); err != nil {
		return 0, err
	}
	return count, nil
}
