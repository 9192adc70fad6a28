// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kv

import (
	"encoding/binary"

	"github.com/luxfi/nodekernel/pkg/types"
)

// Key namespace prefixes, spec.md §6.
const (
	PrefixBlock    = "b:"
	PrefixHeight   = "h:"
	PrefixTx       = "t:"
	PrefixMetadata = "m:"
)

// BlockKey returns the "b:<hash>" key for a StoredBlock.
func BlockKey(hash types.Hash) []byte {
	return append([]byte(PrefixBlock), hash[:]...)
}

// HeightKey returns the "h:<height-LE>" key mapping a height to a block hash.
func HeightKey(height uint64) []byte {
	buf := make([]byte, len(PrefixHeight)+8)
	copy(buf, PrefixHeight)
	binary.LittleEndian.PutUint64(buf[len(PrefixHeight):], height)
	return buf
}

// TxKey returns the "t:<tx hash>" key for a transaction location record.
func TxKey(txHash types.Hash) []byte {
	return append([]byte(PrefixTx), txHash[:]...)
}

// MetadataKey returns the singleton "m:" key.
func MetadataKey() []byte {
	return []byte(PrefixMetadata)
}
