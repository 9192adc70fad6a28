// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"errors"
	"fmt"

	"github.com/luxfi/nodekernel/pkg/types"
)

// Sentinel errors for the assembler's commit path (spec.md §4.2 step 3).
var (
	ErrUnknownParent     = errors.New("storage: unknown parent")
	ErrInsufficientDisk  = errors.New("storage: insufficient free disk space")
	ErrNotFinalizable    = errors.New("storage: height <= finalized_height")
	ErrConflictingWrite  = errors.New("storage: conflicting component for block_hash")
	ErrBlockNotFound     = errors.New("storage: block not found")
	ErrGenesisImmutable  = errors.New("storage: genesis hash already recorded and cannot change")
)

// DataCorruption is returned by the read path when a stored block's checksum
// no longer matches its content (spec.md §4.2 "Read contract").
type DataCorruption struct {
	BlockHash types.Hash
	Expected  uint32
	Actual    uint32
}

func (e *DataCorruption) Error() string {
	return fmt.Sprintf("storage: data corruption for block %s: expected checksum %d, got %d", e.BlockHash, e.Expected, e.Actual)
}
