// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trie

import (
	"bytes"
	"sort"

	"github.com/luxfi/nodekernel/pkg/types"
)

// sortHashes orders hs ascending by byte content, so storageRoot never
// depends on Go's map iteration order (spec.md §4.8's determinism
// requirement applies equally here).
func sortHashes(hs []types.Hash) {
	sort.Slice(hs, func(i, j int) bool {
		return bytes.Compare(hs[i][:], hs[j][:]) < 0
	})
}
