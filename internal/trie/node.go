// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trie

import (
	"bytes"

	"github.com/luxfi/nodekernel/pkg/types"
)

// emptyNodeHash is the fixed constant spec.md §4.7 requires for an empty
// subtree: the zero hash, the same sentinel convention internal/txindex
// uses for SENTINEL_HASH.
var emptyNodeHash = types.Hash{}

// nodeKind is the structural tag spec.md §4.7 requires branch, extension and
// leaf nodes to carry.
type nodeKind uint8

const (
	nodeLeaf nodeKind = iota + 1
	nodeExtension
	nodeBranch
)

// trieNode is a content-addressed Merkle-Patricia node. Account keys are all
// the fixed 64-nibble length of a 32-byte keyed hash, so (unlike a trie over
// variable-length keys) no branch ever needs a value of its own: two
// distinct keys are never one a prefix of the other.
type trieNode struct {
	kind nodeKind

	// leaf, extension
	path nibbles

	// leaf
	value []byte

	// extension
	child types.Hash

	// branch
	children [16]types.Hash // zero entry == emptyNodeHash
}

// nibbles is a path of 4-bit values, one per hex digit of an account key.
type nibbles []byte

func keyToNibbles(key types.Hash) nibbles {
	out := make(nibbles, 0, len(key)*2)
	for _, b := range key {
		out = append(out, b>>4, b&0x0f)
	}
	return out
}

func encodeNibbles(n nibbles) []byte {
	// Parity-prefixed packing (high nibble of byte 0 flags odd length),
	// matching the compact encoding idiom used by every production MPT so a
	// leaf and an extension with different paths never collide on hash.
	out := make([]byte, 0, len(n)/2+1)
	odd := len(n)%2 == 1
	var flag byte
	if odd {
		flag = 0x10
	}
	i := 0
	if odd {
		out = append(out, flag|n[0])
		i = 1
	} else {
		out = append(out, flag)
	}
	for ; i+1 < len(n); i += 2 {
		out = append(out, n[i]<<4|n[i+1])
	}
	return out
}

func commonPrefixLen(a, b nibbles) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// hash computes the node's content-addressed hash, which doubles as its
// storage key in the node store (spec.md §4.7's "hash of the root node").
func (n *trieNode) hash() types.Hash {
	switch n.kind {
	case nodeLeaf:
		return types.KeyedSha3_256([]byte("trie-leaf"), encodeNibbles(n.path), n.value)
	case nodeExtension:
		return types.KeyedSha3_256([]byte("trie-ext"), encodeNibbles(n.path), n.child[:])
	case nodeBranch:
		parts := make([][]byte, 0, 16)
		for _, c := range n.children {
			parts = append(parts, c[:])
		}
		return types.KeyedSha3_256([]byte("trie-branch"), parts...)
	default:
		return emptyNodeHash
	}
}

func nibblesEqual(a, b nibbles) bool {
	return bytes.Equal(a, b)
}
