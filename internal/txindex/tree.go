// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txindex

import "github.com/luxfi/nodekernel/pkg/types"

// sentinelHash pads an odd-sized leaf level out to a power of two (spec.md
// §4.8: "pad with a fixed SENTINEL_HASH (all zeros)") and is also the root
// of an empty block's tree.
var sentinelHash = types.Hash{}

const nodeDomain = "txindex-node"

// merkleTree is one block's fully-materialized Merkle tree: levels[0] is
// the padded leaf row (transaction hashes in block order), levels[len-1]
// is the single-element root row.
type merkleTree struct {
	levels  [][]types.Hash
	leafLen int // number of real (unpadded) leaves
}

// buildTree folds txHashes into a full tree, in block order, padding to the
// next power of two with sentinelHash.
func buildTree(txHashes []types.Hash) *merkleTree {
	if len(txHashes) == 0 {
		return &merkleTree{levels: [][]types.Hash{{sentinelHash}}}
	}

	size := nextPowerOfTwo(len(txHashes))
	leaves := make([]types.Hash, size)
	copy(leaves, txHashes)
	for i := len(txHashes); i < size; i++ {
		leaves[i] = sentinelHash
	}

	levels := [][]types.Hash{leaves}
	cur := leaves
	for len(cur) > 1 {
		next := make([]types.Hash, len(cur)/2)
		for i := range next {
			next[i] = nodeHash(cur[2*i], cur[2*i+1])
		}
		levels = append(levels, next)
		cur = next
	}
	return &merkleTree{levels: levels, leafLen: len(txHashes)}
}

func nodeHash(left, right types.Hash) types.Hash {
	return types.KeyedSha3_256([]byte(nodeDomain), left[:], right[:])
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// root returns the tree's root hash.
func (m *merkleTree) root() types.Hash {
	top := m.levels[len(m.levels)-1]
	return top[0]
}

// indexOf returns the leaf position of txHash among the real (unpadded)
// leaves, or false if absent.
func (m *merkleTree) indexOf(txHash types.Hash) (int, bool) {
	leaves := m.levels[0]
	for i := 0; i < m.leafLen; i++ {
		if leaves[i] == txHash {
			return i, true
		}
	}
	return 0, false
}

// ProofStep is one level of an inclusion proof: the sibling hash at that
// level, plus whether the sibling sits to the right of the node being
// folded (spec.md §4.8's "left/right position bits").
type ProofStep struct {
	Sibling        types.Hash
	SiblingOnRight bool
}

// Proof is the ceil(log2 n) sibling path from a leaf to the root.
type Proof struct {
	LeafHash types.Hash
	Steps    []ProofStep
}

// proveIndex builds the inclusion proof for leaf index i.
func (m *merkleTree) proveIndex(i int) Proof {
	proof := Proof{LeafHash: m.levels[0][i]}
	idx := i
	for level := 0; level < len(m.levels)-1; level++ {
		row := m.levels[level]
		siblingIdx := idx ^ 1
		proof.Steps = append(proof.Steps, ProofStep{
			Sibling:        row[siblingIdx],
			SiblingOnRight: idx%2 == 0,
		})
		idx /= 2
	}
	return proof
}

// VerifyProof recomputes the root implied by proof and checks it against
// root (spec.md §4.8: "verification recomputes the root by folding the leaf
// against siblings in order").
func VerifyProof(proof Proof, root types.Hash) bool {
	cur := proof.LeafHash
	for _, step := range proof.Steps {
		if step.SiblingOnRight {
			cur = nodeHash(cur, step.Sibling)
		} else {
			cur = nodeHash(step.Sibling, cur)
		}
	}
	return cur == root
}
