// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trie

import "github.com/luxfi/nodekernel/pkg/types"

// nodeStore is a content-addressed node table: every node is keyed by its
// own hash, so structurally identical subtrees across snapshots share
// storage (spec.md §4.7's snapshot/pruning both depend on this sharing).
type nodeStore map[types.Hash]*trieNode

func (s nodeStore) nodeAt(h types.Hash) *trieNode {
	if h == emptyNodeHash {
		return nil
	}
	return s[h]
}

func (s nodeStore) put(n *trieNode) types.Hash {
	h := n.hash()
	s[h] = n
	return h
}

// insert folds value into the trie rooted at root for the given account
// key path, returning the new root hash. All keys are the fixed 64-nibble
// length of a 32-byte hash, so no two distinct keys are ever one a prefix of
// the other: branch nodes never need a value of their own, only leaf nodes
// do.
func (s nodeStore) insert(root types.Hash, path nibbles, value []byte) types.Hash {
	node := s.nodeAt(root)
	if node == nil {
		return s.put(&trieNode{kind: nodeLeaf, path: path, value: value})
	}

	switch node.kind {
	case nodeLeaf:
		if nibblesEqual(node.path, path) {
			return s.put(&trieNode{kind: nodeLeaf, path: path, value: value})
		}
		common := commonPrefixLen(node.path, path)
		branch := &trieNode{kind: nodeBranch}
		branch.children[node.path[common]] = s.put(&trieNode{kind: nodeLeaf, path: node.path[common+1:], value: node.value})
		branch.children[path[common]] = s.put(&trieNode{kind: nodeLeaf, path: path[common+1:], value: value})
		branchHash := s.put(branch)
		if common == 0 {
			return branchHash
		}
		return s.put(&trieNode{kind: nodeExtension, path: path[:common], child: branchHash})

	case nodeExtension:
		common := commonPrefixLen(node.path, path)
		if common == len(node.path) {
			newChild := s.insert(node.child, path[common:], value)
			return s.put(&trieNode{kind: nodeExtension, path: node.path, child: newChild})
		}
		branch := &trieNode{kind: nodeBranch}
		if common == len(node.path)-1 {
			branch.children[node.path[common]] = node.child
		} else {
			sub := &trieNode{kind: nodeExtension, path: node.path[common+1:], child: node.child}
			branch.children[node.path[common]] = s.put(sub)
		}
		branch.children[path[common]] = s.put(&trieNode{kind: nodeLeaf, path: path[common+1:], value: value})
		branchHash := s.put(branch)
		if common == 0 {
			return branchHash
		}
		return s.put(&trieNode{kind: nodeExtension, path: path[:common], child: branchHash})

	case nodeBranch:
		if len(path) == 0 {
			// Unreachable for fixed-length account keys; guard rather than
			// index out of range on a corrupt path.
			return root
		}
		idx := path[0]
		newChild := s.insert(node.children[idx], path[1:], value)
		replacement := *node
		replacement.children[idx] = newChild
		return s.put(&replacement)

	default:
		return root
	}
}
