// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trie

import (
	"bytes"

	"github.com/luxfi/nodekernel/pkg/types"
)

// lookup walks the trie rooted at root for path, returning the leaf value
// (nil, false if absent).
func (s nodeStore) lookup(root types.Hash, path nibbles) ([]byte, bool) {
	node := s.nodeAt(root)
	if node == nil {
		return nil, false
	}
	switch node.kind {
	case nodeLeaf:
		if nibblesEqual(node.path, path) {
			return node.value, true
		}
		return nil, false
	case nodeExtension:
		if len(path) < len(node.path) || !bytes.Equal(node.path, path[:len(node.path)]) {
			return nil, false
		}
		return s.lookup(node.child, path[len(node.path):])
	case nodeBranch:
		if len(path) == 0 {
			return nil, false
		}
		return s.lookup(node.children[path[0]], path[1:])
	default:
		return nil, false
	}
}

// ProofStep is one node on the path from root to leaf, carrying exactly the
// data a verifier needs to recompute that node's hash and check the next
// step up folds it in correctly (spec.md §4.7 "prove(address)").
type ProofStep struct {
	Kind     nodeKind
	Path     []byte // leaf/extension: nibble path
	Value    []byte // leaf only
	Children [16]types.Hash // branch only
	Index    byte           // branch only: which child this step's path takes
}

// Proof is an ordered root-to-leaf path sufficient to verify inclusion of
// one account's state against a known root hash.
type Proof struct {
	Steps []ProofStep
}

// prove walks root for path, returning the root-to-leaf proof and whether
// path resolved to a leaf.
func (s nodeStore) prove(root types.Hash, path nibbles) (Proof, []byte, bool) {
	var proof Proof
	cur := root
	remaining := path
	for {
		node := s.nodeAt(cur)
		if node == nil {
			return Proof{}, nil, false
		}
		switch node.kind {
		case nodeLeaf:
			if !nibblesEqual(node.path, remaining) {
				return Proof{}, nil, false
			}
			proof.Steps = append(proof.Steps, ProofStep{Kind: nodeLeaf, Path: append([]byte(nil), node.path...), Value: node.value})
			return proof, node.value, true
		case nodeExtension:
			if len(remaining) < len(node.path) || !bytes.Equal(node.path, remaining[:len(node.path)]) {
				return Proof{}, nil, false
			}
			proof.Steps = append(proof.Steps, ProofStep{Kind: nodeExtension, Path: append([]byte(nil), node.path...)})
			cur = node.child
			remaining = remaining[len(node.path):]
		case nodeBranch:
			if len(remaining) == 0 {
				return Proof{}, nil, false
			}
			idx := remaining[0]
			proof.Steps = append(proof.Steps, ProofStep{Kind: nodeBranch, Children: node.children, Index: idx})
			cur = node.children[idx]
			remaining = remaining[1:]
		default:
			return Proof{}, nil, false
		}
	}
}

// VerifyProof recomputes the root hash implied by proof and checks it
// against root, folding from the leaf back up (spec.md §4.7/§4.8's
// "verification recomputes the root... checking equality").
func VerifyProof(proof Proof, root types.Hash) bool {
	if len(proof.Steps) == 0 {
		return false
	}
	// Fold from the last step (leaf) back to the first (root).
	childHash := emptyNodeHash
	for i := len(proof.Steps) - 1; i >= 0; i-- {
		step := proof.Steps[i]
		switch step.Kind {
		case nodeLeaf:
			n := &trieNode{kind: nodeLeaf, path: step.Path, value: step.Value}
			childHash = n.hash()
		case nodeExtension:
			n := &trieNode{kind: nodeExtension, path: step.Path, child: childHash}
			childHash = n.hash()
		case nodeBranch:
			children := step.Children
			children[step.Index] = childHash
			n := &trieNode{kind: nodeBranch, children: children}
			childHash = n.hash()
		default:
			return false
		}
	}
	return childHash == root
}
