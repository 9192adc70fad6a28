// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// keccak256 hashes the concatenation of parts with Keccak-256, matching the
// Ethereum-style address derivation spec.md §4.9 requires.
func keccak256(parts ...[]byte) Hash {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Keccak256 hashes the concatenation of parts with Keccak-256. Exported for
// internal/sigverify's Ethereum-style address derivation (spec.md §4.9),
// which lives outside this package.
func Keccak256(parts ...[]byte) Hash {
	return keccak256(parts...)
}

// Sha3_256 hashes the concatenation of parts with SHA3-256, the default
// MerkleConfig.hash_algorithm (spec.md §4.8) and the state trie's node hash
// (spec.md §4.7).
func Sha3_256(parts ...[]byte) Hash {
	h := sha3.New256()
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// KeyedSha3_256 hashes key || concatenation of parts with SHA3-256. Used for
// keyed internal-node hashing (txindex Merkle tree) and the state trie's
// node, account-key and storage-root hashes. The discovery address
// manager's bucket placement does not use it (it has its own keyed
// SHA-256).
func KeyedSha3_256(key []byte, parts ...[]byte) Hash {
	all := make([][]byte, 0, len(parts)+1)
	all = append(all, key)
	all = append(all, parts...)
	return Sha3_256(all...)
}

func uint64Bytes(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func uint32Bytes(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}
