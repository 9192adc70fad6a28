// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package types holds the value types shared across every node kernel
// subsystem: hashes, node identifiers, addresses, transactions, blocks and
// the consensus/finality entities built on top of them.
package types

import (
	"encoding/hex"
	"fmt"
)

// HashSize is the length in bytes of a Hash.
const HashSize = 32

// Hash is an opaque 32-byte digest. It is a value type: copying a Hash
// copies its bytes.
type Hash [HashSize]byte

// String renders the hash as a 0x-prefixed hex string.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// IsZero reports whether the hash is the all-zero sentinel.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// HashFromBytes copies b into a Hash, zero-padding or truncating is never
// performed: b must be exactly HashSize long.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, fmt.Errorf("types: hash must be %d bytes, got %d", HashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// NodeIDSize is the length in bytes of a NodeID.
const NodeIDSize = 32

// NodeID is a 32-byte node identifier. Distance between two NodeIDs for
// routing purposes is their byte-wise XOR (see internal/discovery).
type NodeID [NodeIDSize]byte

func (n NodeID) String() string {
	return "0x" + hex.EncodeToString(n[:])
}

// MarshalText implements encoding.TextMarshaler.
func (n NodeID) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// IsZero reports whether the node id is the all-zero sentinel.
func (n NodeID) IsZero() bool {
	return n == NodeID{}
}

// AddressSize is the length in bytes of an Address (Ethereum-style account id).
const AddressSize = 20

// Address is a 20-byte account identifier.
type Address [AddressSize]byte

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// IsZero reports whether the address is the all-zero sentinel.
func (a Address) IsZero() bool {
	return a == Address{}
}
