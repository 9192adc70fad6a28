// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import "github.com/luxfi/nodekernel/pkg/types"

// xorDistance returns the byte-wise XOR of two NodeIDs (spec.md §4.6's
// "XOR distance"). Grounded on orbas1-Synnergy's core.Kademlia.distance,
// adapted from a 20-byte SHA-1-derived id to this module's native 32-byte
// types.NodeID so no intermediate hash is needed.
func xorDistance(a, b types.NodeID) [types.NodeIDSize]byte {
	var d [types.NodeIDSize]byte
	for i := range d {
		d[i] = a[i] ^ b[i]
	}
	return d
}

// bucketIndex returns which of the NumBuckets k-buckets local owns b in,
// relative to self: the position of the first differing bit (spec.md §4.6).
// Identical ids collapse to bucket NumBuckets-1; ids differing in the top
// bit of the first byte land in bucket 0.
func bucketIndex(self, b types.NodeID) int {
	d := xorDistance(self, b)
	for byteIdx, v := range d {
		if v == 0 {
			continue
		}
		return byteIdx*8 + leadingZeros8(v)
	}
	return NumBuckets - 1
}

// leadingZeros8 returns the count of leading zero bits in a non-zero byte.
func leadingZeros8(v byte) int {
	n := 0
	for mask := byte(0x80); mask != 0 && v&mask == 0; mask >>= 1 {
		n++
	}
	return n
}
