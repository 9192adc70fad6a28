// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ports declares the narrow outbound capability interfaces the node
// kernel consumes from its process boundary (spec.md §6, §9): key-value
// storage, network sockets, time, randomness and per-sender HMAC secrets.
// Each is a small interface in the teacher's capability style
// (validators.Connector, log.Logger) rather than an inheritance hierarchy.
package ports

import "context"

// KeyValuePair is one entry of a WriteBatch.
type KeyValuePair struct {
	Key   []byte
	Value []byte
}

// KeyValueStore is the pluggable persistent storage port (spec.md §6).
// Keys are namespaced by 2-byte ASCII prefixes ("b:", "h:", "t:", "m:").
// WriteBatch is atomic: either every pair is written or none is.
type KeyValueStore interface {
	Get(ctx context.Context, key []byte) ([]byte, bool, error)
	WriteBatch(ctx context.Context, pairs []KeyValuePair, deletes [][]byte) error
	Delete(ctx context.Context, key []byte) error
	Iterate(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error
	Close() error
}

// NetworkSocket is the opaque transport adapters provide (UDP for discovery,
// QUIC for payloads). The core never depends on a concrete transport.
type NetworkSocket interface {
	Send(ctx context.Context, nodeID [32]byte, data []byte) error
	Recv(ctx context.Context) (nodeID [32]byte, data []byte, err error)
	LocalAddr() string
	Close() error
}

// TimeSource supplies monotonic seconds-since-epoch, injected for testability.
type TimeSource interface {
	NowUnix() uint64
}

// RandomSource supplies bounded randomness, injected for testability.
type RandomSource interface {
	Intn(max int) int
	Shuffle(n int, swap func(i, j int))
}

// KeyProvider returns the per-sender-id HMAC secret used to seal and verify
// bus envelopes (spec.md §4.1).
type KeyProvider interface {
	SecretFor(senderID uint8) ([]byte, bool)
}
