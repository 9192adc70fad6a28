// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bus

import (
	"crypto/rand"
	"fmt"
)

// secretLen matches the HMAC key size wire.Seal expects.
const secretLen = 32

// StaticKeyProvider is the production ports.KeyProvider: one random secret
// per subsystem, generated once at process start and held only in memory.
// Secrets never leave the process (spec.md §4.1's anti-spoofing is an
// in-process guarantee between subsystems, not a distributed-key scheme).
type StaticKeyProvider struct {
	secrets map[uint8][]byte
}

// NewStaticKeyProvider generates one secret per id in ids.
func NewStaticKeyProvider(ids []SubsystemID) (*StaticKeyProvider, error) {
	p := &StaticKeyProvider{secrets: make(map[uint8][]byte, len(ids))}
	for _, id := range ids {
		secret := make([]byte, secretLen)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("bus: generate secret for subsystem %d: %w", id, err)
		}
		p.secrets[uint8(id)] = secret
	}
	return p, nil
}

func (p *StaticKeyProvider) SecretFor(senderID uint8) ([]byte, bool) {
	s, ok := p.secrets[senderID]
	return s, ok
}
