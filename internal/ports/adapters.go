// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ports

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"time"
)

// SystemClock is the production TimeSource backed by the OS clock.
type SystemClock struct{}

func (SystemClock) NowUnix() uint64 { return uint64(time.Now().Unix()) }

// ManualClock is a deterministic TimeSource for tests: it only advances when
// told to, matching spec.md's "tests use deterministic sources" requirement.
type ManualClock struct {
	now uint64
}

func NewManualClock(start uint64) *ManualClock { return &ManualClock{now: start} }

func (c *ManualClock) NowUnix() uint64 { return c.now }

func (c *ManualClock) Advance(secs uint64) { c.now += secs }

func (c *ManualClock) Set(now uint64) { c.now = now }

// OSRandom is the production RandomSource: Intn draws from crypto/rand,
// Shuffle uses math/rand's global source.
type OSRandom struct{}

func (OSRandom) Intn(max int) int {
	if max <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		// crypto/rand failure is a fatal platform condition, not a domain
		// error; fall back to a non-cryptographic source rather than panic.
		return mrand.Intn(max)
	}
	return int(n.Int64())
}

func (OSRandom) Shuffle(n int, swap func(i, j int)) {
	mrand.Shuffle(n, swap)
}

// DeterministicRandom is a seeded RandomSource for reproducible tests.
type DeterministicRandom struct {
	r *mrand.Rand
}

func NewDeterministicRandom(seed int64) *DeterministicRandom {
	return &DeterministicRandom{r: mrand.New(mrand.NewSource(seed))}
}

func (d *DeterministicRandom) Intn(max int) int {
	if max <= 0 {
		return 0
	}
	return d.r.Intn(max)
}

func (d *DeterministicRandom) Shuffle(n int, swap func(i, j int)) {
	d.r.Shuffle(n, swap)
}
