// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import "context"

// AlwaysAliveLivenessChecker is the LivenessChecker used when no real
// transport adapter is wired: this node kernel never dials a peer itself — a
// real deployment supplies its own LivenessChecker over whatever
// NetworkSocket it wires in. This stand-in never evicts an incumbent on a
// liveness check, which is the conservative choice (prefer keeping a
// possibly-stale peer over wrongly evicting a live one with no way to verify).
type AlwaysAliveLivenessChecker struct{}

func (AlwaysAliveLivenessChecker) Ping(ctx context.Context, peer PeerInfo) bool {
	return true
}
