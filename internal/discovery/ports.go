// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import "context"

// LivenessChecker performs the out-of-band liveness ping behind the
// eviction-challenge protocol (spec.md §4.6: "ping the least-recently-seen
// incumbent before evicting it"). Production wiring sends the ping over
// ports.NetworkSocket; tests supply a fake that answers deterministically.
type LivenessChecker interface {
	Ping(ctx context.Context, peer PeerInfo) bool
}
