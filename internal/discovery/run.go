// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import (
	"context"
	"time"

	busp "github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/pkg/wire"
)

// Run subscribes the routing table to identity-verification replies and
// challenge outcomes, and drives the periodic ban/timeout sweep, following
// internal/storage/run.go's subscribe-loop-plus-ticker pattern.
func (rt *RoutingTable) Run(ctx context.Context, b *busp.Bus) {
	verifyResults := b.Subscribe(busp.TopicVerifyNodeIdentityResult, busp.SubsystemPeerDiscovery)
	go rt.loop(ctx, verifyResults, rt.decodeAndHandleVerifyResult)

	challengeResponses := b.Subscribe(busp.TopicChallengeResponse, busp.SubsystemPeerDiscovery)
	go rt.loop(ctx, challengeResponses, rt.decodeAndHandleChallengeResponse)

	gcTicker := time.NewTicker(rt.cfg.GCInterval)
	defer gcTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-gcTicker.C:
			rt.GC()
		}
	}
}

type subscription interface {
	Receive(ctx context.Context) (*wire.Envelope, error)
}

func (rt *RoutingTable) loop(ctx context.Context, sub subscription, handle func(context.Context, *wire.Envelope) error) {
	for {
		env, err := sub.Receive(ctx)
		if err != nil {
			return
		}
		if err := handle(ctx, env); err != nil && rt.log != nil {
			rt.log.Warn("discovery: handler error", "error", err.Error())
		}
	}
}
