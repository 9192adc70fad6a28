// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package discovery

import (
	"context"

	"github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/pkg/wire"
)

func (rt *RoutingTable) decodeAndHandleVerifyResult(_ context.Context, env *wire.Envelope) error {
	var ev bus.VerifyNodeIdentityResult
	if err := wire.DecodePayload(env, &ev); err != nil {
		return err
	}
	rt.HandleVerifyNodeIdentityResult(ev)
	return nil
}

func (rt *RoutingTable) decodeAndHandleChallengeResponse(_ context.Context, env *wire.Envelope) error {
	var ev bus.ChallengeResponse
	if err := wire.DecodePayload(env, &ev); err != nil {
		return err
	}
	rt.HandleChallengeResponse(ev)
	return nil
}
