// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package finality

import (
	"context"
	"time"

	busp "github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/pkg/wire"
)

// Run subscribes the gadget to AttestationBatch and drives its epoch
// ticker until ctx is cancelled: the finality subsystem's event loop, the Go
// equivalent of spec.md §2's choreography diagram for this subsystem.
func (g *Gadget) Run(ctx context.Context, b *busp.Bus) {
	attestations := b.Subscribe(busp.TopicAttestationBatch, busp.SubsystemFinality)
	go g.loop(ctx, attestations, g.decodeAndHandleAttestationBatch)

	epochTicker := time.NewTicker(g.epochTickInterval())
	defer epochTicker.Stop()
	syncTicker := time.NewTicker(g.cfg.SyncAttemptTimeout)
	defer syncTicker.Stop()

	var epoch uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-epochTicker.C:
			g.AdvanceEpoch(epoch)
			epoch++
		case <-syncTicker.C:
			g.Tick()
		}
	}
}

// epochTickInterval is a conservative wall-clock stand-in for "one epoch has
// elapsed" absent a block-height-driven epoch clock; production wiring can
// instead call AdvanceEpoch directly from the block storage subsystem's own
// height-crossing notification.
func (g *Gadget) epochTickInterval() time.Duration {
	return time.Duration(g.epochLength()) * time.Second
}

type subscription interface {
	Receive(ctx context.Context) (*wire.Envelope, error)
}

func (g *Gadget) loop(ctx context.Context, sub subscription, handle func(context.Context, *wire.Envelope) error) {
	for {
		env, err := sub.Receive(ctx)
		if err != nil {
			return
		}
		if err := handle(ctx, env); err != nil && g.log != nil {
			g.log.Warn("finality: handler error", "error", err.Error())
		}
	}
}

func (g *Gadget) decodeAndHandleAttestationBatch(_ context.Context, env *wire.Envelope) error {
	var ev busp.AttestationBatch
	if err := wire.DecodePayload(env, &ev); err != nil {
		return err
	}
	return g.ProcessAttestations(ev)
}
