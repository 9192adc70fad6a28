// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package txindex

import (
	"context"

	busp "github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/pkg/wire"
)

// Run subscribes the index to BlockValidated until ctx is cancelled: this
// subsystem's event loop, the Go equivalent of spec.md §2's choreography
// diagram for the transaction index.
func (idx *Index) Run(ctx context.Context, b *busp.Bus) {
	blockValidated := b.Subscribe(busp.TopicBlockValidated, busp.SubsystemTransactionIndex)

	go idx.loop(ctx, blockValidated, idx.decodeAndHandleBlockValidated)

	<-ctx.Done()
}

type subscription interface {
	Receive(ctx context.Context) (*wire.Envelope, error)
}

func (idx *Index) loop(ctx context.Context, sub subscription, handle func(context.Context, *wire.Envelope) error) {
	for {
		env, err := sub.Receive(ctx)
		if err != nil {
			return
		}
		if err := handle(ctx, env); err != nil && idx.log != nil {
			idx.log.Warn("txindex: handler error", "error", err.Error())
		}
	}
}

func (idx *Index) decodeAndHandleBlockValidated(ctx context.Context, env *wire.Envelope) error {
	var ev busp.BlockValidated
	if err := wire.DecodePayload(env, &ev); err != nil {
		return err
	}
	return idx.HandleBlockValidated(ctx, ev)
}
