// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trie

import (
	"context"

	busp "github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/pkg/wire"
)

// Run subscribes the trie to BlockValidated and ValidatorInactivityPenalty
// until ctx is cancelled: this subsystem's event loop, the Go equivalent of
// spec.md §2's choreography diagram for the state trie.
func (t *StateTrie) Run(ctx context.Context, b *busp.Bus) {
	blockValidated := b.Subscribe(busp.TopicBlockValidated, busp.SubsystemStateTrie)
	inactivity := b.Subscribe(busp.TopicValidatorInactivityPenalty, busp.SubsystemStateTrie)

	go t.loop(ctx, blockValidated, t.decodeAndHandleBlockValidated)
	go t.loop(ctx, inactivity, t.decodeAndHandleInactivityPenalty)

	<-ctx.Done()
}

type subscription interface {
	Receive(ctx context.Context) (*wire.Envelope, error)
}

func (t *StateTrie) loop(ctx context.Context, sub subscription, handle func(context.Context, *wire.Envelope) error) {
	for {
		env, err := sub.Receive(ctx)
		if err != nil {
			return
		}
		if err := handle(ctx, env); err != nil && t.log != nil {
			t.log.Warn("trie: handler error", "error", err.Error())
		}
	}
}

func (t *StateTrie) decodeAndHandleBlockValidated(ctx context.Context, env *wire.Envelope) error {
	var ev busp.BlockValidated
	if err := wire.DecodePayload(env, &ev); err != nil {
		return err
	}
	return t.HandleBlockValidated(ctx, ev)
}

func (t *StateTrie) decodeAndHandleInactivityPenalty(ctx context.Context, env *wire.Envelope) error {
	var ev busp.ValidatorInactivityPenalty
	if err := wire.DecodePayload(env, &ev); err != nil {
		return err
	}
	return t.HandleValidatorInactivityPenalty(ctx, ev)
}
