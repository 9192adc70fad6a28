// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"time"

	busp "github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/pkg/wire"
)

// Run subscribes the assembler to its three join topics plus MarkFinalized,
// and runs the periodic timeout sweep, until ctx is cancelled. It is the
// assembler's event loop, the Go equivalent of spec.md §2's choreography
// diagram for this subsystem.
func (a *Assembler) Run(ctx context.Context, b *busp.Bus) {
	blockValidated := b.Subscribe(busp.TopicBlockValidated, busp.SubsystemBlockStorage)
	merkleRoot := b.Subscribe(busp.TopicMerkleRootComputed, busp.SubsystemBlockStorage)
	stateRoot := b.Subscribe(busp.TopicStateRootComputed, busp.SubsystemBlockStorage)
	markFinalized := b.Subscribe(busp.TopicMarkFinalized, busp.SubsystemBlockStorage)

	go a.loop(ctx, blockValidated, a.decodeAndHandleBlockValidated)
	go a.loop(ctx, merkleRoot, a.decodeAndHandleMerkleRoot)
	go a.loop(ctx, stateRoot, a.decodeAndHandleStateRoot)
	go a.loop(ctx, markFinalized, a.decodeAndHandleMarkFinalized)

	ticker := time.NewTicker(a.cfg.GCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.SweepTimedOut()
		}
	}
}

type subscription interface {
	Receive(ctx context.Context) (*wire.Envelope, error)
}

func (a *Assembler) loop(ctx context.Context, sub subscription, handle func(context.Context, *wire.Envelope) error) {
	for {
		env, err := sub.Receive(ctx)
		if err != nil {
			return
		}
		if err := handle(ctx, env); err != nil && a.log != nil {
			a.log.Warn("storage: handler error", "error", err.Error())
		}
	}
}

func (a *Assembler) decodeAndHandleBlockValidated(ctx context.Context, env *wire.Envelope) error {
	var ev busp.BlockValidated
	if err := wire.DecodePayload(env, &ev); err != nil {
		return err
	}
	return a.HandleBlockValidated(ctx, ev)
}

func (a *Assembler) decodeAndHandleMerkleRoot(ctx context.Context, env *wire.Envelope) error {
	var ev busp.MerkleRootComputed
	if err := wire.DecodePayload(env, &ev); err != nil {
		return err
	}
	return a.HandleMerkleRootComputed(ctx, ev)
}

func (a *Assembler) decodeAndHandleStateRoot(ctx context.Context, env *wire.Envelope) error {
	var ev busp.StateRootComputed
	if err := wire.DecodePayload(env, &ev); err != nil {
		return err
	}
	return a.HandleStateRootComputed(ctx, ev)
}

func (a *Assembler) decodeAndHandleMarkFinalized(ctx context.Context, env *wire.Envelope) error {
	var ev busp.MarkFinalized
	if err := wire.DecodePayload(env, &ev); err != nil {
		return err
	}
	return a.HandleMarkFinalized(ctx, ev.Height)
}
