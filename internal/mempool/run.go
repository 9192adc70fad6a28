// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

import (
	"context"

	busp "github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/pkg/wire"
)

// Run subscribes the pool to its five input topics until ctx is cancelled:
// the mempool's event loop, the Go equivalent of spec.md §2's choreography
// diagram for this subsystem.
func (p *Pool) Run(ctx context.Context, b *busp.Bus) {
	txVerified := b.Subscribe(busp.TopicTransactionVerified, busp.SubsystemMempool)
	blockValidated := b.Subscribe(busp.TopicBlockValidated, busp.SubsystemMempool)
	blockStored := b.Subscribe(busp.TopicBlockStored, busp.SubsystemMempool)
	assemblyTimeout := b.Subscribe(busp.TopicAssemblyTimeout, busp.SubsystemMempool)
	assemblyEvicted := b.Subscribe(busp.TopicAssemblyEvicted, busp.SubsystemMempool)

	go p.loop(ctx, txVerified, p.decodeAndHandleTransactionVerified)
	go p.loop(ctx, blockValidated, p.decodeAndHandleBlockValidated)
	go p.loop(ctx, blockStored, p.decodeAndHandleBlockStored)
	go p.loop(ctx, assemblyTimeout, p.decodeAndHandleAssemblyTimeout)
	go p.loop(ctx, assemblyEvicted, p.decodeAndHandleAssemblyEvicted)

	<-ctx.Done()
}

type subscription interface {
	Receive(ctx context.Context) (*wire.Envelope, error)
}

func (p *Pool) loop(ctx context.Context, sub subscription, handle func(context.Context, *wire.Envelope) error) {
	for {
		env, err := sub.Receive(ctx)
		if err != nil {
			return
		}
		if err := handle(ctx, env); err != nil && p.log != nil {
			p.log.Warn("mempool: handler error", "error", err.Error())
		}
	}
}

func (p *Pool) decodeAndHandleTransactionVerified(_ context.Context, env *wire.Envelope) error {
	var ev busp.TransactionVerified
	if err := wire.DecodePayload(env, &ev); err != nil {
		return err
	}
	return p.HandleTransactionVerified(ev)
}

func (p *Pool) decodeAndHandleBlockValidated(_ context.Context, env *wire.Envelope) error {
	var ev busp.BlockValidated
	if err := wire.DecodePayload(env, &ev); err != nil {
		return err
	}
	return p.HandleBlockValidated(ev)
}

func (p *Pool) decodeAndHandleBlockStored(_ context.Context, env *wire.Envelope) error {
	var ev busp.BlockStored
	if err := wire.DecodePayload(env, &ev); err != nil {
		return err
	}
	return p.HandleBlockStored(ev)
}

func (p *Pool) decodeAndHandleAssemblyTimeout(_ context.Context, env *wire.Envelope) error {
	var ev busp.AssemblyTimeout
	if err := wire.DecodePayload(env, &ev); err != nil {
		return err
	}
	return p.HandleAssemblyTimeout(ev)
}

func (p *Pool) decodeAndHandleAssemblyEvicted(_ context.Context, env *wire.Envelope) error {
	var ev busp.AssemblyEvicted
	if err := wire.DecodePayload(env, &ev); err != nil {
		return err
	}
	return p.HandleAssemblyEvicted(ev)
}
