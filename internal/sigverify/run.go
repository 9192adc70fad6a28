// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sigverify

import (
	"context"

	busp "github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/pkg/wire"
)

// Run subscribes the verifier to SubmitTransaction and
// VerifyNodeIdentityRequest until ctx is cancelled, the Go equivalent of
// spec.md §4.9's two event-driven paths.
func (v *Verifier) Run(ctx context.Context, b *busp.Bus) {
	submit := b.Subscribe(busp.TopicSubmitTransaction, busp.SubsystemSignatureVerify)
	identity := b.Subscribe(busp.TopicVerifyNodeIdentityRequest, busp.SubsystemSignatureVerify)

	go v.loop(ctx, submit, v.decodeAndHandleSubmitTransaction)
	go v.loop(ctx, identity, v.decodeAndHandleVerifyNodeIdentityRequest)

	<-ctx.Done()
}

type subscription interface {
	Receive(ctx context.Context) (*wire.Envelope, error)
}

func (v *Verifier) loop(ctx context.Context, sub subscription, handle func(*wire.Envelope) error) {
	for {
		env, err := sub.Receive(ctx)
		if err != nil {
			return
		}
		if err := handle(env); err != nil && v.log != nil {
			v.log.Warn("sigverify: handler error", "error", err.Error())
		}
	}
}

func (v *Verifier) decodeAndHandleSubmitTransaction(env *wire.Envelope) error {
	var ev busp.SubmitTransaction
	if err := wire.DecodePayload(env, &ev); err != nil {
		return err
	}
	return v.HandleSubmitTransaction(ev)
}

func (v *Verifier) decodeAndHandleVerifyNodeIdentityRequest(env *wire.Envelope) error {
	var ev busp.VerifyNodeIdentityRequest
	if err := wire.DecodePayload(env, &ev); err != nil {
		return err
	}
	return v.HandleVerifyNodeIdentityRequest(ev)
}
