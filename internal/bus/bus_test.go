// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/pkg/wire"
)

type fixedKeys struct {
	secret []byte
}

func (f fixedKeys) SecretFor(senderID uint8) ([]byte, bool) { return f.secret, true }

func newTestBus(t *testing.T, cfg Config, clock *ports.ManualClock) *Bus {
	t.Helper()
	return New(cfg, clock, fixedKeys{secret: []byte("shared-secret")}, nodelog.NewNoOp(), nil)
}

func sealedEnvelope(secret []byte, sender, recipient SubsystemID, nonce uint64, ts uint64) *wire.Envelope {
	env := &wire.Envelope{
		Version:       wire.ProtocolVersion,
		SenderID:      uint8(sender),
		RecipientID:   uint8(recipient),
		TimestampSecs: ts,
		Nonce:         nonce,
	}
	wire.Seal(secret, env)
	return env
}

func TestBusPublishReceiveRoundTrip(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	b := newTestBus(t, DefaultConfig(), clock)

	sub := b.Subscribe(TopicBlockValidated, SubsystemBlockStorage)
	env := sealedEnvelope([]byte("shared-secret"), SubsystemConsensus, SubsystemBlockStorage, 1, clock.NowUnix())
	b.Publish(TopicBlockValidated, env)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := sub.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, env.Nonce, got.Nonce)
}

func TestBusRejectsNonceReplay(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	b := newTestBus(t, DefaultConfig(), clock)

	sub := b.Subscribe(TopicBlockValidated, SubsystemBlockStorage)
	env := sealedEnvelope([]byte("shared-secret"), SubsystemConsensus, SubsystemBlockStorage, 42, clock.NowUnix())

	b.Publish(TopicBlockValidated, env)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	// Same nonce again: must be silently dropped, so Receive times out
	// waiting for a second (never-validated) delivery.
	b.Publish(TopicBlockValidated, env)
	ctx2, cancel2 := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel2()
	_, err = sub.Receive(ctx2)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBusRejectsUnauthorizedSender(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	b := newTestBus(t, DefaultConfig(), clock)

	sub := b.Subscribe(TopicBlockValidated, SubsystemBlockStorage)
	// TopicBlockValidated may only be published by SubsystemConsensus.
	env := sealedEnvelope([]byte("shared-secret"), SubsystemMempool, SubsystemBlockStorage, 7, clock.NowUnix())
	b.Publish(TopicBlockValidated, env)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := sub.Receive(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBusRejectsExpiredMessage(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	cfg := DefaultConfig()
	b := newTestBus(t, cfg, clock)

	sub := b.Subscribe(TopicBlockValidated, SubsystemBlockStorage)
	env := sealedEnvelope([]byte("shared-secret"), SubsystemConsensus, SubsystemBlockStorage, 1, clock.NowUnix())
	clock.Advance(cfg.MaxAgeSecs + 1)
	b.Publish(TopicBlockValidated, env)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := sub.Receive(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBusRejectsBadHMAC(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	b := newTestBus(t, DefaultConfig(), clock)

	sub := b.Subscribe(TopicBlockValidated, SubsystemBlockStorage)
	env := sealedEnvelope([]byte("wrong-secret"), SubsystemConsensus, SubsystemBlockStorage, 1, clock.NowUnix())
	b.Publish(TopicBlockValidated, env)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := sub.Receive(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBusOverflowRoutesToDLQ(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	cfg := DefaultConfig()
	cfg.ChannelCapacity = 1
	b := newTestBus(t, cfg, clock)

	sub := b.Subscribe(TopicBlockValidated, SubsystemBlockStorage)
	dlq := b.Subscribe(TopicDLQ, SubsystemBlockStorage)

	// Fill the subscriber's single slot, then publish a second message that
	// must overflow to the DLQ instead of blocking.
	first := sealedEnvelope([]byte("shared-secret"), SubsystemConsensus, SubsystemBlockStorage, 1, clock.NowUnix())
	second := sealedEnvelope([]byte("shared-secret"), SubsystemConsensus, SubsystemBlockStorage, 2, clock.NowUnix())
	b.Publish(TopicBlockValidated, first)
	b.Publish(TopicBlockValidated, second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	gotDLQ, err := dlq.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, second.Nonce, gotDLQ.Nonce)

	gotFirst, err := sub.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, first.Nonce, gotFirst.Nonce)
}

func TestBusBroadcastRecipientDeliversToAllSelfIDs(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	b := newTestBus(t, DefaultConfig(), clock)

	sub := b.Subscribe(TopicSubmitTransaction, SubsystemSignatureVerify)
	env := sealedEnvelope([]byte("shared-secret"), SubsystemMempool, SubsystemUnknown, 9, clock.NowUnix())
	b.Publish(TopicSubmitTransaction, env)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := sub.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, env.Nonce, got.Nonce)
}

func TestNonceCacheSweepFreesCapacity(t *testing.T) {
	c := NewNonceCache(1, 10)
	require.NoError(t, c.Insert(SubsystemConsensus, 1, 100))
	require.ErrorIs(t, c.Insert(SubsystemConsensus, 2, 105), ErrNonceCacheFull)

	removed := c.Sweep(120)
	require.Equal(t, 1, removed)
	require.NoError(t, c.Insert(SubsystemConsensus, 2, 120))
}
