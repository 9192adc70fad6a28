// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bus

import (
	"crypto/rand"
	"fmt"
	"sync/atomic"

	"github.com/luxfi/nodekernel/pkg/wire"
)

// Publisher is the per-subsystem sending side of the bus: it owns the
// monotonic nonce counter spec.md §4.1 requires ("no (sender_id, nonce) pair
// accepted twice") and knows how to seal an envelope under its own secret.
// Every subsystem adapter gets exactly one Publisher, mirroring the
// teacher's one-sender-per-connection pattern in networking/throttling.
type Publisher struct {
	bus    *Bus
	selfID SubsystemID
	nonce  uint64
}

// NewPublisher returns a Publisher bound to selfID.
func (b *Bus) NewPublisher(selfID SubsystemID) *Publisher {
	return &Publisher{bus: b, selfID: selfID}
}

// Publish JSON-encodes payload, seals it under this publisher's secret, and
// hands it to the bus. recipient may be SubsystemUnknown for a broadcast.
func (p *Publisher) Publish(topic Topic, recipient SubsystemID, payload interface{}) error {
	return p.publish(topic, recipient, nil, payload)
}

// PublishReply is like Publish but stamps a ReplyTo so the receiver can
// correlate the response (spec.md §4.1's optional reply-to topic); the
// ReplyTo.SubsystemID is always this publisher's own id, satisfying the
// bus's anti-forwarding check (validation step 6).
func (p *Publisher) PublishReply(topic Topic, recipient SubsystemID, replyTopic Topic, payload interface{}) error {
	reply := &wire.ReplyTo{Topic: string(replyTopic), SubsystemID: uint8(p.selfID)}
	return p.publish(topic, recipient, reply, payload)
}

func (p *Publisher) publish(topic Topic, recipient SubsystemID, reply *wire.ReplyTo, payload interface{}) error {
	secret, ok := p.bus.keys.SecretFor(uint8(p.selfID))
	if !ok {
		return fmt.Errorf("bus: no secret registered for sender %d", p.selfID)
	}

	env := &wire.Envelope{
		Version:       wire.ProtocolVersion,
		SenderID:      uint8(p.selfID),
		RecipientID:   uint8(recipient),
		TimestampSecs: p.bus.clock.NowUnix(),
		Nonce:         atomic.AddUint64(&p.nonce, 1),
		ReplyTo:       reply,
	}
	randomCorrelationID(&env.CorrelationID)

	if err := wire.EncodePayload(env, payload); err != nil {
		return err
	}
	wire.Seal(secret, env)
	p.bus.Publish(topic, env)
	return nil
}

func randomCorrelationID(out *wire.CorrelationID) {
	_, _ = rand.Read(out[:])
}
