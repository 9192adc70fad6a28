// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bus implements the Authenticated Event Bus (spec.md §4.1): typed
// publish/subscribe within one process, with per-message HMAC authentication
// so a compromised subsystem cannot impersonate another. Grounded on
// _examples/original_source/crates/shared-bus/src/lib.rs (the Rust crate
// this spec's choreography pattern was distilled from) and the teacher's
// networking/router + networking/timeout dispatch idiom.
package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/luxfi/nodekernel/internal/metrics"
	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/pkg/wire"
)

// DefaultMaxAgeSecs is the default envelope validity window (spec.md §4.1).
const DefaultMaxAgeSecs = 60

// Config bounds the bus's resource usage.
type Config struct {
	ChannelCapacity int    `yaml:"channel_capacity"`
	MaxAgeSecs      uint64 `yaml:"max_age_secs"`
	NonceCacheSize  int    `yaml:"nonce_cache_size"`
}

// DefaultConfig returns spec.md's documented defaults.
func DefaultConfig() Config {
	return Config{
		ChannelCapacity: DefaultChannelCapacity,
		MaxAgeSecs:      DefaultMaxAgeSecs,
		NonceCacheSize:  100_000,
	}
}

type hub struct {
	mu   sync.Mutex
	subs []*Subscription
}

// Bus is the in-process authenticated event bus.
type Bus struct {
	cfg   Config
	clock ports.TimeSource
	keys  ports.KeyProvider
	log   nodelog.Logger

	mu    sync.RWMutex
	hubs  map[Topic]*hub
	nonce *NonceCache

	droppedTotal *prometheusCounterVecAdapter
	dlqTotal     *prometheusCounterVecAdapter
}

// prometheusCounterVecAdapter is a tiny indirection so Bus doesn't need to
// import prometheus types directly in its exported surface; it just wraps
// the CounterVec the Registry hands back.
type prometheusCounterVecAdapter struct {
	inc func(labels ...string)
}

func (a *prometheusCounterVecAdapter) Inc(labels ...string) {
	if a == nil || a.inc == nil {
		return
	}
	a.inc(labels...)
}

// New constructs a Bus. reg may be nil, in which case drop/DLQ counters are
// no-ops (useful for lightweight unit tests).
func New(cfg Config, clock ports.TimeSource, keys ports.KeyProvider, log nodelog.Logger, reg *metrics.Registry) *Bus {
	b := &Bus{
		cfg:   cfg,
		clock: clock,
		keys:  keys,
		log:   log,
		hubs:  make(map[Topic]*hub),
		nonce: NewNonceCache(cfg.NonceCacheSize, cfg.MaxAgeSecs+jitterSecs),
	}
	if reg != nil {
		dropped := reg.CounterVec("bus", "dropped_total", "envelopes dropped during validation", []string{"topic", "reason"})
		dlq := reg.CounterVec("bus", "dlq_total", "envelopes routed to the dead letter queue", []string{"topic"})
		b.droppedTotal = &prometheusCounterVecAdapter{inc: func(labels ...string) { dropped.WithLabelValues(labels...).Inc() }}
		b.dlqTotal = &prometheusCounterVecAdapter{inc: func(labels ...string) { dlq.WithLabelValues(labels...).Inc() }}
	}
	return b
}

// jitterSecs pads the nonce cache retention beyond max_age so a message that
// arrives right at the edge of the validity window is still replay-checked
// for a little while after it expires (spec.md §4.1 "Nonce cache").
const jitterSecs = 5

func (b *Bus) getHub(topic Topic) *hub {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := b.hubs[topic]
	if !ok {
		h = &hub{}
		b.hubs[topic] = h
	}
	return h
}

// Publish enqueues env onto topic for every current subscriber. It never
// blocks beyond the channel bound: a subscriber whose queue is full has the
// message routed to the Dead Letter Queue topic instead (spec.md §4.1
// "Delivery semantics").
func (b *Bus) Publish(topic Topic, env *wire.Envelope) {
	h := b.getHub(topic)
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		select {
		case sub.ch <- env:
		default:
			b.routeToDLQ(topic, env)
		}
	}
}

func (b *Bus) routeToDLQ(topic Topic, env *wire.Envelope) {
	b.dlqTotal.Inc(string(topic))
	dlqHub := b.getHub(TopicDLQ)
	dlqHub.mu.Lock()
	defer dlqHub.mu.Unlock()
	for _, sub := range dlqHub.subs {
		select {
		case sub.ch <- env:
		default:
			// DLQ itself is full: nothing more we can do without blocking
			// the publisher, which spec.md forbids.
		}
	}
	if b.log != nil {
		b.log.Warn("bus: routed message to DLQ", "topic", string(topic))
	}
}

// Subscription is a bounded, per-topic, per-subscriber FIFO queue.
type Subscription struct {
	bus    *Bus
	topic  Topic
	selfID SubsystemID
	ch     chan *wire.Envelope
}

// Subscribe registers selfID as a listener on topic and returns a
// Subscription. Ordering is preserved within this topic for this subscriber
// (spec.md §5 "Ordering guarantees").
func (b *Bus) Subscribe(topic Topic, selfID SubsystemID) *Subscription {
	sub := &Subscription{
		bus:    b,
		topic:  topic,
		selfID: selfID,
		ch:     make(chan *wire.Envelope, b.cfg.ChannelCapacity),
	}
	h := b.getHub(topic)
	h.mu.Lock()
	h.subs = append(h.subs, sub)
	h.mu.Unlock()
	return sub
}

// Receive blocks until a validated envelope is available, ctx is cancelled,
// or it returns the first delivery error. Invalid envelopes (steps 1-7 of
// spec.md §4.1) are silently dropped and counted; Receive keeps pulling
// until a valid message arrives so callers never observe the drop directly.
func (s *Subscription) Receive(ctx context.Context) (*wire.Envelope, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case env, ok := <-s.ch:
			if !ok {
				return nil, fmt.Errorf("bus: subscription closed")
			}
			if err := s.bus.validate(s.topic, s.selfID, env); err != nil {
				continue
			}
			return env, nil
		}
	}
}

// validate runs the fail-fast, cheap-first validation order of spec.md
// §4.1: version, recipient, timestamp window, nonce replay, HMAC, reply-to
// anti-forwarding, then the IPC-matrix sender check.
func (b *Bus) validate(topic Topic, selfID SubsystemID, env *wire.Envelope) error {
	reason := ""
	defer func() {
		if reason != "" {
			b.droppedTotal.Inc(string(topic), reason)
			if b.log != nil {
				b.log.Debug("bus: dropped envelope", "topic", string(topic), "reason", reason)
			}
		}
	}()

	if env.Version < wire.MinVersion || env.Version > wire.MaxVersion {
		reason = "unsupported_version"
		return ErrUnsupportedVersion
	}

	if env.RecipientID != uint8(selfID) && env.RecipientID != uint8(wire.BroadcastRecipient) {
		reason = "wrong_recipient"
		return ErrWrongRecipient
	}

	now := b.clock.NowUnix()
	if env.TimestampSecs > now {
		reason = "future_timestamp"
		return ErrFutureTimestamp
	}
	if now-env.TimestampSecs > b.cfg.MaxAgeSecs {
		reason = "message_expired"
		return ErrMessageExpired
	}

	sender := SubsystemID(env.SenderID)
	if err := b.nonce.Insert(sender, env.Nonce, now); err != nil {
		reason = "nonce_reused"
		return err
	}

	secret, ok := b.keys.SecretFor(env.SenderID)
	if !ok || !wire.VerifyHMAC(secret, env) {
		reason = "invalid_signature"
		return ErrInvalidSignature
	}

	if env.ReplyTo != nil && env.ReplyTo.SubsystemID != env.SenderID {
		reason = "reply_to_mismatch"
		return ErrReplyToMismatch
	}

	if !allowed(topic, sender) {
		reason = "unauthorized_sender"
		return ErrUnauthorizedSender
	}

	return nil
}

// SweepNonces removes nonce cache entries older than the validity window
// plus jitter. No task in this repository calls it on a timer; expired
// entries are otherwise removed only when NonceCache.Insert finds the cache
// full.
func (b *Bus) SweepNonces() int {
	return b.nonce.Sweep(b.clock.NowUnix())
}
