// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wire implements the authenticated bus envelope: the fixed-field
// wrapper every value published on the Authenticated Event Bus travels in
// (spec.md §4.1). Integers are little-endian; the HMAC covers a fixed field
// prefix, never the payload itself.
package wire

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// ProtocolVersion is the current envelope wire version.
const ProtocolVersion uint16 = 1

// MinVersion and MaxVersion bound the versions this node accepts.
const (
	MinVersion = 1
	MaxVersion = 1
)

// BroadcastRecipient is the recipient_id sentinel meaning "any subsystem".
const BroadcastRecipient uint8 = 0

// CorrelationID is a 128-bit request/response correlator.
type CorrelationID [16]byte

// Envelope is the authenticated wrapper around every bus payload.
type Envelope struct {
	Version       uint16
	CorrelationID CorrelationID
	SenderID      uint8
	RecipientID   uint8 // 0 = broadcast
	TimestampSecs uint64
	Nonce         uint64
	HMAC          [32]byte
	ReplyTo       *ReplyTo
	Payload       []byte // JSON-encoded payload, decoded by the caller
}

// ReplyTo names the topic and subsystem a reply should be published to.
// SubsystemID must equal the envelope's SenderID (anti-forwarding, spec.md
// §4.1 validation step 6).
type ReplyTo struct {
	Topic       string
	SubsystemID uint8
}

// signedPrefix returns the bytes the HMAC is computed over:
// version || correlation_id || sender_id || recipient_id || timestamp || nonce.
func signedPrefix(version uint16, corr CorrelationID, sender, recipient uint8, ts, nonce uint64) []byte {
	buf := make([]byte, 0, 2+16+1+1+8+8)
	var tmp2 [2]byte
	binary.LittleEndian.PutUint16(tmp2[:], version)
	buf = append(buf, tmp2[:]...)
	buf = append(buf, corr[:]...)
	buf = append(buf, sender, recipient)
	var tmp8 [8]byte
	binary.LittleEndian.PutUint64(tmp8[:], ts)
	buf = append(buf, tmp8[:]...)
	binary.LittleEndian.PutUint64(tmp8[:], nonce)
	buf = append(buf, tmp8[:]...)
	return buf
}

// Seal computes the envelope's HMAC tag under the given per-sender secret.
func Seal(secret []byte, e *Envelope) {
	mac := hmac.New(sha256.New, secret)
	mac.Write(signedPrefix(e.Version, e.CorrelationID, e.SenderID, e.RecipientID, e.TimestampSecs, e.Nonce))
	copy(e.HMAC[:], mac.Sum(nil))
}

// VerifyHMAC checks the envelope's tag against the given secret in constant
// time (spec.md §4.1 validation step 5).
func VerifyHMAC(secret []byte, e *Envelope) bool {
	mac := hmac.New(sha256.New, secret)
	mac.Write(signedPrefix(e.Version, e.CorrelationID, e.SenderID, e.RecipientID, e.TimestampSecs, e.Nonce))
	expected := mac.Sum(nil)
	return hmac.Equal(expected, e.HMAC[:])
}

// EncodePayload JSON-encodes v into the envelope's Payload field.
func EncodePayload(e *Envelope, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wire: encode payload: %w", err)
	}
	e.Payload = b
	return nil
}

// DecodePayload JSON-decodes the envelope's Payload field into v.
func DecodePayload(e *Envelope, v interface{}) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("wire: decode payload: %w", err)
	}
	return nil
}
