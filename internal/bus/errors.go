// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bus

import "errors"

// Envelope validation errors, spec.md §7 "Envelope" error kinds.
var (
	ErrUnsupportedVersion = errors.New("bus: unsupported version")
	ErrMessageExpired     = errors.New("bus: message expired")
	ErrFutureTimestamp    = errors.New("bus: future timestamp")
	ErrInvalidSignature   = errors.New("bus: invalid signature")
	ErrUnauthorizedSender = errors.New("bus: unauthorized sender")
	ErrReplyToMismatch    = errors.New("bus: reply-to subsystem mismatch")
	ErrWrongRecipient     = errors.New("bus: wrong recipient")
)
