// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package consensus implements the validator (spec.md §4.3): a zero-trust
// re-validation pipeline every candidate block passes through before it may
// enter the storage pipeline. Grounded on
// _examples/original_source/crates/qc-08-consensus/src/domain/error.rs for
// the error taxonomy and events/{published,consumed}.rs for the event
// shapes, and on the teacher's validators.Manager (stake-keyed validator
// set) and protocol/quasar/epoch.go (epoch-scoped rotation) idioms.
package consensus

import (
	"errors"
	"fmt"
)

// Failure taxonomy, spec.md §4.3 "Failure taxonomy".
var (
	ErrUnsupportedHeaderVersion = errors.New("consensus: unsupported header version")
	ErrExtraDataTooLarge        = errors.New("consensus: extra_data exceeds limit")
	ErrTooManyTransactions      = errors.New("consensus: transactions.len() exceeds max_txs_per_block")
	ErrGasLimitExceeded         = errors.New("consensus: total gas exceeds max_block_gas")
	ErrUnknownParent            = errors.New("consensus: unknown parent")
	ErrInvalidHeight            = errors.New("consensus: height != parent.height + 1")
	ErrInvalidTimestamp         = errors.New("consensus: timestamp <= parent.timestamp")
	ErrFutureTimestamp          = errors.New("consensus: timestamp exceeds clock_skew")
	ErrInvalidProposer          = errors.New("consensus: proposer not in validator set for epoch")
	ErrInvalidSignature         = errors.New("consensus: signature verification failed")
	ErrInsufficientAttestations = errors.New("consensus: attesting stake below 2/3 threshold")
	ErrDuplicateVote            = errors.New("consensus: duplicate validator attestation or vote")
	ErrProposerDidNotAttest     = errors.New("consensus: proposer did not attest its own block")
	ErrUnknownProofKind         = errors.New("consensus: unrecognized validation proof kind")
	ErrMalformedTransaction     = errors.New("consensus: transaction is malformed or unsigned")
)

// StaleBlockError reports a block whose epoch (header height divided by
// epoch_length) is older than the chain's current epoch (spec.md §4.3 "StaleBlock{block_epoch, current_epoch}").
type StaleBlockError struct {
	BlockEpoch   uint64
	CurrentEpoch uint64
}

func (e *StaleBlockError) Error() string {
	return fmt.Sprintf("consensus: stale block (epoch %d < current epoch %d)", e.BlockEpoch, e.CurrentEpoch)
}
