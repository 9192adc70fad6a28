// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consensus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/internal/metrics"
	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/pkg/types"
)

// Validator is the consensus validation engine (spec.md §4.3). It is the
// sole producer of BlockValidated and so keeps its own small header cache
// to resolve lineage, rather than calling Block Storage directly — the bus
// choreography has no synchronous cross-subsystem calls.
type Validator struct {
	cfg       Config
	clock     ports.TimeSource
	sigverify SignatureVerifier
	validators *Registry
	pub       *bus.Publisher
	log       nodelog.Logger

	mu           sync.Mutex
	headers      map[types.Hash]types.Header
	currentEpoch uint64

	rejectedTotal  *prometheus.CounterVec
	validatedTotal prometheus.Counter
}

// New constructs a Validator. reg may be nil for tests.
func New(cfg Config, clock ports.TimeSource, sigverify SignatureVerifier, validators *Registry, pub *bus.Publisher, log nodelog.Logger, reg *metrics.Registry) *Validator {
	v := &Validator{
		cfg:        cfg,
		clock:      clock,
		sigverify:  sigverify,
		validators: validators,
		pub:        pub,
		log:        log,
		headers:    make(map[types.Hash]types.Header),
	}
	if reg != nil {
		v.rejectedTotal = reg.CounterVec("consensus", "blocks_rejected_total", "blocks rejected by reason", []string{"reason"})
		v.validatedTotal = reg.Counter("consensus", "blocks_validated_total", "blocks that passed validation")
	}
	return v
}

// SeedGenesis primes the header cache with the genesis header, exempting
// height 0 from the parent-lookup requirement in practice (height 0 is
// already exempt by rule, this just lets height-1 blocks resolve it as a
// parent for timestamp/height lineage checks).
func (v *Validator) SeedGenesis(header types.Header, blockHash types.Hash) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.headers[blockHash] = header
}

func (v *Validator) reject(reason string, err error) error {
	if v.rejectedTotal != nil {
		v.rejectedTotal.WithLabelValues(reason).Inc()
	}
	if v.log != nil {
		v.log.Debug("consensus: rejected block", "reason", reason, "error", err.Error())
	}
	return err
}

// ValidateBlock runs the full validation pipeline (spec.md §4.3) against
// candidate block. On success it records the header, publishes
// BlockValidated, and returns the block's hash.
func (v *Validator) ValidateBlock(block types.Block) (types.Hash, error) {
	if err := v.checkStructural(block); err != nil {
		return types.Hash{}, err
	}

	if err := v.checkLineage(block); err != nil {
		return types.Hash{}, err
	}

	epoch := block.Header.Height / v.epochLength()
	vs, ok := v.validators.At(epoch)
	if !ok {
		return types.Hash{}, v.reject("unknown_epoch", ErrInvalidProposer)
	}

	v.mu.Lock()
	if epoch < v.currentEpoch {
		v.mu.Unlock()
		return types.Hash{}, v.reject("stale_block", &StaleBlockError{BlockEpoch: epoch, CurrentEpoch: v.currentEpoch})
	}
	v.mu.Unlock()

	proposerInfo, ok := vs.Get(block.Header.Proposer)
	if !ok {
		return types.Hash{}, v.reject("invalid_proposer", ErrInvalidProposer)
	}

	blockHash := block.Hash()

	if !v.sigverify.VerifyProposerSignature(proposerInfo.PublicKey, blockHash, block.Header.ProposerSignature) {
		return types.Hash{}, v.reject("invalid_signature", ErrInvalidSignature)
	}

	if err := v.checkQuorum(block.Proof, blockHash, block.Header.Proposer, vs); err != nil {
		return types.Hash{}, err
	}

	if err := v.checkTransactions(block.Transactions); err != nil {
		return types.Hash{}, err
	}

	v.mu.Lock()
	v.headers[blockHash] = block.Header
	if epoch > v.currentEpoch {
		v.currentEpoch = epoch
	}
	v.mu.Unlock()

	if v.validatedTotal != nil {
		v.validatedTotal.Inc()
	}
	if v.pub != nil {
		_ = v.pub.Publish(bus.TopicBlockValidated, bus.SubsystemUnknown, bus.BlockValidated{
			BlockHash:   blockHash,
			Block:       block,
			Proof:       block.Proof,
			ValidatedAt: time.Unix(int64(v.clock.NowUnix()), 0),
		})
	}
	return blockHash, nil
}

func (v *Validator) epochLength() uint64 {
	if v.cfg.EpochLength == 0 {
		return 1
	}
	return v.cfg.EpochLength
}

// checkStructural is spec.md §4.3 step 1.
func (v *Validator) checkStructural(block types.Block) error {
	if len(block.Header.ExtraData) > v.cfg.MaxExtraDataBytes {
		return v.reject("extra_data_too_large", ErrExtraDataTooLarge)
	}
	if len(block.Transactions) > v.cfg.MaxTxsPerBlock {
		return v.reject("too_many_transactions", ErrTooManyTransactions)
	}
	var totalGas uint64
	for _, tx := range block.Transactions {
		totalGas += tx.GasLimit
	}
	if totalGas > v.cfg.MaxBlockGas {
		return v.reject("gas_limit_exceeded", ErrGasLimitExceeded)
	}
	return nil
}

// checkLineage is spec.md §4.3 step 2. Height 0 is exempt from the
// parent-exists requirement.
func (v *Validator) checkLineage(block types.Block) error {
	if block.Header.Height == 0 {
		return nil
	}

	v.mu.Lock()
	parent, ok := v.headers[block.Header.ParentHash]
	v.mu.Unlock()
	if !ok {
		return v.reject("unknown_parent", ErrUnknownParent)
	}
	if block.Header.Height != parent.Height+1 {
		return v.reject("invalid_height", ErrInvalidHeight)
	}
	if !block.Header.Timestamp.After(parent.Timestamp) {
		return v.reject("invalid_timestamp", ErrInvalidTimestamp)
	}
	now := time.Unix(int64(v.clock.NowUnix()), 0)
	skew := block.Header.Timestamp.Sub(now)
	if skew < 0 {
		skew = -skew
	}
	if skew > v.cfg.ClockSkew {
		return v.reject("future_timestamp", ErrFutureTimestamp)
	}
	return nil
}

// checkQuorum is spec.md §4.3 step 5.
func (v *Validator) checkQuorum(proof types.ValidationProof, blockHash types.Hash, proposer types.NodeID, vs *ValidatorSet) error {
	switch proof.Kind {
	case types.ProofPoS:
		return v.checkPoSQuorum(proof.Attestations, blockHash, proposer, vs)
	case types.ProofPBFT:
		return v.checkPBFTQuorum(proof.Votes, blockHash, vs)
	default:
		return v.reject("unknown_proof_kind", ErrUnknownProofKind)
	}
}

func (v *Validator) checkPoSQuorum(attestations []types.Attestation, blockHash types.Hash, proposer types.NodeID, vs *ValidatorSet) error {
	seen := make(map[types.NodeID]struct{}, len(attestations))
	var attestingStake uint64
	proposerAttested := false

	for _, att := range attestations {
		if att.BlockHash != blockHash {
			continue
		}
		if _, dup := seen[att.Validator]; dup {
			return v.reject("duplicate_vote", ErrDuplicateVote)
		}
		info, ok := vs.Get(att.Validator)
		if !ok {
			continue
		}
		if !v.sigverify.VerifyAttestation(att, info.PublicKey) {
			return v.reject("invalid_signature", ErrInvalidSignature)
		}
		seen[att.Validator] = struct{}{}
		attestingStake += info.Stake
		if att.Validator == proposer {
			proposerAttested = true
		}
	}

	if !proposerAttested {
		return v.reject("proposer_did_not_attest", ErrProposerDidNotAttest)
	}
	if vs.TotalStake() == 0 || attestingStake*3 < vs.TotalStake()*2 {
		return v.reject("insufficient_attestations", ErrInsufficientAttestations)
	}
	return nil
}

func (v *Validator) checkPBFTQuorum(votes []types.PBFTVote, blockHash types.Hash, vs *ValidatorSet) error {
	seen := make(map[types.NodeID]struct{}, len(votes))
	for _, vote := range votes {
		if vote.BlockHash != blockHash {
			continue
		}
		if _, dup := seen[vote.Validator]; dup {
			return v.reject("duplicate_vote", ErrDuplicateVote)
		}
		info, ok := vs.Get(vote.Validator)
		if !ok {
			continue
		}
		if !v.sigverify.VerifyVote(vote, info.PublicKey) {
			return v.reject("invalid_signature", ErrInvalidSignature)
		}
		seen[vote.Validator] = struct{}{}
	}

	n := vs.Len()
	f := (n - 1) / 3
	if len(seen) < 2*f+1 {
		return v.reject("insufficient_attestations", ErrInsufficientAttestations)
	}
	return nil
}

// checkTransactions is spec.md §4.3 step 6.
func (v *Validator) checkTransactions(txs []types.Transaction) error {
	for _, tx := range txs {
		if _, err := v.sigverify.RecoverTransactionSigner(tx); err != nil {
			return v.reject("malformed_transaction", ErrMalformedTransaction)
		}
	}
	return nil
}
