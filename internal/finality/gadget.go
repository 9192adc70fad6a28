// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package finality

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

// timeFromUnix converts a ports.TimeSource reading back into a time.Time for
// the circuit breaker's deadline arithmetic.
func timeFromUnix(secs uint64) time.Time {
	return time.Unix(int64(secs), 0)
}

// Gadget is the finality engine (spec.md §4.4). It is the sole producer of
// MarkFinalized and SlashableOffenseDetected.
type Gadget struct {
	cfg        Config
	clock      ports.TimeSource
	verifier   AttestationVerifier
	validators ValidatorSetProvider
	pub        *bus.Publisher
	log        nodelog.Logger

	mu              sync.Mutex
	lat             *lattice
	slashing        *slashingDetector
	breaker         *circuitBreaker
	currentEpoch    uint64
	activeThisEpoch map[types.NodeID]struct{}
	lastFinalized   *types.Checkpoint

	acceptedTotal  prometheus.Counter
	rejectedTotal  *prometheus.CounterVec
	justifiedTotal prometheus.Counter
	finalizedTotal prometheus.Counter
	slashedTotal   prometheus.Counter
}

// New constructs a Gadget. reg may be nil for tests.
func New(cfg Config, clock ports.TimeSource, verifier AttestationVerifier, validators ValidatorSetProvider, pub *bus.Publisher, log nodelog.Logger, reg *metrics.Registry) *Gadget {
	g := &Gadget{
		cfg:             cfg,
		clock:           clock,
		verifier:        verifier,
		validators:      validators,
		pub:             pub,
		log:             log,
		lat:             newLattice(),
		slashing:        newSlashingDetector(cfg.SlashingHistoryPerValidator),
		breaker:         newCircuitBreaker(cfg),
		activeThisEpoch: make(map[types.NodeID]struct{}),
	}
	if reg != nil {
		g.acceptedTotal = reg.Counter("finality", "attestations_accepted_total", "attestations accepted into the lattice")
		g.rejectedTotal = reg.CounterVec("finality", "attestations_rejected_total", "attestations rejected by reason", []string{"reason"})
		g.justifiedTotal = reg.Counter("finality", "checkpoints_justified_total", "checkpoints that reached justification")
		g.finalizedTotal = reg.Counter("finality", "checkpoints_finalized_total", "checkpoints that reached finalization")
		g.slashedTotal = reg.Counter("finality", "slashable_offenses_total", "slashable offenses detected")
	}
	return g
}

func (g *Gadget) reject(reason string) {
	if g.rejectedTotal != nil {
		g.rejectedTotal.WithLabelValues(reason).Inc()
	}
	if g.log != nil {
		g.log.Debug("finality: rejected attestation", "reason", reason)
	}
}

func (g *Gadget) epochLength() uint64 {
	if g.cfg.EpochLength == 0 {
		return 1
	}
	return g.cfg.EpochLength
}

// ProcessAttestations runs spec.md §4.4's attestation processing pipeline
// over one batch. It never returns a partial-batch error: each attestation
// is independently accepted or rejected, and ErrSystemHalted is the only
// whole-batch failure (the circuit breaker stops all progress).
func (g *Gadget) ProcessAttestations(batch bus.AttestationBatch) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.breaker.isHalted() {
		return ErrSystemHalted
	}

	for _, att := range batch.Attestations {
		g.processOne(att)
	}
	return nil
}

func (g *Gadget) processOne(att types.Attestation) {
	pubKey, ok := g.validators.PublicKeyAt(att.TargetEpoch, att.Validator)
	if !ok {
		g.reject("unknown_validator")
		return
	}
	if !g.verifier.VerifyAttestation(att, pubKey) {
		g.reject("invalid_signature")
		return
	}
	if offense, found := g.slashing.check(att); found {
		g.reject("slashable_offense")
		if g.slashedTotal != nil {
			g.slashedTotal.Inc()
		}
		if g.pub != nil {
			_ = g.pub.Publish(bus.TopicSlashableOffenseDetected, bus.SubsystemUnknown, bus.SlashableOffenseDetected{Offense: offense})
		}
		return
	}
	stake, ok := g.validators.StakeAt(att.TargetEpoch, att.Validator)
	if !ok {
		g.reject("unknown_validator")
		return
	}

	g.slashing.record(att)
	g.activeThisEpoch[att.Validator] = struct{}{}
	if g.acceptedTotal != nil {
		g.acceptedTotal.Inc()
	}

	height := att.TargetEpoch * g.epochLength()
	g.lat.getOrCreate(att.TargetEpoch, att.BlockHash, height)
	g.lat.addStake(att.TargetEpoch, att.BlockHash, att.Validator, stake)
	g.lat.recordProof(att.TargetEpoch, att.BlockHash, att)

	g.tryJustify(att.TargetEpoch, att.BlockHash, att.SourceEpoch)
}

// tryJustify checks whether the accumulated stake at (epoch, blockHash)
// clears the supermajority threshold, and if so justifies it and attempts to
// finalize its immediate predecessor (spec.md §4.4 step 3).
func (g *Gadget) tryJustify(epoch uint64, blockHash types.Hash, sourceEpoch uint64) {
	cp := g.lat.get(epoch, blockHash)
	if cp == nil || cp.State != types.CheckpointPending {
		return
	}

	total := g.validators.TotalActiveStakeAt(epoch)
	if total == 0 {
		return
	}
	accumulated := g.lat.accumulatedStake(epoch, blockHash)
	if accumulated*g.cfg.JustificationDenominator < total*g.cfg.JustificationNumerator {
		return
	}

	cp.State = types.CheckpointJustified
	if g.justifiedTotal != nil {
		g.justifiedTotal.Inc()
	}
	g.breaker.onJustified()

	if epoch > g.currentEpoch {
		g.currentEpoch = epoch
	}

	if epoch != sourceEpoch+1 {
		return // not an immediate child; predecessor relationship doesn't apply
	}
	predecessor, ok := g.lat.findJustified(sourceEpoch)
	if !ok || predecessor.State != types.CheckpointJustified {
		return
	}

	predecessor.State = types.CheckpointFinalized
	g.lastFinalized = predecessor
	if g.finalizedTotal != nil {
		g.finalizedTotal.Inc()
	}
	if g.pub != nil {
		_ = g.pub.Publish(bus.TopicMarkFinalized, bus.SubsystemBlockStorage, bus.MarkFinalized{
			Height: predecessor.Height,
			Proof:  g.lat.proofFor(epoch, blockHash),
		})
	}
}

// AdvanceEpoch is called once per epoch boundary (by Run's ticker or an
// external epoch clock) to drive the circuit breaker and the inactivity
// leak: spec.md §4.4's "epochs_without_finality" and "inactive validators ...
// lose stake at inactivity_leak_rate_bps per epoch" both only make sense as
// per-epoch, not per-attestation, bookkeeping.
func (g *Gadget) AdvanceEpoch(epoch uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.NowUnix()
	_, finalizedThisEpoch := g.lat.findJustified(epoch)
	g.breaker.onEpochAdvanced(finalizedThisEpoch && g.lastFinalized != nil && g.lastFinalized.Epoch == epoch, timeFromUnix(now))

	if g.breaker.isInactivityLeakActive() {
		for _, validator := range g.validators.ActiveValidatorsAt(epoch) {
			if _, attested := g.activeThisEpoch[validator]; attested {
				continue
			}
			if g.pub != nil {
				_ = g.pub.Publish(bus.TopicValidatorInactivityPenalty, bus.SubsystemUnknown, bus.ValidatorInactivityPenalty{
					Validator: validator,
					Epoch:     epoch,
					RateBps:   g.cfg.InactivityLeakRateBps,
				})
			}
		}
	}
	g.activeThisEpoch = make(map[types.NodeID]struct{})
}

// Tick lets a timed-out Sync attempt progress toward Halted. Call
// periodically from Run's ticker.
func (g *Gadget) Tick() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.breaker.onSyncTick(timeFromUnix(g.clock.NowUnix()))
}

// IsFinalized reports whether blockHash is the block of the most recently
// finalized checkpoint. Earlier finalized checkpoints and blocks between
// checkpoints are not recognized: for them it returns false.
func (g *Gadget) IsFinalized(blockHash types.Hash) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastFinalized != nil && g.lastFinalized.BlockHash == blockHash
}

// GetLastFinalized returns the most recently finalized checkpoint, if any.
func (g *Gadget) GetLastFinalized() (types.Checkpoint, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lastFinalized == nil {
		return types.Checkpoint{}, false
	}
	return *g.lastFinalized, true
}

// GetState returns the circuit breaker's current phase.
func (g *Gadget) GetState() types.CircuitBreakerPhase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.breaker.phase
}

// ResetFromHalted is the manual operator intervention spec.md §4.4 requires
// to leave the Halted phase; it is never called automatically.
func (g *Gadget) ResetFromHalted() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.breaker.reset()
}

// EpochsWithoutFinality reports the circuit breaker's current streak, for
// monitoring.
func (g *Gadget) EpochsWithoutFinality() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.breaker.epochsWithoutFinal
}
