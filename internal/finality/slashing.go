// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package finality

import "github.com/luxfi/nodekernel/pkg/types"

// slashingDetector keeps a bounded per-validator attestation history and
// flags double-vote / surround-vote offenses (spec.md §4.4 step 1) against
// it. It holds no stake or signature logic of its own.
type slashingDetector struct {
	history    map[types.NodeID][]types.Attestation
	historyCap int
}

func newSlashingDetector(historyCap int) *slashingDetector {
	if historyCap <= 0 {
		historyCap = 16
	}
	return &slashingDetector{history: make(map[types.NodeID][]types.Attestation), historyCap: historyCap}
}

// check compares att against validator's prior attestations. It returns the
// first conflicting offense found, or ok=false if att is clean. It does not
// itself mutate history — callers record on acceptance via record.
func (d *slashingDetector) check(att types.Attestation) (types.SlashableOffense, bool) {
	for _, prior := range d.history[att.Validator] {
		if isDoubleVote(prior, att) {
			return types.SlashableOffense{Validator: att.Validator, Kind: types.OffenseDoubleVote, DetectedEpoch: att.TargetEpoch}, true
		}
		if isSurroundVote(prior, att) {
			return types.SlashableOffense{Validator: att.Validator, Kind: types.OffenseSurroundVote, DetectedEpoch: att.TargetEpoch}, true
		}
	}
	return types.SlashableOffense{}, false
}

// record appends att to validator's history, evicting the oldest entry if
// over capacity.
func (d *slashingDetector) record(att types.Attestation) {
	h := append(d.history[att.Validator], att)
	if len(h) > d.historyCap {
		h = h[len(h)-d.historyCap:]
	}
	d.history[att.Validator] = h
}

// isDoubleVote is spec.md §4.4's "same target_epoch, different
// target_block_hash from same validator".
func isDoubleVote(a, b types.Attestation) bool {
	return a.TargetEpoch == b.TargetEpoch && a.BlockHash != b.BlockHash
}

// isSurroundVote is spec.md §4.4's "one attestation's (source, target)
// interval strictly contains another's": a surrounds b when a started
// earlier and ends later, both strictly.
func isSurroundVote(a, b types.Attestation) bool {
	aSurroundsB := a.SourceEpoch < b.SourceEpoch && a.TargetEpoch > b.TargetEpoch
	bSurroundsA := b.SourceEpoch < a.SourceEpoch && b.TargetEpoch > a.TargetEpoch
	return aSurroundsB || bSurroundsA
}
