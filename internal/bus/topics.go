// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bus

// Topic names one variant of the BlockchainEvent tagged union (spec.md
// §4.1's "Topics" paragraph): subscribers filter by variant, not by a
// separate routing key.
type Topic string

const (
	TopicApiQuery                   Topic = "api.query"
	TopicBlockValidated             Topic = "block.validated"
	TopicMerkleRootComputed         Topic = "merkle.root_computed"
	TopicStateRootComputed          Topic = "state.root_computed"
	TopicMarkFinalized              Topic = "finality.mark_finalized"
	TopicBlockStored                Topic = "block.stored"
	TopicBlockFinalized             Topic = "block.finalized"
	TopicTransactionVerified        Topic = "tx.verified"
	TopicSubmitTransaction          Topic = "tx.submit"
	TopicVerifyNodeIdentityRequest  Topic = "identity.verify_request"
	TopicVerifyNodeIdentityResult   Topic = "identity.verify_result"
	TopicChallengeResponse          Topic = "peer.challenge_response"
	TopicAssemblyEvicted            Topic = "storage.assembly_evicted"
	TopicAssemblyTimeout            Topic = "storage.assembly_timeout"
	TopicAttestationBatch           Topic = "finality.attestation_batch"
	TopicSlashableOffenseDetected   Topic = "finality.slashable_offense_detected"
	TopicValidatorInactivityPenalty Topic = "finality.inactivity_penalty"

	// TopicDLQ is the Dead Letter Queue topic for messages a slow
	// subscriber could not accept before its bounded channel overflowed.
	TopicDLQ Topic = "dlq.critical"
)

// DefaultChannelCapacity is the default bounded broadcast channel capacity
// per topic, per subscriber (spec.md §4.1, original_source/shared-bus).
const DefaultChannelCapacity = 1000

// ProtocolVersion mirrors wire.ProtocolVersion; kept here too so bus callers
// needn't import pkg/wire just to read it.
const ProtocolVersion = 1
