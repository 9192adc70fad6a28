// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bus

// ipcMatrix maps each topic to the set of subsystems permitted to publish
// it. Publishing from any other sender fails validation step 7
// (UnauthorizedSender), mirroring spec.md §4.1's "IPC-matrix check".
var ipcMatrix = map[Topic]map[SubsystemID]struct{}{
	TopicBlockValidated:            {SubsystemConsensus: {}},
	TopicMerkleRootComputed:        {SubsystemTransactionIndex: {}},
	TopicStateRootComputed:         {SubsystemStateTrie: {}},
	TopicMarkFinalized:             {SubsystemFinality: {}},
	TopicAttestationBatch:          {SubsystemConsensus: {}},
	TopicSlashableOffenseDetected:  {SubsystemFinality: {}},
	TopicValidatorInactivityPenalty: {SubsystemFinality: {}},
	TopicBlockStored:               {SubsystemBlockStorage: {}},
	TopicBlockFinalized:            {SubsystemBlockStorage: {}},
	TopicAssemblyEvicted:           {SubsystemBlockStorage: {}},
	TopicAssemblyTimeout:           {SubsystemBlockStorage: {}},
	TopicTransactionVerified:       {SubsystemSignatureVerify: {}},
	TopicVerifyNodeIdentityRequest: {SubsystemPeerDiscovery: {}},
	TopicVerifyNodeIdentityResult:  {SubsystemSignatureVerify: {}},
	TopicChallengeResponse:         {SubsystemPeerDiscovery: {}},
	// TopicSubmitTransaction and TopicApiQuery are external-ingress topics:
	// any subsystem (including adapters acting on behalf of clients) may
	// publish them, so they carry no entry here (allowAny).
}

// allowed reports whether sender may publish to topic. Topics with no
// explicit matrix entry permit any sender (external-ingress topics).
func allowed(topic Topic, sender SubsystemID) bool {
	set, ok := ipcMatrix[topic]
	if !ok {
		return true
	}
	_, ok = set[sender]
	return ok
}
