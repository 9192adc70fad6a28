// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bus

// SubsystemID identifies a publishing/subscribing subsystem for envelope
// authentication and the IPC-matrix (spec.md §2, §4.1). The numbering
// follows the qc-NN crate numbering the spec was distilled from
// (_examples/original_source/_INDEX.md): this repo implements 1,2,3,4,6,8,9,10
// and reserves the rest (block propagation, bloom filters, smart contracts,
// tx ordering, light client, sharding, cross-chain, API gateway) as
// out-of-scope collaborators per spec.md §1.
type SubsystemID uint8

const (
	SubsystemUnknown           SubsystemID = 0 // broadcast recipient sentinel
	SubsystemPeerDiscovery     SubsystemID = 1
	SubsystemBlockStorage      SubsystemID = 2
	SubsystemTransactionIndex  SubsystemID = 3
	SubsystemStateTrie         SubsystemID = 4
	SubsystemBlockPropagation  SubsystemID = 5 // out of scope; reserved
	SubsystemMempool           SubsystemID = 6
	SubsystemBloomFilters      SubsystemID = 7 // out of scope; reserved
	SubsystemConsensus         SubsystemID = 8
	SubsystemFinality          SubsystemID = 9
	SubsystemSignatureVerify   SubsystemID = 10
)
