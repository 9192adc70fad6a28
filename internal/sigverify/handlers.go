// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sigverify

import (
	"github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/pkg/types"
)

// HandleSubmitTransaction is spec.md §4.9's mempool ingress path: verify the
// transaction's signature, compute its canonical hash, and publish
// TransactionVerified for the mempool to admit. A signature that fails
// verification is silently dropped — the sender gets no reply, mirroring
// the teacher's "bad gossip is just discarded" posture at trust boundaries.
func (v *Verifier) HandleSubmitTransaction(ev bus.SubmitTransaction) error {
	signer, err := v.RecoverTransactionSigner(ev.Tx)
	if err != nil {
		if v.log != nil {
			v.log.Debug("sigverify: dropped unverifiable transaction", "error", err.Error())
		}
		return nil
	}
	verified := types.VerifiedTransaction{
		Transaction: ev.Tx,
		TxHash:      ev.Tx.SigningHash(),
		Signer:      signer,
	}
	if v.pub == nil {
		return nil
	}
	return v.pub.Publish(bus.TopicTransactionVerified, bus.SubsystemMempool, bus.TransactionVerified{Tx: verified})
}

// HandleVerifyNodeIdentityRequest is spec.md §4.9's identity verification
// path: check req's signature over node_id under claimed_pubkey and reply
// with the outcome. The IPC-matrix already restricts who may send this
// request (Peer Discovery) and who may publish the reply (this subsystem);
// this handler only has to answer truthfully.
func (v *Verifier) HandleVerifyNodeIdentityRequest(req bus.VerifyNodeIdentityRequest) error {
	valid := v.VerifyNodeIdentity(req.NodeID, req.ClaimedPubKey, req.Signature)
	if v.pub == nil {
		return nil
	}
	return v.pub.Publish(bus.TopicVerifyNodeIdentityResult, bus.SubsystemPeerDiscovery, bus.VerifyNodeIdentityResult{
		NodeID: req.NodeID,
		Valid:  valid,
	})
}
