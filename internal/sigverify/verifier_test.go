// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sigverify

import (
	"context"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"

	busp "github.com/luxfi/nodekernel/internal/bus"
	"github.com/luxfi/nodekernel/internal/nodelog"
	"github.com/luxfi/nodekernel/internal/ports"
	"github.com/luxfi/nodekernel/pkg/types"
	"github.com/luxfi/nodekernel/pkg/wire"
)

type fixedKeys struct{ secret []byte }

func (f fixedKeys) SecretFor(uint8) ([]byte, bool) { return f.secret, true }

func newTransaction(t *testing.T, priv *secp256k1.PrivateKey, nonce uint64) types.Transaction {
	t.Helper()
	tx := types.Transaction{
		Sender:   addressFromPublicKey(priv.PubKey()),
		Value:    10,
		Nonce:    nonce,
		GasPrice: 1,
		GasLimit: 21000,
	}
	tx.Signature = signCompact(t, priv, tx.SigningHash())
	return tx
}

func TestRecoverTransactionSignerAccepts(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	tx := newTransaction(t, priv, 1)

	v := New(nodelog.NewNoOp(), nil, nil)
	addr, err := v.RecoverTransactionSigner(tx)
	require.NoError(t, err)
	require.Equal(t, tx.Sender, addr)
}

func TestRecoverTransactionSignerRejectsSpoofedSender(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	tx := newTransaction(t, priv, 1)
	tx.Sender = types.Address{0xFF} // claims a sender the signature doesn't back

	v := New(nodelog.NewNoOp(), nil, nil)
	_, err = v.RecoverTransactionSigner(tx)
	require.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestHandleSubmitTransactionPublishesVerified(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	keys := fixedKeys{secret: []byte("s")}
	b := busp.New(busp.DefaultConfig(), clock, keys, nodelog.NewNoOp(), nil)
	pub := b.NewPublisher(busp.SubsystemSignatureVerify)
	v := New(nodelog.NewNoOp(), pub, nil)

	sub := b.Subscribe(busp.TopicTransactionVerified, busp.SubsystemMempool)

	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	tx := newTransaction(t, priv, 7)

	require.NoError(t, v.HandleSubmitTransaction(busp.SubmitTransaction{Tx: tx}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	env, err := sub.Receive(ctx)
	require.NoError(t, err)

	var ev busp.TransactionVerified
	require.NoError(t, wire.DecodePayload(env, &ev))
	require.Equal(t, tx.Sender, ev.Tx.Signer)
	require.Equal(t, tx.SigningHash(), ev.Tx.TxHash)
}

func TestHandleSubmitTransactionDropsUnverifiable(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	keys := fixedKeys{secret: []byte("s")}
	b := busp.New(busp.DefaultConfig(), clock, keys, nodelog.NewNoOp(), nil)
	pub := b.NewPublisher(busp.SubsystemSignatureVerify)
	v := New(nodelog.NewNoOp(), pub, nil)

	sub := b.Subscribe(busp.TopicTransactionVerified, busp.SubsystemMempool)

	tx := types.Transaction{Sender: types.Address{0x01}} // zero signature, unrecoverable
	require.NoError(t, v.HandleSubmitTransaction(busp.SubmitTransaction{Tx: tx}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := sub.Receive(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHandleVerifyNodeIdentityRequestRoundTrip(t *testing.T) {
	clock := ports.NewManualClock(1_000)
	keys := fixedKeys{secret: []byte("s")}
	b := busp.New(busp.DefaultConfig(), clock, keys, nodelog.NewNoOp(), nil)
	pub := b.NewPublisher(busp.SubsystemSignatureVerify)
	v := New(nodelog.NewNoOp(), pub, nil)

	sub := b.Subscribe(busp.TopicVerifyNodeIdentityResult, busp.SubsystemPeerDiscovery)

	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	nodeID := types.NodeID{9, 9, 9}
	sig := signCompact(t, priv, types.Keccak256(nodeID[:]))
	raw := make([]byte, 65)
	copy(raw[0:32], sig.R[:])
	copy(raw[32:64], sig.S[:])
	raw[64] = sig.V

	req := busp.VerifyNodeIdentityRequest{
		NodeID:        nodeID,
		ClaimedPubKey: priv.PubKey().SerializeUncompressed(),
		Signature:     raw,
	}
	require.NoError(t, v.HandleVerifyNodeIdentityRequest(req))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	env, err := sub.Receive(ctx)
	require.NoError(t, err)

	var ev busp.VerifyNodeIdentityResult
	require.NoError(t, wire.DecodePayload(env, &ev))
	require.Equal(t, nodeID, ev.NodeID)
	require.True(t, ev.Valid)
}
