package testutil

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEthClient_SendAndReceipt(t *testing.T) {
	ctx := context.Background()
	m := NewMockEthClient(43113)

	key, err := crypto.HexToECDSA(TestPrivateKey1[2:])
	require.NoError(t, err)
	from := AddressForKey(t, TestPrivateKey1)
	to := common.HexToAddress("0x5425890298aed601595a70AB815c96711a31Bc65")

	signer := types.LatestSignerForChainID(m.ChainIDValue)
	tx, err := types.SignNewTx(key, signer, &types.DynamicFeeTx{
		ChainID: m.ChainIDValue, Nonce: 0, GasTipCap: big.NewInt(1), GasFeeCap: big.NewInt(2), Gas: 21000, To: &to,
	})
	require.NoError(t, err)

	_, err = m.TransactionReceipt(ctx, tx.Hash())
	assert.ErrorIs(t, err, ethereum.NotFound)

	require.NoError(t, m.SendTransaction(ctx, tx))
	receipt, err := m.TransactionReceipt(ctx, tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)

	nonce, err := m.PendingNonceAt(ctx, from)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	// replaying the same nonce is rejected
	require.Error(t, m.SendTransaction(ctx, tx))
	assert.Len(t, m.Sent(), 1)
}
