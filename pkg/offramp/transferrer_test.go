package offramp

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/harbour-fi/ramp-go/pkg/config"
	"github.com/harbour-fi/ramp-go/pkg/testutil"
	"github.com/harbour-fi/ramp-go/pkg/transactionSigner"
	"github.com/harbour-fi/ramp-go/pkg/types"
)

const depositAddress = "0x1111111111111111111111111111111111111111"

func fujiAsset() *types.RampAsset {
	return &types.RampAsset{
		Asset: &types.CryptoAsset{
			AssetID:   "usdc-fuji",
			ShortName: "USDC",
			Name:      "USD Coin",
			Protocol:  types.Protocol_Avax,
			Network:   types.Network_AvaxFuji,
		},
		OffRamp: &types.OffRamp{Address: depositAddress},
	}
}

func newTestTransferrer(t *testing.T, balance *big.Int) (*Transferrer, *testutil.MockEthClient) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	require.NoError(t, err)

	eth := testutil.NewMockEthClient(uint64(config.ChainId_AvaxFuji))
	eth.CallFn = func(call ethereum.CallMsg) ([]byte, error) {
		return parsed.Methods["balanceOf"].Outputs.Pack(balance)
	}

	signer, err := transactionSigner.NewPrivateKeySigner(testutil.TestPrivateKey1, eth, logger)
	require.NoError(t, err)

	tr, err := NewTransferrer(context.Background(), signer, eth, types.Network_AvaxFuji, logger)
	require.NoError(t, err)
	return tr, eth
}

func TestTransferrer_Transfer(t *testing.T) {
	tr, eth := newTestTransferrer(t, big.NewInt(100_000_000))

	receipt, err := tr.Transfer(context.Background(), fujiAsset(), "12.5")
	require.NoError(t, err)
	require.NotNil(t, receipt)

	sent := eth.Sent()
	require.Len(t, sent, 1)
	tx := sent[0]
	assert.Equal(t, config.Networks[types.Network_AvaxFuji].USDCAddress, *tx.To())
	assert.Equal(t, 0, tx.Value().Sign())

	method, err := tr.erc20.MethodById(tx.Data()[:4])
	require.NoError(t, err)
	assert.Equal(t, "transfer", method.Name)

	args, err := method.Inputs.Unpack(tx.Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(depositAddress), args[0])
	assert.Equal(t, big.NewInt(12_500_000), args[1])
}

func TestTransferrer_Balance(t *testing.T) {
	tr, _ := newTestTransferrer(t, big.NewInt(7_250_000))

	balance, err := tr.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7.250000", types.FormatUnits(balance, config.USDCDecimals))
}

func TestTransferrer_Rejects(t *testing.T) {
	tr, eth := newTestTransferrer(t, big.NewInt(1_000_000))

	wrongNetwork := fujiAsset()
	wrongNetwork.Asset.Network = types.Network_PolygonAmoy

	notUSDC := fujiAsset()
	notUSDC.Asset.ShortName = "EURC"

	noOffRamp := fujiAsset()
	noOffRamp.OffRamp = nil

	badAddress := fujiAsset()
	badAddress.OffRamp.Address = "cosmos1abc"

	tests := []struct {
		name   string
		asset  *types.RampAsset
		amount string
		err    error
	}{
		{name: "nil asset", asset: nil, amount: "1", err: ErrUnsupportedAsset},
		{name: "not USDC", asset: notUSDC, amount: "1", err: ErrUnsupportedAsset},
		{name: "wrong network", asset: wrongNetwork, amount: "1", err: ErrWrongNetwork},
		{name: "no off-ramp", asset: noOffRamp, amount: "1", err: ErrNoOffRamp},
		{name: "bad address", asset: badAddress, amount: "1"},
		{name: "not a number", asset: fujiAsset(), amount: "1e6"},
		{name: "too many decimals", asset: fujiAsset(), amount: "1.0000001"},
		{name: "zero", asset: fujiAsset(), amount: "0"},
		{name: "insufficient balance", asset: fujiAsset(), amount: "1.000001", err: ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Transfer(context.Background(), tt.asset, tt.amount)
			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
	assert.Empty(t, eth.Sent())
}

func TestNewTransferrer_ChainMismatch(t *testing.T) {
	logger := zaptest.NewLogger(t)
	eth := testutil.NewMockEthClient(uint64(config.ChainId_PolygonAmoy))
	signer, err := transactionSigner.NewPrivateKeySigner(testutil.TestPrivateKey1, eth, logger)
	require.NoError(t, err)

	_, err = NewTransferrer(context.Background(), signer, eth, types.Network_AvaxFuji, logger)
	require.ErrorContains(t, err, "serves chain 80002")

	_, err = NewTransferrer(context.Background(), signer, eth, types.Network_Unspecified, logger)
	require.Error(t, err)
}
