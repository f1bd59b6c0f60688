package offramp

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/harbour-fi/ramp-go/pkg/config"
	"github.com/harbour-fi/ramp-go/pkg/transactionSigner"
	"github.com/harbour-fi/ramp-go/pkg/types"
)

const erc20ABI = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

var (
	ErrUnsupportedAsset  = errors.New("unsupported asset")
	ErrWrongNetwork      = errors.New("asset is on a different network")
	ErrNoOffRamp         = errors.New("asset has no off-ramp address")
	ErrInsufficientFunds = errors.New("insufficient balance")
)

// Transferrer sends USDC from the signer's wallet to an off-ramp deposit
// address on a single network
type Transferrer struct {
	signer  transactionSigner.ITransactionSigner
	caller  ethereum.ContractCaller
	network *config.NetworkInfo
	erc20   abi.ABI
	logger  *zap.Logger
}

// NewTransferrer checks that the RPC endpoint serves the chain of network
func NewTransferrer(
	ctx context.Context,
	signer transactionSigner.ITransactionSigner,
	ethClient transactionSigner.EthClient,
	network types.Network,
	logger *zap.Logger,
) (*Transferrer, error) {
	if signer == nil || ethClient == nil {
		return nil, fmt.Errorf("signer and eth client are required")
	}
	info, err := config.GetNetworkInfo(network)
	if err != nil {
		return nil, err
	}

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if chainID.Uint64() != uint64(info.ChainID) {
		return nil, fmt.Errorf("RPC endpoint serves chain %s, %s is chain %d", chainID, network, info.ChainID)
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	return &Transferrer{
		signer:  signer,
		caller:  ethClient,
		network: info,
		erc20:   parsed,
		logger:  logger,
	}, nil
}

// Balance returns the USDC balance of the signer in token units
func (t *Transferrer) Balance(ctx context.Context) (*big.Int, error) {
	data, err := t.erc20.Pack("balanceOf", t.signer.GetFromAddress())
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf: %w", err)
	}
	out, err := t.caller.CallContract(ctx, ethereum.CallMsg{
		From: t.signer.GetFromAddress(),
		To:   &t.network.USDCAddress,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf: %w", err)
	}

	values, err := t.erc20.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf: %w", err)
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result %T", values[0])
	}
	return balance, nil
}

// Transfer sends amount (a decimal string) of the ramp asset to its off-ramp
// address and waits for the transaction to be mined
func (t *Transferrer) Transfer(ctx context.Context, asset *types.RampAsset, amount string) (*ethtypes.Receipt, error) {
	to, err := t.validateAsset(asset)
	if err != nil {
		return nil, err
	}

	units, err := types.ParseUnits(amount, config.USDCDecimals)
	if err != nil {
		return nil, err
	}
	if units.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	balance, err := t.Balance(ctx)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(units) < 0 {
		return nil, fmt.Errorf("%w: have %s %s, need %s", ErrInsufficientFunds,
			types.FormatUnits(balance, config.USDCDecimals), asset.Asset.ShortName, amount)
	}

	data, err := t.erc20.Pack("transfer", to, units)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transfer: %w", err)
	}

	t.logger.Sugar().Infow("Transferring to off-ramp",
		"asset", asset.Asset.AssetID,
		"network", t.network.Network.String(),
		"to", to.Hex(),
		"amount", amount,
	)

	tx := ethtypes.NewTx(&ethtypes.DynamicFeeTx{
		To:    &t.network.USDCAddress,
		Value: big.NewInt(0),
		Data:  data,
	})
	return t.signer.SignAndSendTransaction(ctx, tx)
}

func (t *Transferrer) validateAsset(asset *types.RampAsset) (common.Address, error) {
	if asset == nil || asset.Asset == nil {
		return common.Address{}, fmt.Errorf("%w: missing asset", ErrUnsupportedAsset)
	}
	if !strings.EqualFold(asset.Asset.ShortName, "USDC") {
		return common.Address{}, fmt.Errorf("%w: %s", ErrUnsupportedAsset, asset.Asset.ShortName)
	}
	if asset.Asset.Network != t.network.Network {
		return common.Address{}, fmt.Errorf("%w: %s, transferrer is on %s", ErrWrongNetwork, asset.Asset.Network, t.network.Network)
	}
	if asset.OffRamp == nil || asset.OffRamp.Address == "" {
		return common.Address{}, ErrNoOffRamp
	}
	if !common.IsHexAddress(asset.OffRamp.Address) {
		return common.Address{}, fmt.Errorf("invalid off-ramp address %q", asset.OffRamp.Address)
	}
	return common.HexToAddress(asset.OffRamp.Address), nil
}
