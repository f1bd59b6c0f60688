package transactionSigner

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/harbour-fi/ramp-go/pkg/config"
)

// PrivateKeySigner implements ITransactionSigner with a local private key and
// EIP-1559 transactions
type PrivateKeySigner struct {
	ethClient   EthClient
	logger      *zap.Logger
	chainID     *big.Int
	privateKey  *ecdsa.PrivateKey
	fromAddress common.Address
}

var _ ITransactionSigner = (*PrivateKeySigner)(nil)

type feeEstimate struct {
	gasTipCap *big.Int
	gasFeeCap *big.Int
	baseFee   *big.Int
	gasLimit  uint64
}

func NewPrivateKeySigner(privateKeyHex string, ethClient EthClient, logger *zap.Logger) (*PrivateKeySigner, error) {
	if ethClient == nil {
		return nil, fmt.Errorf("eth client is required")
	}
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	chainID, err := ethClient.ChainID(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	return &PrivateKeySigner{
		ethClient:   ethClient,
		logger:      logger,
		chainID:     chainID,
		privateKey:  privateKey,
		fromAddress: crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

func (pks *PrivateKeySigner) GetFromAddress() common.Address {
	return pks.fromAddress
}

func (pks *PrivateKeySigner) ChainID() *big.Int {
	return new(big.Int).Set(pks.chainID)
}

// GetTransactOpts returns keyed options that only build transactions.
// Sending goes through SignAndSendTransaction so fees are priced here.
func (pks *PrivateKeySigner) GetTransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(pks.privateKey, pks.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	opts.NoSend = true
	return opts, nil
}

func (pks *PrivateKeySigner) EstimateGasPriceAndLimit(ctx context.Context, tx *types.Transaction) (*big.Int, uint64, error) {
	fees, err := pks.estimateFees(ctx, tx)
	if err != nil {
		return nil, 0, err
	}
	return fees.gasFeeCap, fees.gasLimit, nil
}

func (pks *PrivateKeySigner) estimateFees(ctx context.Context, tx *types.Transaction) (*feeEstimate, error) {
	fallbackTipCap, baseFeeMultiplier := gasPolicy(pks.chainID)

	gasTipCap, err := pks.ethClient.SuggestGasTipCap(ctx)
	if err != nil {
		// Not every backend supports eth_maxPriorityFeePerGas
		pks.logger.Sugar().Warnw("Cannot get gasTipCap, using fallback",
			"fallback", fallbackTipCap.String(),
			"error", err,
		)
		gasTipCap = fallbackTipCap
	}

	header, err := pks.ethClient.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest block header: %w", err)
	}
	if header.BaseFee == nil {
		return nil, fmt.Errorf("chain %s does not support EIP-1559", pks.chainID)
	}

	// basefee * multiplier + tip
	gasFeeCap := new(big.Int).Add(
		new(big.Int).Mul(header.BaseFee, big.NewInt(baseFeeMultiplier)),
		gasTipCap,
	)

	gasLimit, err := pks.ethClient.EstimateGas(ctx, ethereum.CallMsg{
		From:      pks.fromAddress,
		To:        tx.To(),
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Value:     tx.Value(),
		Data:      tx.Data(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate gas: %w", err)
	}

	return &feeEstimate{
		gasTipCap: gasTipCap,
		gasFeeCap: gasFeeCap,
		baseFee:   header.BaseFee,
		gasLimit:  addGasBuffer(gasLimit),
	}, nil
}

// SignAndSendTransaction reprices tx with a fresh nonce, signs it and waits
// for the receipt. A reverted transaction is an error.
func (pks *PrivateKeySigner) SignAndSendTransaction(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if tx.To() == nil {
		return nil, fmt.Errorf("contract creation is not supported")
	}

	fees, err := pks.estimateFees(ctx, tx)
	if err != nil {
		return nil, err
	}

	// tx.Nonce() of 0 is indistinguishable from unset, always ask the network
	nonce, err := pks.ethClient.PendingNonceAt(ctx, pks.fromAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	unsigned := types.NewTx(&types.DynamicFeeTx{
		ChainID:   pks.chainID,
		Nonce:     nonce,
		GasTipCap: fees.gasTipCap,
		GasFeeCap: fees.gasFeeCap,
		Gas:       fees.gasLimit,
		To:        tx.To(),
		Value:     tx.Value(),
		Data:      tx.Data(),
	})

	opts, err := pks.GetTransactOpts(ctx)
	if err != nil {
		return nil, err
	}
	signedTx, err := opts.Signer(pks.fromAddress, unsigned)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	pks.logger.Info("SignAndSendTransaction: sending transaction",
		zap.String("to", tx.To().Hex()),
		zap.String("maxPriorityFeePerGas", fees.gasTipCap.String()),
		zap.String("maxFeePerGas", fees.gasFeeCap.String()),
		zap.String("baseFee", fees.baseFee.String()),
		zap.Uint64("gasLimit", fees.gasLimit),
		zap.Uint64("nonce", nonce),
	)

	if err := pks.ethClient.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, pks.ethClient, signedTx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for transaction receipt: %w", err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		pks.logger.Error("SignAndSendTransaction: transaction failed",
			zap.String("txHash", receipt.TxHash.Hex()),
			zap.Uint64("status", receipt.Status),
			zap.Uint64("gasUsed", receipt.GasUsed),
		)
		return nil, fmt.Errorf("transaction %s failed with status %d", receipt.TxHash.Hex(), receipt.Status)
	}

	pks.logger.Info("SignAndSendTransaction: transaction succeeded",
		zap.String("txHash", receipt.TxHash.Hex()),
		zap.Uint64("gasUsed", receipt.GasUsed),
	)
	return receipt, nil
}

// gasPolicy returns the fallback priority fee and base fee multiplier of a chain
func gasPolicy(chainID *big.Int) (*big.Int, int64) {
	switch config.ChainId(chainID.Uint64()) {
	case config.ChainId_EthereumMainnet:
		return big.NewInt(1_500_000_000), 3
	case config.ChainId_PolygonMainnet, config.ChainId_PolygonAmoy:
		// Polygon enforces a 25 gwei minimum tip
		return big.NewInt(25_000_000_000), 2
	default:
		return big.NewInt(1_000_000_000), 2
	}
}

// addGasBuffer adds 20% to an estimated gas limit
func addGasBuffer(gasLimit uint64) uint64 {
	return gasLimit * 12 / 10
}
