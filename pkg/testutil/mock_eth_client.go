package testutil

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// MockEthClient is an in-memory stand-in for ethclient.Client. Sent
// transactions are checked for a valid sender signature and mined at once.
type MockEthClient struct {
	mu sync.Mutex

	ChainIDValue *big.Int
	BaseFee      *big.Int
	TipCap       *big.Int
	TipCapErr    error
	GasEstimate  uint64
	EstimateErr  error
	SendErr      error

	// ReceiptStatus is the status every mined transaction gets
	ReceiptStatus uint64

	// CallFn answers eth_call
	CallFn func(call ethereum.CallMsg) ([]byte, error)

	nonces   map[common.Address]uint64
	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt
}

// NewMockEthClient returns a client for chainID with a 1 gwei base fee
func NewMockEthClient(chainID uint64) *MockEthClient {
	return &MockEthClient{
		ChainIDValue:  new(big.Int).SetUint64(chainID),
		BaseFee:       big.NewInt(1_000_000_000),
		TipCap:        big.NewInt(2_000_000_000),
		GasEstimate:   50_000,
		ReceiptStatus: types.ReceiptStatusSuccessful,
		nonces:        map[common.Address]uint64{},
		receipts:      map[common.Hash]*types.Receipt{},
	}
}

// Sent returns the transactions sent so far
func (m *MockEthClient) Sent() []*types.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*types.Transaction(nil), m.sent...)
}

func (m *MockEthClient) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(m.ChainIDValue), nil
}

func (m *MockEthClient) SuggestGasTipCap(context.Context) (*big.Int, error) {
	if m.TipCapErr != nil {
		return nil, m.TipCapErr
	}
	return new(big.Int).Set(m.TipCap), nil
}

func (m *MockEthClient) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &types.Header{
		Number:  big.NewInt(int64(len(m.sent) + 1)),
		BaseFee: m.BaseFee,
	}, nil
}

func (m *MockEthClient) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	if m.EstimateErr != nil {
		return 0, m.EstimateErr
	}
	return m.GasEstimate, nil
}

func (m *MockEthClient) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nonces[account], nil
}

func (m *MockEthClient) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	from, err := types.Sender(types.LatestSignerForChainID(m.ChainIDValue), tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if tx.Nonce() != m.nonces[from] {
		return fmt.Errorf("nonce too low: have %d, want %d", tx.Nonce(), m.nonces[from])
	}
	m.nonces[from]++
	m.sent = append(m.sent, tx)
	m.receipts[tx.Hash()] = &types.Receipt{
		Type:        tx.Type(),
		Status:      m.ReceiptStatus,
		TxHash:      tx.Hash(),
		GasUsed:     tx.Gas(),
		BlockNumber: big.NewInt(int64(len(m.sent))),
	}
	return nil
}

func (m *MockEthClient) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if m.CallFn == nil {
		return nil, nil
	}
	return m.CallFn(call)
}

func (m *MockEthClient) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	receipt, ok := m.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (m *MockEthClient) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}
