package rampServer

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/harbour-fi/ramp-go/pkg/types"
)

type accountRecord struct {
	id      string
	account *types.Account
	// deposit addresses by asset ID; generated once per account
	depositAddresses map[string]string
}

// accountStore keeps accounts in memory, keyed by the signer identity
type accountStore struct {
	mu       sync.RWMutex
	accounts map[string]*accountRecord
	assets   []*types.CryptoAsset
}

func newAccountStore(assets []*types.CryptoAsset) *accountStore {
	return &accountStore{
		accounts: make(map[string]*accountRecord),
		assets:   assets,
	}
}

// newDepositAddress derives a fresh EVM address from a random UUID; nobody
// holds its key, which is fine for a development server
func newDepositAddress() string {
	id := uuid.New()
	return common.BytesToAddress(crypto.Keccak256(id[:])).Hex()
}

func (s *accountStore) onboard(id string, onramp *types.BankAccount) *types.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.accounts[id]; ok {
		return cloneAccount(rec.account)
	}
	rec := &accountRecord{
		id: id,
		account: &types.Account{
			OnrampBankAccount: onramp,
			CryptoAssets:      s.assets,
		},
		depositAddresses: make(map[string]string, len(s.assets)),
	}
	for _, asset := range s.assets {
		rec.depositAddresses[asset.AssetID] = newDepositAddress()
	}
	s.accounts[id] = rec
	return cloneAccount(rec.account)
}

func (s *accountStore) get(id string) (*types.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.accounts[id]
	if !ok {
		return nil, false
	}
	return cloneAccount(rec.account), true
}

// update runs fn on the live account under the write lock
func (s *accountStore) update(id string, fn func(rec *accountRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.accounts[id]
	if !ok {
		return errNotOnboarded()
	}
	return fn(rec)
}

// rampAssets lists the assets of protocol a wallet can ramp, with their deposit addresses
func (rec *accountRecord) rampAssets(protocol types.Protocol) []*types.RampAsset {
	var out []*types.RampAsset
	for _, asset := range rec.account.CryptoAssets {
		if asset.Protocol != protocol {
			continue
		}
		out = append(out, &types.RampAsset{
			Asset:   asset,
			OffRamp: &types.OffRamp{Address: rec.depositAddresses[asset.AssetID]},
		})
	}
	return out
}

func (rec *accountRecord) walletIndex(protocol types.Protocol, address string) int {
	for i, w := range rec.account.Wallets {
		if w.Protocol == protocol && strings.EqualFold(w.Address, address) {
			return i
		}
	}
	return -1
}

// cloneAccount deep copies an account through its wire encoding
func cloneAccount(account *types.Account) *types.Account {
	b, err := account.MarshalProto()
	if err != nil {
		panic(err)
	}
	out := &types.Account{}
	if err := out.UnmarshalProto(b); err != nil {
		panic(err)
	}
	return out
}
