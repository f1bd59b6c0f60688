package types

// Messages of the ramp.v1.RampService. The trailing comment on a field is its
// protobuf field number; MarshalProto/UnmarshalProto in codec.go follow them.

type GetAccountInfoRequest struct{}

type Authentication struct {
	AuthenticationURL string `json:"authenticationUrl"` // 1
}

type GetAccountInfoResultCase string

const (
	GetAccountInfoResultCase_Authentication GetAccountInfoResultCase = "authentication"
	GetAccountInfoResultCase_Account        GetAccountInfoResultCase = "account"
)

// GetAccountInfoResponse carries either an authentication URL, when the user
// still has to onboard or log in, or the account itself.
type GetAccountInfoResponse struct {
	Authentication *Authentication `json:"authentication,omitempty"` // 1
	Account        *Account        `json:"account,omitempty"`        // 2
}

func (r *GetAccountInfoResponse) ResultCase() GetAccountInfoResultCase {
	switch {
	case r.Account != nil:
		return GetAccountInfoResultCase_Account
	case r.Authentication != nil:
		return GetAccountInfoResultCase_Authentication
	default:
		return ""
	}
}

type Account struct {
	// oneof onramp_bank_account: onramp_iban = 1, onramp_scan = 2
	OnrampBankAccount *BankAccount `json:"onrampBankAccount,omitempty"`
	// oneof offramp_bank_account: offramp_iban = 3, offramp_scan = 4
	OfframpBankAccount *BankAccount   `json:"offrampBankAccount,omitempty"`
	Wallets            []*Wallet      `json:"wallets"`      // 5
	CryptoAssets       []*CryptoAsset `json:"cryptoAssets"` // 6
}

// FindWallet returns the whitelisted wallet with the given address, or nil
func (a *Account) FindWallet(address string) *Wallet {
	for _, w := range a.Wallets {
		if equalAddress(w.Address, address) {
			return w
		}
	}
	return nil
}

type CryptoAsset struct {
	AssetID   string   `json:"assetId"`   // 1
	ShortName string   `json:"shortName"` // 2
	Name      string   `json:"name"`      // 3
	Protocol  Protocol `json:"protocol"`  // 4
	Network   Network  `json:"network"`   // 5
}

type OffRamp struct {
	// Address is where the asset has to be sent to be off-ramped
	Address string `json:"address"` // 1
}

type RampAsset struct {
	Asset   *CryptoAsset `json:"asset,omitempty"`   // 1
	OffRamp *OffRamp     `json:"offRamp,omitempty"` // 2
}

type Wallet struct {
	Address  string       `json:"address"`  // 1
	Name     string       `json:"name"`     // 2
	Protocol Protocol     `json:"protocol"` // 3
	Assets   []*RampAsset `json:"assets"`   // 4
}

// FindAsset returns the ramp asset of the wallet with the given asset ID, or nil
func (w *Wallet) FindAsset(assetID string) *RampAsset {
	for _, a := range w.Assets {
		if a.Asset != nil && a.Asset.AssetID == assetID {
			return a
		}
	}
	return nil
}

// WhitelistAddressRequest registers an address the user can on-ramp to. The
// address signature proves the user controls the address.
type WhitelistAddressRequest struct {
	Protocol         Protocol `json:"protocol"`         // 1
	Name             string   `json:"name"`             // 2
	Address          string   `json:"address"`          // 3
	PublicKey        string   `json:"publicKey"`        // 4
	AddressSignature string   `json:"addressSignature"` // 5
}

type WhitelistAddressResponse struct{}

type RemoveAddressRequest struct {
	Protocol Protocol `json:"protocol"` // 1
	Address  string   `json:"address"`  // 2
}

type RemoveAddressResponse struct{}

type SetBankAccountRequest struct {
	// oneof bank_account: iban = 1, scan = 2
	BankAccount *BankAccount `json:"bankAccount"`
}

type SetBankAccountResponse struct {
	Errors []SetBankAccountError `json:"errors"` // 1
}

type AmountCase string

const (
	AmountCase_FiatAsset   AmountCase = "fiatAssetAmount"
	AmountCase_CryptoAsset AmountCase = "cryptoAssetAmount"
)

// Amount is a decimal string in either the fiat or the crypto asset
type Amount struct {
	// oneof amount: fiat_asset_amount = 3, crypto_asset_amount = 4
	Case  AmountCase `json:"case"`
	Value string     `json:"value"`
}

func FiatAmount(value string) *Amount {
	return &Amount{Case: AmountCase_FiatAsset, Value: value}
}

func CryptoAmount(value string) *Amount {
	return &Amount{Case: AmountCase_CryptoAsset, Value: value}
}

type EstimateOnRampFeeRequest struct {
	CryptoAssetID string   `json:"cryptoAssetId"` // 1
	Protocol      Protocol `json:"protocol"`      // 2
	Amount        *Amount  `json:"amount"`
}

type EstimateOffRampFeeRequest struct {
	CryptoAssetID string   `json:"cryptoAssetId"` // 1
	Protocol      Protocol `json:"protocol"`      // 2
	Amount        *Amount  `json:"amount"`
}

// FeeEstimate is the shared shape of both fee estimation responses
type FeeEstimate struct {
	CryptoAssetAmount   string `json:"cryptoAssetAmount"`   // 1
	FiatAssetAmount     string `json:"fiatAssetAmount"`     // 2
	ExchangeRate        string `json:"exchangeRate"`        // 3
	NetworkFeeAmount    string `json:"networkFeeAmount"`    // 4
	ProcessingFeeAmount string `json:"processingFeeAmount"` // 5
}

type EstimateOnRampFeeResponse struct {
	FeeEstimate
}

type EstimateOffRampFeeResponse struct {
	FeeEstimate
}
