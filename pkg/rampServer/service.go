package rampServer

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/ethereum/go-ethereum/common"

	"github.com/harbour-fi/ramp-go/pkg/types"
	"github.com/harbour-fi/ramp-go/pkg/verifier"
	"github.com/harbour-fi/ramp-go/pkg/wire"
)

const notOnboardedMessage = "account is not onboarded"

func errNotOnboarded() error {
	return wire.Errorf(connect.CodeFailedPrecondition, notOnboardedMessage)
}

const defaultCurrency = "EUR"

func identity(ctx context.Context) (*verifier.Identity, error) {
	id, ok := verifier.IdentityFromContext(ctx)
	if !ok {
		return nil, wire.Errorf(connect.CodeUnauthenticated, "request is not signed")
	}
	return id, nil
}

func (s *Server) GetAccountInfo(ctx context.Context, _ *types.GetAccountInfoRequest) (*types.GetAccountInfoResponse, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	account, ok := s.accounts.get(id.ID)
	if !ok && s.config.AutoOnboard {
		account = s.Onboard(id.ID, defaultOnrampAccount())
		ok = true
	}
	if !ok {
		return &types.GetAccountInfoResponse{
			Authentication: &types.Authentication{AuthenticationURL: s.config.AuthenticationURL + "?key=" + id.ID},
		}, nil
	}
	return &types.GetAccountInfoResponse{Account: account}, nil
}

func (s *Server) WhitelistAddress(ctx context.Context, req *types.WhitelistAddressRequest) (*types.WhitelistAddressResponse, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	if !req.Protocol.IsEVM() {
		return nil, wire.Errorf(connect.CodeUnimplemented, "whitelisting %s addresses is not supported", req.Protocol)
	}
	if err := verifier.VerifyAddressOwnership(req.Address, req.PublicKey, req.AddressSignature); err != nil {
		return nil, wire.Errorf(connect.CodePermissionDenied, "address ownership not proven: %v", err)
	}

	address := common.HexToAddress(req.Address).Hex()
	err = s.accounts.update(id.ID, func(rec *accountRecord) error {
		if rec.walletIndex(req.Protocol, address) >= 0 {
			return wire.Errorf(connect.CodeAlreadyExists, "address %s is already whitelisted", address)
		}
		rec.account.Wallets = append(rec.account.Wallets, &types.Wallet{
			Address:  address,
			Name:     req.Name,
			Protocol: req.Protocol,
			Assets:   rec.rampAssets(req.Protocol),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Sugar().Infow("Whitelisted address", "account", id.ID, "protocol", req.Protocol, "address", address)
	return &types.WhitelistAddressResponse{}, nil
}

func (s *Server) RemoveAddress(ctx context.Context, req *types.RemoveAddressRequest) (*types.RemoveAddressResponse, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	err = s.accounts.update(id.ID, func(rec *accountRecord) error {
		i := rec.walletIndex(req.Protocol, req.Address)
		if i < 0 {
			return wire.Errorf(connect.CodeNotFound, "address %s is not whitelisted", req.Address)
		}
		rec.account.Wallets = append(rec.account.Wallets[:i], rec.account.Wallets[i+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Sugar().Infow("Removed address", "account", id.ID, "protocol", req.Protocol, "address", req.Address)
	return &types.RemoveAddressResponse{}, nil
}

// SetBankAccount answers validation failures in the response, leaving the
// account unchanged
func (s *Server) SetBankAccount(ctx context.Context, req *types.SetBankAccountRequest) (*types.SetBankAccountResponse, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, err
	}
	if req.BankAccount == nil {
		return nil, wire.Errorf(connect.CodeInvalidArgument, "bank account is required")
	}
	if errs := req.BankAccount.Validate(); len(errs) > 0 {
		return &types.SetBankAccountResponse{Errors: errs}, nil
	}

	account := normalizeBankAccount(req.BankAccount)
	err = s.accounts.update(id.ID, func(rec *accountRecord) error {
		rec.account.OfframpBankAccount = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Sugar().Infow("Set offramp bank account", "account", id.ID, "bank_account", account.String())
	return &types.SetBankAccountResponse{}, nil
}

func (s *Server) EstimateOnRampFee(ctx context.Context, req *types.EstimateOnRampFeeRequest) (*types.EstimateOnRampFeeResponse, error) {
	asset, currency, err := s.feeContext(ctx, req.CryptoAssetID, req.Protocol)
	if err != nil {
		return nil, err
	}
	estimate, err := s.fees.EstimateOnRamp(currency, asset, req.Amount)
	if err != nil {
		return nil, err
	}
	return &types.EstimateOnRampFeeResponse{FeeEstimate: *estimate}, nil
}

func (s *Server) EstimateOffRampFee(ctx context.Context, req *types.EstimateOffRampFeeRequest) (*types.EstimateOffRampFeeResponse, error) {
	asset, currency, err := s.feeContext(ctx, req.CryptoAssetID, req.Protocol)
	if err != nil {
		return nil, err
	}
	estimate, err := s.fees.EstimateOffRamp(currency, asset, req.Amount)
	if err != nil {
		return nil, err
	}
	return &types.EstimateOffRampFeeResponse{FeeEstimate: *estimate}, nil
}

// feeContext resolves the asset being priced and the fiat currency of the
// caller's ramp bank account. Callers without an account are quoted in EUR.
func (s *Server) feeContext(ctx context.Context, assetID string, protocol types.Protocol) (*types.CryptoAsset, string, error) {
	id, err := identity(ctx)
	if err != nil {
		return nil, "", err
	}
	var asset *types.CryptoAsset
	for _, a := range s.config.Assets {
		if a.AssetID == assetID && (protocol == types.Protocol_Unspecified || a.Protocol == protocol) {
			asset = a
			break
		}
	}
	if asset == nil {
		return nil, "", wire.Errorf(connect.CodeNotFound, "unknown crypto asset %q on %s", assetID, protocol)
	}

	currency := defaultCurrency
	if account, ok := s.accounts.get(id.ID); ok {
		if bank, err := types.GetRampBankAccount(account); err == nil && bank.Currency() != "" {
			currency = bank.Currency()
		}
	}
	return asset, currency, nil
}

func normalizeBankAccount(account *types.BankAccount) *types.BankAccount {
	switch account.Case {
	case types.BankAccountCase_Iban:
		return types.NewIbanBankAccount(types.IbanCoordinates{Iban: types.NormalizeIban(account.Iban.Iban)})
	default:
		return types.NewScanBankAccount(types.ScanCoordinates{
			SortCode:      types.NormalizeSortCode(account.Scan.SortCode),
			AccountNumber: account.Scan.AccountNumber,
		})
	}
}

func defaultOnrampAccount() *types.BankAccount {
	return types.NewIbanBankAccount(types.IbanCoordinates{Iban: "GB33BUKB20201555555555"})
}

// IsNotOnboarded reports whether err is the error answered to callers without an account
func IsNotOnboarded(err error) bool {
	var rpcErr *connect.Error
	return errors.As(err, &rpcErr) && rpcErr.Code() == connect.CodeFailedPrecondition && rpcErr.Message() == notOnboardedMessage
}
