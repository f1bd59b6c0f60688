package main

import (
	"fmt"

	"github.com/harbour-fi/ramp-go/pkg/rampClient"
	"github.com/harbour-fi/ramp-go/pkg/types"
)

// parseBankAccount builds a bank account from either an IBAN or a sort code
// and account number pair
func parseBankAccount(iban, sortCode, accountNumber string) (*types.BankAccount, error) {
	hasScan := sortCode != "" || accountNumber != ""
	switch {
	case iban != "" && hasScan:
		return nil, fmt.Errorf("use either --iban or --sort-code with --account-number, not both")
	case iban != "":
		return types.NewIbanBankAccount(types.IbanCoordinates{Iban: iban}), nil
	case sortCode != "" && accountNumber != "":
		return types.NewScanBankAccount(types.ScanCoordinates{SortCode: sortCode, AccountNumber: accountNumber}), nil
	case hasScan:
		return nil, fmt.Errorf("--sort-code and --account-number go together")
	default:
		return nil, fmt.Errorf("--iban or --sort-code with --account-number is required")
	}
}

// parseWhitelistProtocol accepts only protocols whose addresses can be
// whitelisted, so a bad --protocol fails before anything is dialed
func parseWhitelistProtocol(name string) (types.Protocol, error) {
	protocol, err := types.ParseProtocol(name)
	if err != nil {
		return types.Protocol_Unspecified, err
	}
	if !protocol.IsEVM() {
		return types.Protocol_Unspecified, fmt.Errorf("%w: %s", rampClient.ErrUnsupportedProtocol, protocol)
	}
	return protocol, nil
}

func parseAmount(fiat, crypto string) (*types.Amount, error) {
	switch {
	case fiat != "" && crypto != "":
		return nil, fmt.Errorf("use either --fiat-amount or --crypto-amount, not both")
	case fiat != "":
		if _, err := types.ParseDecimal(fiat); err != nil {
			return nil, err
		}
		return types.FiatAmount(fiat), nil
	case crypto != "":
		if _, err := types.ParseDecimal(crypto); err != nil {
			return nil, err
		}
		return types.CryptoAmount(crypto), nil
	default:
		return nil, fmt.Errorf("--fiat-amount or --crypto-amount is required")
	}
}

// findRampAsset returns the asset of a whitelisted wallet, which carries the
// off-ramp deposit address for that wallet
func findRampAsset(info *types.GetAccountInfoResponse, walletAddress, assetID string) (*types.RampAsset, error) {
	if info.ResultCase() != types.GetAccountInfoResultCase_Account {
		url := ""
		if info.Authentication != nil {
			url = info.Authentication.AuthenticationURL
		}
		return nil, fmt.Errorf("not logged in, onboard at %s", url)
	}
	wallet := info.Account.FindWallet(walletAddress)
	if wallet == nil {
		return nil, fmt.Errorf("wallet %s is not whitelisted", walletAddress)
	}
	asset := wallet.FindAsset(assetID)
	if asset == nil {
		return nil, fmt.Errorf("asset %s is not available for wallet %s", assetID, walletAddress)
	}
	if asset.OffRamp == nil || asset.OffRamp.Address == "" {
		return nil, fmt.Errorf("asset %s has no off-ramp address for wallet %s", assetID, walletAddress)
	}
	return asset, nil
}
