package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbour-fi/ramp-go/pkg/rampClient"
	"github.com/harbour-fi/ramp-go/pkg/types"
)

func Test_parseBankAccount(t *testing.T) {
	tests := []struct {
		name     string
		iban     string
		sortCode string
		number   string
		expected types.BankAccountCase
		wantErr  bool
	}{
		{name: "iban", iban: "GB33BUKB20201555555555", expected: types.BankAccountCase_Iban},
		{name: "scan", sortCode: "10-20-30", number: "12345678", expected: types.BankAccountCase_Scan},
		{name: "both", iban: "GB33BUKB20201555555555", sortCode: "102030", number: "12345678", wantErr: true},
		{name: "half scan", sortCode: "102030", wantErr: true},
		{name: "none", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := parseBankAccount(tt.iban, tt.sortCode, tt.number)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, account.Case)
		})
	}
}

func Test_parseWhitelistProtocol(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected types.Protocol
		err      error
	}{
		{name: "ethereum", input: "ethereum", expected: types.Protocol_Ethereum},
		{name: "avax", input: "avax", expected: types.Protocol_Avax},
		{name: "polygon", input: "polygon", expected: types.Protocol_Polygon},
		{name: "cosmos", input: "cosmos", err: rampClient.ErrUnsupportedProtocol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			protocol, err := parseWhitelistProtocol(tt.input)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, protocol)
		})
	}

	_, err := parseWhitelistProtocol("solana")
	assert.EqualError(t, err, "unsupported protocol: solana")
}

func Test_parseAmount(t *testing.T) {
	amount, err := parseAmount("100", "")
	require.NoError(t, err)
	assert.Equal(t, types.FiatAmount("100"), amount)

	amount, err = parseAmount("", "12.5")
	require.NoError(t, err)
	assert.Equal(t, types.CryptoAmount("12.5"), amount)

	_, err = parseAmount("1", "1")
	require.Error(t, err)
	_, err = parseAmount("", "")
	require.Error(t, err)
	_, err = parseAmount("-1", "")
	require.Error(t, err)
}

func Test_findRampAsset(t *testing.T) {
	asset := &types.RampAsset{
		Asset:   &types.CryptoAsset{AssetID: "USDC", ShortName: "USDC"},
		OffRamp: &types.OffRamp{Address: "0x1111111111111111111111111111111111111111"},
	}
	info := &types.GetAccountInfoResponse{Account: &types.Account{
		Wallets: []*types.Wallet{{
			Address: "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23",
			Assets:  []*types.RampAsset{asset},
		}},
	}}

	found, err := findRampAsset(info, "0x2c7536e3605d9c16a7a3d7b1898e529396a65c23", "USDC")
	require.NoError(t, err)
	assert.Same(t, asset, found)

	_, err = findRampAsset(info, "0x0000000000000000000000000000000000000001", "USDC")
	require.ErrorContains(t, err, "not whitelisted")

	_, err = findRampAsset(info, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", "EURC")
	require.Error(t, err)

	_, err = findRampAsset(&types.GetAccountInfoResponse{
		Authentication: &types.Authentication{AuthenticationURL: "https://ramp.example/login"},
	}, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", "USDC")
	require.ErrorContains(t, err, "https://ramp.example/login")
}
