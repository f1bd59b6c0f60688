package testutil

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

// Well known development keys, never fund them on a real network
const (
	TestPrivateKey1 = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	TestPrivateKey2 = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
)

// AddressForKey returns the address of a hex private key
func AddressForKey(t *testing.T, privateKeyHex string) common.Address {
	t.Helper()
	key, err := crypto.HexToECDSA(privateKeyHex[2:])
	require.NoError(t, err)
	return crypto.PubkeyToAddress(key.PublicKey)
}
