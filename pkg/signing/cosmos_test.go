package signing

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosmosAddress(t *testing.T) {
	key, err := crypto.HexToECDSA("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	require.NoError(t, err)

	address, err := CosmosAddress(&key.PublicKey, CosmosHRP)
	require.NoError(t, err)
	assert.Equal(t, "cosmos1nduq8yy8h4nr7g9vuuglzklqatmaquq9tztpj8", address)
	require.NoError(t, ValidateCosmosAddress(address, CosmosHRP))

	_, err = CosmosAddress(nil, CosmosHRP)
	require.Error(t, err)
}

func TestValidateCosmosAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
	}{
		{name: "bad checksum", address: "cosmos1nduq8yy8h4nr7g9vuuglzklqatmaquq9tztpj9"},
		{name: "wrong prefix", address: "osmo1nduq8yy8h4nr7g9vuuglzklqatmaquq9tztpj8"},
		{name: "hex", address: "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, ValidateCosmosAddress(tt.address, CosmosHRP))
		})
	}
}
