package signing

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // cosmos addresses are defined over ripemd160
)

// CosmosHRP is the bech32 prefix of Cosmos Hub accounts
const CosmosHRP = "cosmos"

// CosmosAddress derives the bech32 account address of a secp256k1 key:
// ripemd160(sha256(compressed public key)) under the hrp prefix.
func CosmosAddress(pub *ecdsa.PublicKey, hrp string) (string, error) {
	if pub == nil {
		return "", fmt.Errorf("public key is nil")
	}
	sha := sha256.Sum256(crypto.CompressPubkey(pub))
	hasher := ripemd160.New()
	hasher.Write(sha[:])

	data, err := bech32.ConvertBits(hasher.Sum(nil), 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert address bits: %w", err)
	}
	return bech32.Encode(hrp, data)
}

// ValidateCosmosAddress checks the bech32 checksum and prefix of an address
func ValidateCosmosAddress(address, hrp string) error {
	decodedHRP, data, err := bech32.Decode(address)
	if err != nil {
		return fmt.Errorf("invalid bech32 address: %w", err)
	}
	if decodedHRP != hrp {
		return fmt.Errorf("address prefix %q, expected %q", decodedHRP, hrp)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return fmt.Errorf("invalid bech32 address: %w", err)
	}
	if len(raw) != ripemd160.Size {
		return fmt.Errorf("address is %d bytes, expected %d", len(raw), ripemd160.Size)
	}
	return nil
}
