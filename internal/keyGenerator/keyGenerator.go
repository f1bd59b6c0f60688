package keyGenerator

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/harbour-fi/ramp-go/pkg/signing"
)

// GeneratedKey describes a secp256k1 key requests can be signed with
type GeneratedKey struct {
	KeyID         string
	PublicKey     *ecdsa.PublicKey
	Address       common.Address
	CosmosAddress string
	// PrivateKeyHex is only set for keys generated in this process
	PrivateKeyHex string
}

func NewGeneratedKey(keyID string, publicKey *ecdsa.PublicKey) (*GeneratedKey, error) {
	if publicKey == nil {
		return nil, fmt.Errorf("public key is nil")
	}
	cosmosAddress, err := signing.CosmosAddress(publicKey, signing.CosmosHRP)
	if err != nil {
		return nil, err
	}
	return &GeneratedKey{
		KeyID:         keyID,
		PublicKey:     publicKey,
		Address:       crypto.PubkeyToAddress(*publicKey),
		CosmosAddress: cosmosAddress,
	}, nil
}

// PublicKeyHex returns the compressed public key, the form ramp accounts are keyed by
func (k *GeneratedKey) PublicKeyHex() string {
	return hexutil.Encode(crypto.CompressPubkey(k.PublicKey))
}

type IKeyGenerator interface {
	GenerateKey(ctx context.Context, keyName string, aliasName string) (*GeneratedKey, error)
	GetKeyByID(ctx context.Context, keyID string) (*GeneratedKey, error)
}
