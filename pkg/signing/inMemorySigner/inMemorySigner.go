package inMemorySigner

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/harbour-fi/ramp-go/pkg/signing"
)

// InMemorySigner signs request payloads with a secp256k1 key held in process memory.
// It stands in for the wallet extension in tests, scripts and headless deployments.
type InMemorySigner struct {
	logger     *zap.Logger
	privateKey *ecdsa.PrivateKey
	config     signing.SignatureConfig
}

var _ signing.Signer = (*InMemorySigner)(nil)

// NewInMemorySignerFromHex loads a hex encoded private key, with or without 0x prefix
func NewInMemorySignerFromHex(
	privateKeyHex string,
	config signing.SignatureConfig,
	logger *zap.Logger,
) (*InMemorySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("error loading private key: %w", err)
	}
	return NewInMemorySigner(key, config, logger)
}

// NewRandomInMemorySigner generates a fresh key; handy for tests and demos
func NewRandomInMemorySigner(config signing.SignatureConfig, logger *zap.Logger) (*InMemorySigner, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return NewInMemorySigner(key, config, logger)
}

func NewInMemorySigner(
	key *ecdsa.PrivateKey,
	config signing.SignatureConfig,
	logger *zap.Logger,
) (*InMemorySigner, error) {
	if key == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid signature config: %w", err)
	}
	return &InMemorySigner{
		logger:     logger,
		privateKey: key,
		config:     config,
	}, nil
}

// Sign hashes data with the configured algorithm and signs the digest
func (s *InMemorySigner) Sign(_ context.Context, data string) (*signing.Signature, error) {
	digest, err := signing.Digest(s.config.HashingAlgorithm, []byte(data))
	if err != nil {
		return nil, err
	}

	raw, err := crypto.Sign(digest, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign payload: %w", err)
	}

	sig, err := signing.NewSecp256k1Signature(s.config, raw, &s.privateKey.PublicKey)
	if err != nil {
		return nil, err
	}

	s.logger.Sugar().Debugw("Signed payload",
		"address", s.Address().Hex(),
		"signature_type", s.config.SignatureType(),
		"payload_length", len(data),
	)
	return sig, nil
}

// SignPersonalMessage produces an EIP-191 personal_sign signature, the format
// wallets use to prove control of an address.
func (s *InMemorySigner) SignPersonalMessage(message []byte) ([]byte, error) {
	hash := accounts.TextHash(message)
	sig, err := crypto.Sign(hash, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign personal message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

func (s *InMemorySigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.privateKey.PublicKey)
}

func (s *InMemorySigner) PublicKey() *ecdsa.PublicKey {
	return &s.privateKey.PublicKey
}

func (s *InMemorySigner) SignatureConfig() signing.SignatureConfig {
	return s.config
}
