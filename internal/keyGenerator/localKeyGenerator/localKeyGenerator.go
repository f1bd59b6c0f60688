package localKeyGenerator

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harbour-fi/ramp-go/internal/keyGenerator"
	"github.com/harbour-fi/ramp-go/pkg/signing"
	"github.com/harbour-fi/ramp-go/pkg/signing/inMemorySigner"
)

type keyEntry struct {
	privateKey *ecdsa.PrivateKey
	keyName    string
	aliasName  string
}

// LocalKeyGenerator keeps generated keys in memory
type LocalKeyGenerator struct {
	logger   *zap.Logger
	keyStore map[string]*keyEntry // keyID -> keyEntry
	mu       sync.RWMutex
}

var _ keyGenerator.IKeyGenerator = (*LocalKeyGenerator)(nil)

func NewLocalKeyGenerator(logger *zap.Logger) *LocalKeyGenerator {
	return &LocalKeyGenerator{
		logger:   logger,
		keyStore: make(map[string]*keyEntry),
	}
}

func (l *LocalKeyGenerator) GenerateKey(_ context.Context, keyName string, aliasName string) (*keyGenerator.GeneratedKey, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secp256k1 key: %w", err)
	}
	keyID := fmt.Sprintf("local-key-%s", uuid.New().String())
	if err := l.LoadPrivateKey(keyID, privateKey, keyName, aliasName); err != nil {
		return nil, err
	}

	generated, err := keyGenerator.NewGeneratedKey(keyID, &privateKey.PublicKey)
	if err != nil {
		return nil, err
	}
	generated.PrivateKeyHex = hexutil.Encode(crypto.FromECDSA(privateKey))
	return generated, nil
}

func (l *LocalKeyGenerator) GetKeyByID(_ context.Context, keyID string) (*keyGenerator.GeneratedKey, error) {
	entry, err := l.entry(keyID)
	if err != nil {
		return nil, err
	}
	return keyGenerator.NewGeneratedKey(keyID, &entry.privateKey.PublicKey)
}

// Signer returns a request signer backed by the stored key
func (l *LocalKeyGenerator) Signer(keyID string, config signing.SignatureConfig) (*inMemorySigner.InMemorySigner, error) {
	entry, err := l.entry(keyID)
	if err != nil {
		return nil, err
	}
	return inMemorySigner.NewInMemorySigner(entry.privateKey, config, l.logger)
}

// LoadPrivateKey adds an existing key to the store
func (l *LocalKeyGenerator) LoadPrivateKey(keyID string, privateKey *ecdsa.PrivateKey, keyName string, aliasName string) error {
	if privateKey == nil {
		return fmt.Errorf("private key cannot be nil")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.keyStore[keyID]; exists {
		return fmt.Errorf("key with ID %s already exists", keyID)
	}
	if aliasName != "" {
		for id, entry := range l.keyStore {
			if entry.aliasName == aliasName {
				return fmt.Errorf("alias %s already points at key %s", aliasName, id)
			}
		}
	}
	l.keyStore[keyID] = &keyEntry{
		privateKey: privateKey,
		keyName:    keyName,
		aliasName:  aliasName,
	}

	l.logger.Sugar().Infow("Stored local key",
		"keyId", keyID,
		"keyName", keyName,
		"aliasName", aliasName,
		"address", crypto.PubkeyToAddress(privateKey.PublicKey).Hex(),
	)
	return nil
}

// LoadPrivateKeyFromHex loads a hex key, with or without 0x prefix
func (l *LocalKeyGenerator) LoadPrivateKeyFromHex(keyID string, privateKeyHex string, keyName string, aliasName string) error {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return fmt.Errorf("failed to parse private key from hex: %w", err)
	}
	return l.LoadPrivateKey(keyID, privateKey, keyName, aliasName)
}

// GetKeyIDByAlias returns the ID of the key carrying alias
func (l *LocalKeyGenerator) GetKeyIDByAlias(alias string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for id, entry := range l.keyStore {
		if entry.aliasName == alias {
			return id, true
		}
	}
	return "", false
}

func (l *LocalKeyGenerator) GetKeyCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.keyStore)
}

func (l *LocalKeyGenerator) entry(keyID string) (*keyEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, exists := l.keyStore[keyID]
	if !exists {
		return nil, fmt.Errorf("key with ID %s not found", keyID)
	}
	return entry, nil
}
