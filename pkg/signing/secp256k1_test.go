package signing

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signRaw(t *testing.T, cfg SignatureConfig, data []byte) *Signature {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	digest, err := Digest(cfg.HashingAlgorithm, data)
	require.NoError(t, err)
	raw, err := crypto.Sign(digest, key)
	require.NoError(t, err)

	sig, err := NewSecp256k1Signature(cfg, raw, &key.PublicKey)
	require.NoError(t, err)
	return sig
}

func TestNewSecp256k1Signature_Ethereum(t *testing.T) {
	data := []byte("payload1700000000000")
	sig := signRaw(t, EthereumSignature, data)

	raw, err := Decode(EncodingAlgorithmHex, sig.Signature)
	require.NoError(t, err)
	require.Len(t, raw, 65)
	assert.Contains(t, []byte{27, 28}, raw[64])

	pub, err := Decode(EncodingAlgorithmHex, sig.PublicKey)
	require.NoError(t, err)
	assert.Len(t, pub, 65)

	require.NoError(t, VerifySignature(sig, data))
	require.Error(t, VerifySignature(sig, []byte("tampered")))
}

func TestNewSecp256k1Signature_Cosmos(t *testing.T) {
	data := []byte("payload1700000000000")
	sig := signRaw(t, CosmosSignature, data)

	raw, err := Decode(EncodingAlgorithmBase64, sig.Signature)
	require.NoError(t, err)
	require.Len(t, raw, 64)

	pub, err := Decode(EncodingAlgorithmBase64, sig.PublicKey)
	require.NoError(t, err)
	assert.Len(t, pub, 33)

	require.NoError(t, VerifySignature(sig, data))
	require.Error(t, VerifySignature(sig, []byte("tampered")))
}

func TestVerifySignature_WrongKey(t *testing.T) {
	data := []byte("payload")
	sig := signRaw(t, EthereumSignature, data)
	other := signRaw(t, EthereumSignature, data)

	sig.PublicKey = other.PublicKey
	require.Error(t, VerifySignature(sig, data))
}

func TestNewSecp256k1Signature_InvalidInput(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, err = NewSecp256k1Signature(EthereumSignature, []byte{1, 2, 3}, &key.PublicKey)
	require.Error(t, err)

	_, err = NewSecp256k1Signature(EthereumSignature, make([]byte, 65), nil)
	require.Error(t, err)
}
