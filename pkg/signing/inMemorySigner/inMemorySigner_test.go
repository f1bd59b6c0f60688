package inMemorySigner

import (
	"context"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/harbour-fi/ramp-go/pkg/signing"
)

const testPrivateKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func Test_InMemorySigner_Ethereum(t *testing.T) {
	s, err := NewInMemorySignerFromHex(testPrivateKey, signing.EthereumSignature, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", s.Address().Hex())

	sig, err := s.Sign(context.Background(), "body1700000000000")
	require.NoError(t, err)
	assert.Equal(t, signing.EthereumSignature, sig.SignatureConfig)
	require.NoError(t, signing.VerifySignature(sig, []byte("body1700000000000")))
}

func Test_InMemorySigner_Cosmos(t *testing.T) {
	s, err := NewRandomInMemorySigner(signing.CosmosSignature, zaptest.NewLogger(t))
	require.NoError(t, err)

	sig, err := s.Sign(context.Background(), "data")
	require.NoError(t, err)
	assert.Equal(t, signing.EncodingAlgorithmBase64, sig.EncodingAlgorithm)
	require.NoError(t, signing.VerifySignature(sig, []byte("data")))
}

func Test_InMemorySigner_InvalidKey(t *testing.T) {
	_, err := NewInMemorySignerFromHex("0xnothex", signing.EthereumSignature, zaptest.NewLogger(t))
	require.Error(t, err)

	_, err = NewInMemorySigner(nil, signing.EthereumSignature, zaptest.NewLogger(t))
	require.Error(t, err)

	_, err = NewRandomInMemorySigner(signing.SignatureConfig{}, zaptest.NewLogger(t))
	require.Error(t, err)
}

func Test_InMemorySigner_PersonalMessage(t *testing.T) {
	s, err := NewRandomInMemorySigner(signing.EthereumSignature, zaptest.NewLogger(t))
	require.NoError(t, err)

	msg := []byte(s.Address().Hex())
	sig, err := s.SignPersonalMessage(msg)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	sig[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash(msg), sig)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), crypto.PubkeyToAddress(*pub))
}

func Test_InMemorySigner_ConcurrentSigning(t *testing.T) {
	s, err := NewRandomInMemorySigner(signing.EthereumSignature, zaptest.NewLogger(t))
	require.NoError(t, err)

	payloads := []string{"a1", "b2", "c3", "d4", "e5", "f6", "g7", "h8"}
	sigs := make([]*signing.Signature, len(payloads))

	var wg sync.WaitGroup
	for i, p := range payloads {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			sig, err := s.Sign(context.Background(), p)
			assert.NoError(t, err)
			sigs[i] = sig
		}(i, p)
	}
	wg.Wait()

	for i, p := range payloads {
		require.NotNil(t, sigs[i])
		require.NoError(t, signing.VerifySignature(sigs[i], []byte(p)))
	}
}
