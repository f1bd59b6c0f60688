package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/harbour-fi/ramp-go/pkg/signing"
	"github.com/harbour-fi/ramp-go/pkg/signing/inMemorySigner"
	"github.com/harbour-fi/ramp-go/pkg/transport"
	"github.com/harbour-fi/ramp-go/pkg/wire"
)

var fixedNow = time.UnixMilli(1_700_000_000_000)

// signedHeaders runs a request through the signing transport and returns the
// headers that reached the wire
func signedHeaders(t *testing.T, signer signing.Signer, body []byte, now time.Time) http.Header {
	t.Helper()
	var captured http.Header
	base := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		captured = req.Header.Clone()
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
	})
	rt := transport.NewSigningTransport(signer,
		transport.WithBase(base),
		transport.WithClock(func() time.Time { return now }),
	)
	req, err := http.NewRequest(http.MethodPost, "http://ramp.test/x", bytes.NewReader(body))
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return captured
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestVerify(t *testing.T) {
	logger := zaptest.NewLogger(t)
	body := []byte{0x0a, 0x04, 'U', 'S', 'D', 'C'}

	for _, cfg := range []signing.SignatureConfig{signing.EthereumSignature, signing.CosmosSignature} {
		t.Run(cfg.SignatureType()+"/"+cfg.EncodingAlgorithm.String(), func(t *testing.T) {
			signer, err := inMemorySigner.NewRandomInMemorySigner(cfg, logger)
			require.NoError(t, err)

			v := NewVerifier(&Config{Now: func() time.Time { return fixedNow.Add(time.Minute) }}, logger)
			id, err := v.Verify(body, signedHeaders(t, signer, body, fixedNow))
			require.NoError(t, err)
			assert.Equal(t, signer.Address(), id.Address)
			assert.Equal(t, hexutil.Encode(crypto.CompressPubkey(signer.PublicKey())), id.ID)
			assert.Equal(t, fixedNow, id.Timestamp)
			assert.NoError(t, signing.ValidateCosmosAddress(id.CosmosAddress, signing.CosmosHRP))
		})
	}
}

func TestVerify_Rejects(t *testing.T) {
	logger := zaptest.NewLogger(t)
	signer, err := inMemorySigner.NewRandomInMemorySigner(signing.EthereumSignature, logger)
	require.NoError(t, err)
	body := []byte("payload")
	headers := signedHeaders(t, signer, body, fixedNow)

	t.Run("tampered body", func(t *testing.T) {
		v := NewVerifier(&Config{Now: func() time.Time { return fixedNow }}, logger)
		_, err := v.Verify([]byte("payload2"), headers)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("expired", func(t *testing.T) {
		v := NewVerifier(&Config{Now: func() time.Time { return fixedNow.Add(DefaultTimeWindow + time.Second) }}, logger)
		_, err := v.Verify(body, headers)
		assert.ErrorIs(t, err, ErrExpiredSignature)
	})

	t.Run("from the future", func(t *testing.T) {
		v := NewVerifier(&Config{Now: func() time.Time { return fixedNow.Add(-time.Minute) }}, logger)
		_, err := v.Verify(body, headers)
		assert.ErrorIs(t, err, ErrExpiredSignature)
	})

	t.Run("missing header", func(t *testing.T) {
		h := headers.Clone()
		h.Del(transport.HeaderSignatureTimestamp)
		v := NewVerifier(&Config{Now: func() time.Time { return fixedNow }}, logger)
		_, err := v.Verify(body, h)
		assert.ErrorIs(t, err, ErrMissingHeader)
	})

	t.Run("key swapped", func(t *testing.T) {
		other, err := inMemorySigner.NewRandomInMemorySigner(signing.EthereumSignature, logger)
		require.NoError(t, err)
		h := headers.Clone()
		h.Set(transport.HeaderSignaturePublicKey, hexutil.Encode(crypto.FromECDSAPub(other.PublicKey())))
		v := NewVerifier(&Config{Now: func() time.Time { return fixedNow }}, logger)
		_, err = v.Verify(body, h)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}

func TestMiddleware(t *testing.T) {
	logger := zaptest.NewLogger(t)
	signer, err := inMemorySigner.NewRandomInMemorySigner(signing.EthereumSignature, logger)
	require.NoError(t, err)

	var seenBody []byte
	var seenID *Identity
	handler := NewVerifier(nil, logger).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenBody, _ = io.ReadAll(r.Body)
		seenID, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	server := httptest.NewServer(handler)
	defer server.Close()

	t.Run("signed request passes", func(t *testing.T) {
		client := transport.NewSigningHTTPClient(signer, 5*time.Second, transport.WithLogger(logger))
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL, bytes.NewReader([]byte("hello")))
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, []byte("hello"), seenBody)
		require.NotNil(t, seenID)
		assert.Equal(t, signer.Address(), seenID.Address)
	})

	t.Run("unsigned request is rejected", func(t *testing.T) {
		resp, err := http.Post(server.URL, "application/proto", bytes.NewReader([]byte("hello")))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var rpcErr struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcErr))
		assert.Equal(t, "unauthenticated", rpcErr.Code)
	})

	t.Run("oversized body is rejected, not truncated", func(t *testing.T) {
		seenBody = nil
		body := bytes.Repeat([]byte{0x01}, wire.MaxMessageBytes+1)
		req := httptest.NewRequest(http.MethodPost, "/ramp.v1.RampService/GetAccountInfo", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/proto")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Nil(t, seenBody)

		var rpcErr struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&rpcErr))
		assert.Equal(t, "resource_exhausted", rpcErr.Code)
	})
}

func TestVerifyAddressOwnership(t *testing.T) {
	logger := zaptest.NewLogger(t)
	owner, err := inMemorySigner.NewRandomInMemorySigner(signing.EthereumSignature, logger)
	require.NoError(t, err)
	other, err := inMemorySigner.NewRandomInMemorySigner(signing.EthereumSignature, logger)
	require.NoError(t, err)

	address := owner.Address().Hex()
	pub := hexutil.Encode(crypto.CompressPubkey(owner.PublicKey()))
	proof, err := owner.SignPersonalMessage([]byte(address))
	require.NoError(t, err)
	require.NoError(t, VerifyAddressOwnership(address, pub, hexutil.Encode(proof)))

	forged, err := other.SignPersonalMessage([]byte(address))
	require.NoError(t, err)
	assert.Error(t, VerifyAddressOwnership(address, pub, hexutil.Encode(forged)))

	otherPub := hexutil.Encode(crypto.CompressPubkey(other.PublicKey()))
	assert.Error(t, VerifyAddressOwnership(address, otherPub, hexutil.Encode(proof)))
	assert.Error(t, VerifyAddressOwnership("not-an-address", pub, hexutil.Encode(proof)))
}
