package snap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/harbour-fi/ramp-go/pkg/signing"
	"github.com/harbour-fi/ramp-go/pkg/signing/inMemorySigner"
)

type userRejectedError struct{}

func (userRejectedError) Error() string  { return "User rejected the request." }
func (userRejectedError) ErrorCode() int { return 4001 }

// walletService plays the wallet side of the bridge
type walletService struct {
	mu       sync.Mutex
	signer   *inMemorySigner.InMemorySigner
	snaps    GetSnapsResponse
	reject   bool
	invoked  []invokeSnapParams
	requests []map[string]map[string]any
	revoked  int
}

func (w *walletService) GetSnaps() (GetSnapsResponse, error) {
	return w.snaps, nil
}

func (w *walletService) requestSnaps(params map[string]map[string]any) (map[string]Snap, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests = append(w.requests, params)
	out := map[string]Snap{}
	for id := range params {
		out[id] = Snap{ID: id, Version: "1.0.0", Enabled: true}
	}
	return out, nil
}

func (w *walletService) invokeSnap(ctx context.Context, params invokeSnapParams) (*SignResponse, error) {
	w.mu.Lock()
	w.invoked = append(w.invoked, params)
	reject := w.reject
	w.mu.Unlock()
	if reject {
		return nil, userRejectedError{}
	}
	sig, err := w.signer.Sign(ctx, params.Request.Params["message"].(string))
	if err != nil {
		return nil, err
	}
	return &SignResponse{
		PublicKey:     sig.PublicKey,
		Signature:     sig.Signature,
		SignatureType: sig.SignatureType(),
		Encoding:      sig.EncodingAlgorithm.String(),
	}, nil
}

func (w *walletService) RevokePermissions(map[string]any) (any, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.revoked++
	return nil, nil
}

type ethService struct {
	accounts []string
}

func (e *ethService) RequestAccounts() ([]string, error) {
	return e.accounts, nil
}

// bridge answers the by-name snap methods itself, as a wallet does, and hands
// everything else to a go-ethereum rpc server
type bridge struct {
	rpc    *rpc.Server
	wallet *walletService

	mu     sync.Mutex
	bodies map[string][]json.RawMessage
}

func (b *bridge) params(method string) []json.RawMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[method]
}

func (b *bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req struct {
		ID     json.RawMessage `json:"id"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	b.bodies[req.Method] = append(b.bodies[req.Method], req.Params)
	b.mu.Unlock()

	var result any
	switch req.Method {
	case "wallet_requestSnaps":
		var params map[string]map[string]any
		if err = json.Unmarshal(req.Params, &params); err == nil {
			result, err = b.wallet.requestSnaps(params)
		}
	case "wallet_invokeSnap":
		var params invokeSnapParams
		if err = json.Unmarshal(req.Params, &params); err == nil {
			result, err = b.wallet.invokeSnap(r.Context(), params)
		}
	default:
		r.Body = io.NopCloser(bytes.NewReader(body))
		b.rpc.ServeHTTP(w, r)
		return
	}

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	var coded interface{ ErrorCode() int }
	switch {
	case errors.As(err, &coded):
		resp["error"] = map[string]any{"code": coded.ErrorCode(), "message": err.Error()}
	case err != nil:
		resp["error"] = map[string]any{"code": -32602, "message": err.Error()}
	default:
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestClient(t *testing.T) (*Client, *walletService) {
	client, wallet, _ := newTestBridge(t)
	return client, wallet
}

func newTestBridge(t *testing.T) (*Client, *walletService, *bridge) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	signer, err := inMemorySigner.NewRandomInMemorySigner(signing.EthereumSignature, logger)
	require.NoError(t, err)

	wallet := &walletService{
		signer: signer,
		snaps: GetSnapsResponse{
			DefaultSnapID:       {ID: DefaultSnapID, Version: "1.2.0", Enabled: true},
			"local:http://x:80": {ID: "local:http://x:80", Version: "0.0.1", Enabled: true},
		},
	}
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("wallet", wallet))
	require.NoError(t, server.RegisterName("eth", &ethService{accounts: []string{signer.Address().Hex()}}))
	b := &bridge{rpc: server, wallet: wallet, bodies: map[string][]json.RawMessage{}}
	httpServer := httptest.NewServer(b)
	t.Cleanup(func() {
		httpServer.Close()
		server.Stop()
	})

	cfg := DefaultConfig()
	cfg.BridgeURL = httpServer.URL
	client, err := NewClient(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client, wallet, b
}

func TestNewClient_Validation(t *testing.T) {
	logger := zaptest.NewLogger(t)
	_, err := NewClient(nil, logger)
	assert.EqualError(t, err, "config cannot be nil")
	_, err = NewClient(&Config{}, logger)
	assert.EqualError(t, err, "bridge URL is required")
	_, err = NewClient(DefaultConfig(), nil)
	assert.EqualError(t, err, "logger is required")
}

func TestClient_GetSnap(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	snap, err := client.GetSnap(ctx, "")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, DefaultSnapID, snap.ID)

	snap, err = client.GetSnap(ctx, "1.2.0")
	require.NoError(t, err)
	assert.NotNil(t, snap)

	snap, err = client.GetSnap(ctx, "9.9.9")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestClient_ConnectSnap(t *testing.T) {
	client, wallet := newTestClient(t)
	require.NoError(t, client.ConnectSnap(context.Background(), map[string]any{"version": "1.2.0"}))
	require.Len(t, wallet.requests, 1)
	assert.Equal(t, "1.2.0", wallet.requests[0][DefaultSnapID]["version"])
}

func TestClient_SnapMethodsSendParamsByName(t *testing.T) {
	client, _, b := newTestBridge(t)
	ctx := context.Background()

	require.NoError(t, client.ConnectSnap(ctx, map[string]any{"version": "1.2.0"}))
	_, err := client.SignRequest(ctx, "hi")
	require.NoError(t, err)
	_, err = client.RequestAccounts(ctx)
	require.NoError(t, err)

	requested := b.params("wallet_requestSnaps")
	require.Len(t, requested, 1)
	assert.JSONEq(t, `{"npm:@harbour-fi/ramp-snap":{"version":"1.2.0"}}`, string(requested[0]))

	invoked := b.params("wallet_invokeSnap")
	require.Len(t, invoked, 1)
	assert.JSONEq(t, `{"snapId":"npm:@harbour-fi/ramp-snap","request":{"method":"sign_request","params":{"message":"hi"}}}`, string(invoked[0]))

	// plain wallet methods keep positional params
	revoked := b.params("wallet_revokePermissions")
	require.Len(t, revoked, 1)
	assert.JSONEq(t, `[{"eth_accounts":{}}]`, string(revoked[0]))
	assert.Len(t, b.params("eth_requestAccounts"), 1)
}

func TestClient_RequestAccounts(t *testing.T) {
	client, wallet := newTestClient(t)
	accounts, err := client.RequestAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{wallet.signer.Address().Hex()}, accounts)
	assert.Equal(t, 1, wallet.revoked)
}

func TestSigner(t *testing.T) {
	client, wallet := newTestClient(t)
	signer, err := NewSigner(client, signing.EthereumSignature)
	require.NoError(t, err)

	data := "\x0a\x04USDC1700000000000"
	sig, err := signer.Sign(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, signing.EthereumSignature, sig.SignatureConfig)
	require.NoError(t, signing.VerifySignature(sig, []byte(data)))

	require.Len(t, wallet.invoked, 1)
	assert.Equal(t, DefaultSnapID, wallet.invoked[0].SnapID)
	assert.Equal(t, "sign_request", wallet.invoked[0].Request.Method)
	assert.Equal(t, data, wallet.invoked[0].Request.Params["message"])
}

func TestSigner_UserRejected(t *testing.T) {
	client, wallet := newTestClient(t)
	wallet.reject = true
	signer, err := NewSigner(client, signing.EthereumSignature)
	require.NoError(t, err)

	_, err = signer.Sign(context.Background(), "payload")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUserRejected))
}

func TestIsLocalSnap(t *testing.T) {
	assert.True(t, IsLocalSnap("local:http://localhost:8080"))
	assert.False(t, IsLocalSnap(DefaultSnapID))
}
