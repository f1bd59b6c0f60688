package snap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/harbour-fi/ramp-go/pkg/wire"
)

const (
	// DefaultSnapID is the origin of the published ramp snap
	DefaultSnapID = "npm:@harbour-fi/ramp-snap"

	signRequestMethod = "sign_request"

	// userRejectedCode is the EIP-1193 code for a request the user declined
	userRejectedCode = 4001
)

// ErrUserRejected is returned when the user declines a request in the wallet
var ErrUserRejected = errors.New("user rejected the request")

// Config holds the configuration for the snap client
type Config struct {
	// BridgeURL is the JSON-RPC endpoint relaying calls to the wallet
	BridgeURL string
	SnapID    string
	// Timeout bounds each call; signing waits for the user so keep it generous
	Timeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		BridgeURL: "http://localhost:8546",
		SnapID:    DefaultSnapID,
		Timeout:   2 * time.Minute,
	}
}

type Snap struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Enabled bool   `json:"enabled"`
	Blocked bool   `json:"blocked"`
}

// GetSnapsResponse maps snap IDs to installed snaps
type GetSnapsResponse map[string]Snap

// SignResponse is what the snap answers to sign_request
type SignResponse struct {
	PublicKey     string `json:"publicKey"`
	Signature     string `json:"signature"`
	SignatureType string `json:"signatureType"`
	Encoding      string `json:"encoding"`
}

type snapRequest struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

type invokeSnapParams struct {
	SnapID  string      `json:"snapId"`
	Request snapRequest `json:"request"`
}

// jsonrpcMessage is a JSON-RPC 2.0 envelope whose params is a single object
type jsonrpcMessage struct {
	Version string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method,omitempty"`
	Params  any             `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonError      `json:"error,omitempty"`
}

type jsonError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *jsonError) Error() string  { return e.Message }
func (e *jsonError) ErrorCode() int { return e.Code }

// Client calls the wallet through a go-ethereum JSON-RPC client. Snap methods
// take their params by name, which go-ethereum cannot encode, so those are
// posted as raw JSON-RPC envelopes.
type Client struct {
	rpc        *rpc.Client
	httpClient *http.Client
	nextID     atomic.Uint64
	config     *Config
	logger     *zap.Logger
}

// NewClient creates a new snap client
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.BridgeURL == "" {
		return nil, fmt.Errorf("bridge URL is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	cfg := *config
	if cfg.SnapID == "" {
		cfg.SnapID = DefaultSnapID
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	client, err := rpc.DialOptions(context.Background(), cfg.BridgeURL, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to dial wallet bridge: %w", err)
	}
	return &Client{rpc: client, httpClient: httpClient, config: &cfg, logger: logger}, nil
}

// call invokes a wallet method with positional params
func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	c.logger.Sugar().Debugw("Calling wallet", "method", method)
	return wrapCallError(method, c.rpc.CallContext(ctx, result, method, args...))
}

// callByName invokes a wallet method whose params is a single object
func (c *Client) callByName(ctx context.Context, result any, method string, params any) error {
	c.logger.Sugar().Debugw("Calling wallet", "method", method)
	body, err := json.Marshal(&jsonrpcMessage{
		Version: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BridgeURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapCallError(method, err)
	}
	defer func() { _ = resp.Body.Close() }()
	respBody, err := wire.ReadBody(resp.Body, wire.MaxMessageBytes)
	if err != nil {
		return wrapCallError(method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s failed: %s: %s", method, resp.Status, strings.TrimSpace(string(respBody)))
	}

	var msg jsonrpcMessage
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if msg.Error != nil {
		return wrapCallError(method, msg.Error)
	}
	if len(msg.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg.Result, result); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

func wrapCallError(method string, err error) error {
	if err == nil {
		return nil
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == userRejectedCode {
		return fmt.Errorf("%s: %w", method, ErrUserRejected)
	}
	return fmt.Errorf("%s failed: %w", method, err)
}

func (c *Client) GetSnaps(ctx context.Context) (GetSnapsResponse, error) {
	var snaps GetSnapsResponse
	if err := c.call(ctx, &snaps, "wallet_getSnaps"); err != nil {
		return nil, err
	}
	return snaps, nil
}

func (c *Client) GetSnap(ctx context.Context, version string) (*Snap, error) {
	snaps, err := c.GetSnaps(ctx)
	if err != nil {
		return nil, err
	}
	for _, snap := range snaps {
		if snap.ID == c.config.SnapID && (version == "" || snap.Version == version) {
			return &snap, nil
		}
	}
	return nil, nil
}

func (c *Client) ConnectSnap(ctx context.Context, params map[string]any) error {
	if params == nil {
		params = map[string]any{}
	}
	var result any
	return c.callByName(ctx, &result, "wallet_requestSnaps", map[string]any{c.config.SnapID: params})
}

func (c *Client) SignRequest(ctx context.Context, message string) (*SignResponse, error) {
	params := invokeSnapParams{
		SnapID: c.config.SnapID,
		Request: snapRequest{
			Method: signRequestMethod,
			Params: map[string]any{"message": message},
		},
	}
	var resp *SignResponse
	if err := c.callByName(ctx, &resp, "wallet_invokeSnap", params); err != nil {
		return nil, err
	}
	if resp == nil || resp.Signature == "" || resp.PublicKey == "" {
		return nil, fmt.Errorf("snap returned an empty signature")
	}
	return resp, nil
}

func (c *Client) RequestAccounts(ctx context.Context) ([]string, error) {
	var revoked any
	if err := c.call(ctx, &revoked, "wallet_revokePermissions", map[string]any{"eth_accounts": map[string]any{}}); err != nil {
		c.logger.Sugar().Debugw("Failed to revoke account permissions", "error", err)
	}
	var accounts []string
	if err := c.call(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

// IsLocalSnap reports whether id refers to a snap served from a local dev server
func IsLocalSnap(id string) bool {
	return strings.HasPrefix(id, "local:")
}
