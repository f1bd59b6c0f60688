package rampClient

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/harbour-fi/ramp-go/pkg/signing"
	"github.com/harbour-fi/ramp-go/pkg/signing/inMemorySigner"
	"github.com/harbour-fi/ramp-go/pkg/transport"
	"github.com/harbour-fi/ramp-go/pkg/types"
	"github.com/harbour-fi/ramp-go/pkg/wire"
)

const defaultTimeout = 30 * time.Second

// ClientConfig holds the configuration for the ramp client
type ClientConfig struct {
	// Endpoint is the base URL of the ramp API
	Endpoint string
	// Signer signs every request sent to the ramp API
	Signer signing.Signer
	Logger *zap.Logger

	// Transport is the round tripper signed requests are dispatched through.
	// Defaults to http.DefaultTransport.
	Transport http.RoundTripper
	// Limiter throttles outgoing calls when set
	Limiter *rate.Limiter
	Timeout time.Duration
	// Now overrides the clock used for signature timestamps
	Now func() time.Time
}

// Client calls the ramp service. Every call is signed by the configured signer.
type Client struct {
	endpoint string
	limiter  *rate.Limiter
	logger   *zap.Logger

	getAccountInfo     *connect.Client[types.GetAccountInfoRequest, types.GetAccountInfoResponse]
	whitelistAddress   *connect.Client[types.WhitelistAddressRequest, types.WhitelistAddressResponse]
	removeAddress      *connect.Client[types.RemoveAddressRequest, types.RemoveAddressResponse]
	setBankAccount     *connect.Client[types.SetBankAccountRequest, types.SetBankAccountResponse]
	estimateOnRampFee  *connect.Client[types.EstimateOnRampFeeRequest, types.EstimateOnRampFeeResponse]
	estimateOffRampFee *connect.Client[types.EstimateOffRampFeeRequest, types.EstimateOffRampFeeResponse]
}

// NewClient creates a new ramp client
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if config.Signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	options := []transport.Option{transport.WithLogger(config.Logger)}
	if config.Transport != nil {
		options = append(options, transport.WithBase(config.Transport))
	}
	if config.Now != nil {
		options = append(options, transport.WithClock(config.Now))
	}

	endpoint := strings.TrimSuffix(config.Endpoint, "/")
	httpClient := transport.NewSigningHTTPClient(config.Signer, timeout, options...)
	procedure := func(method string) string {
		return wire.ProcedurePath(types.ServiceName, method)
	}

	return &Client{
		endpoint: endpoint,
		limiter:  config.Limiter,
		logger:   config.Logger,

		getAccountInfo: wire.NewUnaryClient[types.GetAccountInfoRequest, types.GetAccountInfoResponse](
			httpClient, endpoint, procedure(types.MethodGetAccountInfo)),
		whitelistAddress: wire.NewUnaryClient[types.WhitelistAddressRequest, types.WhitelistAddressResponse](
			httpClient, endpoint, procedure(types.MethodWhitelistAddress)),
		removeAddress: wire.NewUnaryClient[types.RemoveAddressRequest, types.RemoveAddressResponse](
			httpClient, endpoint, procedure(types.MethodRemoveAddress)),
		setBankAccount: wire.NewUnaryClient[types.SetBankAccountRequest, types.SetBankAccountResponse](
			httpClient, endpoint, procedure(types.MethodSetBankAccount)),
		estimateOnRampFee: wire.NewUnaryClient[types.EstimateOnRampFeeRequest, types.EstimateOnRampFeeResponse](
			httpClient, endpoint, procedure(types.MethodEstimateOnRampFee)),
		estimateOffRampFee: wire.NewUnaryClient[types.EstimateOffRampFeeRequest, types.EstimateOffRampFeeResponse](
			httpClient, endpoint, procedure(types.MethodEstimateOffRampFee)),
	}, nil
}

// GetAccountInfo returns the account of the signing user. When the user still
// has to onboard or log in, the response carries an authentication URL instead.
func (c *Client) GetAccountInfo(ctx context.Context, req *types.GetAccountInfoRequest) (*types.GetAccountInfoResponse, error) {
	if req == nil {
		req = &types.GetAccountInfoRequest{}
	}
	resp, err := call(ctx, c, types.MethodGetAccountInfo, c.getAccountInfo, req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// WhitelistAddress registers an address crypto can be on-ramped to. The
// request must carry a signature of the address made with its own key.
func (c *Client) WhitelistAddress(ctx context.Context, req *types.WhitelistAddressRequest) (*types.WhitelistAddressResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}
	resp, err := call(ctx, c, types.MethodWhitelistAddress, c.whitelistAddress, req)
	if err != nil {
		return nil, err
	}
	c.logger.Sugar().Infow("Whitelisted address",
		"protocol", req.Protocol,
		"address", req.Address,
		"name", req.Name,
	)
	return resp, nil
}

// RemoveAddress removes a whitelisted address
func (c *Client) RemoveAddress(ctx context.Context, req *types.RemoveAddressRequest) (*types.RemoveAddressResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}
	resp, err := call(ctx, c, types.MethodRemoveAddress, c.removeAddress, req)
	if err != nil {
		return nil, err
	}
	c.logger.Sugar().Infow("Removed address", "protocol", req.Protocol, "address", req.Address)
	return resp, nil
}

// SetBankAccount sets the bank account used for off-ramping. Validation
// failures come back in the response errors, not as an error.
func (c *Client) SetBankAccount(ctx context.Context, req *types.SetBankAccountRequest) (*types.SetBankAccountResponse, error) {
	if req == nil || req.BankAccount == nil {
		return nil, fmt.Errorf("bank account is required")
	}
	resp, err := call(ctx, c, types.MethodSetBankAccount, c.setBankAccount, req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) EstimateOnRampFee(ctx context.Context, req *types.EstimateOnRampFeeRequest) (*types.EstimateOnRampFeeResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}
	resp, err := call(ctx, c, types.MethodEstimateOnRampFee, c.estimateOnRampFee, req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) EstimateOffRampFee(ctx context.Context, req *types.EstimateOffRampFeeRequest) (*types.EstimateOffRampFeeResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}
	resp, err := call(ctx, c, types.MethodEstimateOffRampFee, c.estimateOffRampFee, req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// WhitelistOwnedAddress whitelists the address of ownerKey, proving ownership
// with a personal message signature of the address made by the same key.
func (c *Client) WhitelistOwnedAddress(
	ctx context.Context,
	protocol types.Protocol,
	name string,
	ownerKey *ecdsa.PrivateKey,
) (*types.WhitelistAddressResponse, error) {
	if ownerKey == nil {
		return nil, fmt.Errorf("owner key is required")
	}
	owner, err := inMemorySigner.NewInMemorySigner(ownerKey, signing.EthereumSignature, c.logger)
	if err != nil {
		return nil, err
	}
	req, err := NewWhitelistAddressRequest(owner, protocol, name)
	if err != nil {
		return nil, err
	}
	return c.WhitelistAddress(ctx, req)
}

// NewWhitelistAddressRequest builds a whitelist request for the owner's
// address. Only EVM protocols can prove ownership with a personal signature.
func NewWhitelistAddressRequest(owner *inMemorySigner.InMemorySigner, protocol types.Protocol, name string) (*types.WhitelistAddressRequest, error) {
	if !protocol.IsEVM() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, protocol)
	}
	address := owner.Address().Hex()
	proof, err := owner.SignPersonalMessage([]byte(address))
	if err != nil {
		return nil, fmt.Errorf("failed to sign address: %w", err)
	}
	return &types.WhitelistAddressRequest{
		Protocol:         protocol,
		Name:             name,
		Address:          address,
		PublicKey:        hexutil.Encode(crypto.CompressPubkey(owner.PublicKey())),
		AddressSignature: hexutil.Encode(proof),
	}, nil
}
