package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/harbour-fi/ramp-go/pkg/signing"
	"github.com/harbour-fi/ramp-go/pkg/types"
)

// Environment variable names for the ramp client
const (
	EnvRampEndpoint        = "RAMP_ENDPOINT"
	EnvRampSigner          = "RAMP_SIGNER"
	EnvRampSignatureScheme = "RAMP_SIGNATURE_SCHEME"
	EnvRampPrivateKey      = "RAMP_PRIVATE_KEY"
	EnvRampSnapBridgeURL   = "RAMP_SNAP_BRIDGE_URL"
	EnvRampSnapID          = "RAMP_SNAP_ID"
	EnvRampSnapVersion     = "RAMP_SNAP_VERSION"
	EnvRampAwsKmsKeyID     = "RAMP_AWS_KMS_KEY_ID"
	EnvRampAwsRegion       = "RAMP_AWS_REGION"
	EnvRampTimeout         = "RAMP_TIMEOUT"
	EnvRampRateLimit       = "RAMP_RATE_LIMIT"
	EnvRampStore           = "RAMP_STORE"
	EnvRampRedisAddress    = "RAMP_REDIS_ADDRESS"
	EnvRampRedisPassword   = "RAMP_REDIS_PASSWORD"
	EnvRampRedisDB         = "RAMP_REDIS_DB"
	EnvRampBadgerDir       = "RAMP_BADGER_DIR"
	EnvRampRPCURL          = "RAMP_RPC_URL"
	EnvRampNetwork         = "RAMP_NETWORK"
	EnvRampDebug           = "RAMP_DEBUG"
)

// Environment variable names for the development ramp server
const (
	EnvRampServerPort          = "RAMP_SERVER_PORT"
	EnvRampServerAuthURL       = "RAMP_SERVER_AUTH_URL"
	EnvRampServerAutoOnboard   = "RAMP_SERVER_AUTO_ONBOARD"
	EnvRampServerProcessingFee = "RAMP_SERVER_PROCESSING_FEE"
	EnvRampServerMetrics       = "RAMP_SERVER_METRICS"
)

type SignerType string

func (s SignerType) String() string {
	return string(s)
}

const (
	SignerType_InMemory SignerType = "inmemory"
	SignerType_Snap     SignerType = "snap"
	SignerType_AwsKms   SignerType = "awskms"
)

type SignatureScheme string

const (
	SignatureScheme_Ethereum SignatureScheme = "ethereum"
	SignatureScheme_Cosmos   SignatureScheme = "cosmos"
)

// SignatureConfigForScheme returns the signature configuration of an ecosystem
func SignatureConfigForScheme(scheme SignatureScheme) (signing.SignatureConfig, error) {
	switch scheme {
	case SignatureScheme_Ethereum, "":
		return signing.EthereumSignature, nil
	case SignatureScheme_Cosmos:
		return signing.CosmosSignature, nil
	default:
		return signing.SignatureConfig{}, fmt.Errorf("unsupported signature scheme: %s", scheme)
	}
}

type StoreType string

const (
	StoreType_Memory StoreType = "memory"
	StoreType_Redis  StoreType = "redis"
	StoreType_Badger StoreType = "badger"
)

type ChainId uint

const (
	ChainId_EthereumMainnet ChainId = 1
	ChainId_PolygonMainnet  ChainId = 137
	ChainId_PolygonAmoy     ChainId = 80002
	ChainId_AvaxFuji        ChainId = 43113
	ChainId_AvaxCMainnet    ChainId = 43114
)

// USDCDecimals is the number of decimals of USDC on every supported network
const USDCDecimals = 6

// NetworkInfo describes where USDC lives on a network
type NetworkInfo struct {
	Network     types.Network
	Protocol    types.Protocol
	ChainID     ChainId
	USDCAddress common.Address
}

var Networks = map[types.Network]*NetworkInfo{
	types.Network_EthereumMainnet: {
		Network:     types.Network_EthereumMainnet,
		Protocol:    types.Protocol_Ethereum,
		ChainID:     ChainId_EthereumMainnet,
		USDCAddress: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
	},
	types.Network_AvaxCMainnet: {
		Network:     types.Network_AvaxCMainnet,
		Protocol:    types.Protocol_Avax,
		ChainID:     ChainId_AvaxCMainnet,
		USDCAddress: common.HexToAddress("0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E"),
	},
	types.Network_AvaxFuji: {
		Network:     types.Network_AvaxFuji,
		Protocol:    types.Protocol_Avax,
		ChainID:     ChainId_AvaxFuji,
		USDCAddress: common.HexToAddress("0x5425890298aed601595a70AB815c96711a31Bc65"),
	},
	types.Network_PolygonMainnet: {
		Network:     types.Network_PolygonMainnet,
		Protocol:    types.Protocol_Polygon,
		ChainID:     ChainId_PolygonMainnet,
		USDCAddress: common.HexToAddress("0x3c499c542cef5e3811e1192ce70d8cc03d5c3359"),
	},
	types.Network_PolygonAmoy: {
		Network:     types.Network_PolygonAmoy,
		Protocol:    types.Protocol_Polygon,
		ChainID:     ChainId_PolygonAmoy,
		USDCAddress: common.HexToAddress("0x41e94eb019c0762f9bfcf9fb1e58725bfb0e7582"),
	},
}

func GetNetworkInfo(network types.Network) (*NetworkInfo, error) {
	info, ok := Networks[network]
	if !ok {
		return nil, fmt.Errorf("unsupported network: %s", network)
	}
	return info, nil
}

// GetSupportedNetworksString returns supported network names for CLI help
func GetSupportedNetworksString() string {
	names := make([]string, 0, len(Networks))
	for _, n := range []types.Network{
		types.Network_EthereumMainnet,
		types.Network_AvaxCMainnet,
		types.Network_AvaxFuji,
		types.Network_PolygonMainnet,
		types.Network_PolygonAmoy,
	} {
		names = append(names, n.String())
	}
	return strings.Join(names, ", ")
}

type SnapConfig struct {
	BridgeURL string `json:"bridgeUrl" yaml:"bridgeUrl"`
	SnapID    string `json:"snapId" yaml:"snapId"`
	Version   string `json:"version" yaml:"version"`
}

type AwsKmsConfig struct {
	KeyID  string `json:"keyId" yaml:"keyId"`
	Region string `json:"region" yaml:"region"`
}

type StoreConfig struct {
	Type          StoreType `json:"type" yaml:"type"`
	RedisAddress  string    `json:"redisAddress" yaml:"redisAddress"`
	RedisPassword string    `json:"redisPassword" yaml:"redisPassword"`
	RedisDB       int       `json:"redisDb" yaml:"redisDb"`
	BadgerDir     string    `json:"badgerDir" yaml:"badgerDir"`
}

func (sc *StoreConfig) Validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList
	switch sc.Type {
	case StoreType_Memory, "":
	case StoreType_Redis:
		if sc.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(path.Child("redisAddress"), "redisAddress is required for the redis store"))
		}
		if sc.RedisDB < 0 || sc.RedisDB > 15 {
			allErrors = append(allErrors, field.Invalid(path.Child("redisDb"), sc.RedisDB, "must be between 0-15"))
		}
	case StoreType_Badger:
		if sc.BadgerDir == "" {
			allErrors = append(allErrors, field.Required(path.Child("badgerDir"), "badgerDir is required for the badger store"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), sc.Type,
			[]string{string(StoreType_Memory), string(StoreType_Redis), string(StoreType_Badger)}))
	}
	return allErrors
}

// ClientConfig is the configuration of the ramp CLI
type ClientConfig struct {
	Endpoint  string          `json:"endpoint" yaml:"endpoint"`
	Signer    SignerType      `json:"signer" yaml:"signer"`
	Scheme    SignatureScheme `json:"scheme" yaml:"scheme"`
	Timeout   time.Duration   `json:"timeout" yaml:"timeout"`
	RateLimit float64         `json:"rateLimit" yaml:"rateLimit"`
	Debug     bool            `json:"debug" yaml:"debug"`

	PrivateKey string       `json:"-" yaml:"-"`
	Snap       SnapConfig   `json:"snap" yaml:"snap"`
	AwsKms     AwsKmsConfig `json:"awsKms" yaml:"awsKms"`
	Store      StoreConfig  `json:"store" yaml:"store"`
}

// Validate validates the client configuration
func (c *ClientConfig) Validate() error {
	var allErrors field.ErrorList
	if c.Endpoint == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("endpoint"), "endpoint is required"))
	} else if !strings.HasPrefix(c.Endpoint, "http://") && !strings.HasPrefix(c.Endpoint, "https://") {
		allErrors = append(allErrors, field.Invalid(field.NewPath("endpoint"), c.Endpoint, "must be an http(s) URL"))
	}
	if _, err := SignatureConfigForScheme(c.Scheme); err != nil {
		allErrors = append(allErrors, field.NotSupported(field.NewPath("scheme"), c.Scheme,
			[]string{string(SignatureScheme_Ethereum), string(SignatureScheme_Cosmos)}))
	}
	allErrors = append(allErrors, c.validateSigner()...)
	if c.Timeout < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("timeout"), c.Timeout, "must not be negative"))
	}
	if c.RateLimit < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("rateLimit"), c.RateLimit, "must not be negative"))
	}
	allErrors = append(allErrors, c.Store.Validate(field.NewPath("store"))...)

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

func (c *ClientConfig) validateSigner() field.ErrorList {
	var allErrors field.ErrorList
	switch c.Signer {
	case SignerType_InMemory:
		if c.PrivateKey == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("privateKey"), "privateKey is required for the inmemory signer"))
		}
	case SignerType_Snap:
		if c.Snap.BridgeURL == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("snap", "bridgeUrl"), "bridgeUrl is required for the snap signer"))
		}
	case SignerType_AwsKms:
		if c.AwsKms.KeyID == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("awsKms", "keyId"), "keyId is required for the awskms signer"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("signer"), c.Signer,
			[]string{string(SignerType_InMemory), string(SignerType_Snap), string(SignerType_AwsKms)}))
	}
	return allErrors
}

// TransferConfig is the configuration for sending stablecoin to an off-ramp
type TransferConfig struct {
	RPCUrl     string        `json:"rpcUrl" yaml:"rpcUrl"`
	Network    types.Network `json:"network" yaml:"network"`
	PrivateKey string        `json:"-" yaml:"-"`
}

func (tc *TransferConfig) Validate() error {
	var allErrors field.ErrorList
	if tc.RPCUrl == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("rpcUrl"), "rpcUrl is required"))
	}
	if _, err := GetNetworkInfo(tc.Network); err != nil {
		allErrors = append(allErrors, field.Invalid(field.NewPath("network"), tc.Network.String(), err.Error()))
	}
	if tc.PrivateKey == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("privateKey"), "privateKey is required"))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// ServerConfig is the configuration of the development ramp server
type ServerConfig struct {
	Port              int    `json:"port" yaml:"port"`
	AuthenticationURL string `json:"authenticationUrl" yaml:"authenticationUrl"`
	AutoOnboard       bool   `json:"autoOnboard" yaml:"autoOnboard"`
	Metrics           bool   `json:"metrics" yaml:"metrics"`
	Debug             bool   `json:"debug" yaml:"debug"`

	// ProcessingFeePercent is a decimal percentage, e.g. "0.5"
	ProcessingFeePercent string `json:"processingFeePercent" yaml:"processingFeePercent"`
	// NetworkFees are per network fees in crypto asset units
	NetworkFees map[types.Network]string `json:"networkFees" yaml:"networkFees"`
	// ExchangeRates are fiat per crypto unit, keyed by currency then crypto asset ID
	ExchangeRates map[string]map[string]string `json:"exchangeRates" yaml:"exchangeRates"`
	// Assets are the crypto assets the server offers
	Assets []*types.CryptoAsset `json:"assets" yaml:"assets"`
}

// DefaultServerConfig returns a server offering USDC on Avalanche Fuji
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:                 8080,
		AuthenticationURL:    "http://localhost:8080/onboard",
		ProcessingFeePercent: "0.5",
		NetworkFees: map[types.Network]string{
			types.Network_EthereumMainnet: "2.5",
			types.Network_AvaxCMainnet:    "0.1",
			types.Network_AvaxFuji:        "0.1",
			types.Network_PolygonMainnet:  "0.05",
			types.Network_PolygonAmoy:     "0.05",
		},
		ExchangeRates: map[string]map[string]string{
			"EUR": {"USDC": "0.92"},
			"GBP": {"USDC": "0.79"},
		},
		Assets: []*types.CryptoAsset{
			{
				AssetID:   "USDC",
				ShortName: "USDC",
				Name:      "USD Coin",
				Protocol:  types.Protocol_Avax,
				Network:   types.Network_AvaxFuji,
			},
		},
	}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	var allErrors field.ErrorList
	if c.Port < 1 || c.Port > 65535 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("port"), c.Port, "must be between 1-65535"))
	}
	if c.AuthenticationURL == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("authenticationUrl"), "authenticationUrl is required"))
	}
	if pct, err := types.ParseDecimal(c.ProcessingFeePercent); err != nil {
		allErrors = append(allErrors, field.Invalid(field.NewPath("processingFeePercent"), c.ProcessingFeePercent, err.Error()))
	} else if pct.Cmp(ratHundred) >= 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("processingFeePercent"), c.ProcessingFeePercent, "must be below 100"))
	}
	for network, fee := range c.NetworkFees {
		if _, err := types.ParseDecimal(fee); err != nil {
			allErrors = append(allErrors, field.Invalid(field.NewPath("networkFees").Key(network.String()), fee, err.Error()))
		}
	}
	if len(c.ExchangeRates) == 0 {
		allErrors = append(allErrors, field.Required(field.NewPath("exchangeRates"), "at least one exchange rate is required"))
	}
	for currency, rates := range c.ExchangeRates {
		for assetID, rate := range rates {
			path := field.NewPath("exchangeRates").Key(currency).Key(assetID)
			if r, err := types.ParseDecimal(rate); err != nil {
				allErrors = append(allErrors, field.Invalid(path, rate, err.Error()))
			} else if r.Sign() == 0 {
				allErrors = append(allErrors, field.Invalid(path, rate, "must be positive"))
			}
		}
	}
	if len(c.Assets) == 0 {
		allErrors = append(allErrors, field.Required(field.NewPath("assets"), "at least one asset is required"))
	}
	for i, asset := range c.Assets {
		path := field.NewPath("assets").Index(i)
		if asset.AssetID == "" {
			allErrors = append(allErrors, field.Required(path.Child("assetId"), "assetId is required"))
		}
		if info, err := GetNetworkInfo(asset.Network); err != nil {
			allErrors = append(allErrors, field.Invalid(path.Child("network"), asset.Network.String(), err.Error()))
		} else if info.Protocol != asset.Protocol {
			allErrors = append(allErrors, field.Invalid(path.Child("protocol"), asset.Protocol.String(),
				fmt.Sprintf("network %s belongs to protocol %s", asset.Network, info.Protocol)))
		}
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

var ratHundred = big.NewRat(100, 1)
