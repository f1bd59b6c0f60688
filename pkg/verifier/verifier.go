package verifier

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/harbour-fi/ramp-go/pkg/signing"
	"github.com/harbour-fi/ramp-go/pkg/transport"
	"github.com/harbour-fi/ramp-go/pkg/wire"
)

const (
	// DefaultTimeWindow is how old a signature timestamp may be
	DefaultTimeWindow = 5 * time.Minute

	// DefaultMaxClockSkew is how far in the future a timestamp may be
	DefaultMaxClockSkew = 30 * time.Second
)

var (
	ErrMissingHeader    = errors.New("missing signature header")
	ErrExpiredSignature = errors.New("signature timestamp outside of time window")
	ErrInvalidSignature = errors.New("invalid signature")
)

type Config struct {
	TimeWindow   time.Duration
	MaxClockSkew time.Duration
	Now          func() time.Time
}

// Identity is the verified signer of a request
type Identity struct {
	// ID is the hex encoded compressed public key; it is the same for a key
	// whichever signature scheme it signed with
	ID        string
	PublicKey *ecdsa.PublicKey
	Address   common.Address
	// CosmosAddress is the bech32 account address of the same key
	CosmosAddress string
	Signature     *signing.Signature
	Timestamp     time.Time
}

// Verifier checks request signatures produced by the signing transport
type Verifier struct {
	config Config
	logger *zap.Logger
}

func NewVerifier(config *Config, logger *zap.Logger) *Verifier {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	if cfg.TimeWindow == 0 {
		cfg.TimeWindow = DefaultTimeWindow
	}
	if cfg.MaxClockSkew == 0 {
		cfg.MaxClockSkew = DefaultMaxClockSkew
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{config: cfg, logger: logger}
}

// ParseHeaders extracts the signature and its timestamp from request headers
func ParseHeaders(header http.Header) (*signing.Signature, string, error) {
	values := make(map[string]string, len(transport.SignatureHeaders))
	for _, name := range transport.SignatureHeaders {
		v := header.Get(name)
		if v == "" {
			return nil, "", fmt.Errorf("%w: %s", ErrMissingHeader, name)
		}
		values[name] = v
	}

	hashing, signingAlg, ok := strings.Cut(values[transport.HeaderSignatureType], "/")
	if !ok {
		return nil, "", fmt.Errorf("malformed %s header: %q", transport.HeaderSignatureType, values[transport.HeaderSignatureType])
	}
	cfg := signing.SignatureConfig{
		HashingAlgorithm:  signing.HashingAlgorithm(hashing),
		SigningAlgorithm:  signing.SigningAlgorithm(signingAlg),
		EncodingAlgorithm: signing.EncodingAlgorithm(values[transport.HeaderEncoding]),
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &signing.Signature{
		Signature:       values[transport.HeaderSignature],
		PublicKey:       values[transport.HeaderSignaturePublicKey],
		SignatureConfig: cfg,
	}, values[transport.HeaderSignatureTimestamp], nil
}

// Verify rebuilds the signing payload from body and the header timestamp and
// checks the signature against the public key sent along with it.
func (v *Verifier) Verify(body []byte, header http.Header) (*Identity, error) {
	sig, timestamp, err := ParseHeaders(header)
	if err != nil {
		return nil, err
	}

	signedAt, err := signing.ParseTimestamp(timestamp)
	if err != nil {
		return nil, err
	}
	age := v.config.Now().Sub(signedAt)
	if age > v.config.TimeWindow || -age > v.config.MaxClockSkew {
		return nil, fmt.Errorf("%w (age: %v, max: %v)", ErrExpiredSignature, age, v.config.TimeWindow)
	}

	payload, err := signing.SigningPayload(body, timestamp)
	if err != nil {
		return nil, err
	}
	if err := signing.VerifySignature(sig, []byte(payload)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	pub, err := signing.ParsePublicKey(sig.EncodingAlgorithm, sig.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	cosmosAddress, err := signing.CosmosAddress(pub, signing.CosmosHRP)
	if err != nil {
		return nil, err
	}
	return &Identity{
		ID:            hexutil.Encode(crypto.CompressPubkey(pub)),
		PublicKey:     pub,
		Address:       crypto.PubkeyToAddress(*pub),
		CosmosAddress: cosmosAddress,
		Signature:     sig,
		Timestamp:     signedAt,
	}, nil
}

type identityContextKey struct{}

// WithIdentity returns a context carrying the verified identity
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the identity stored by Middleware
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*Identity)
	return id, ok && id != nil
}

// Middleware rejects requests without a valid signature as unauthenticated
// and bodies over wire.MaxMessageBytes as resource_exhausted. Verified
// requests reach next with the identity in their context and the body intact.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	errorWriter := connect.NewErrorWriter()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := wire.ReadBody(r.Body, wire.MaxMessageBytes)
		_ = r.Body.Close()
		if err != nil {
			code := connect.CodeInvalidArgument
			if errors.Is(err, wire.ErrMessageTooLarge) {
				code = connect.CodeResourceExhausted
			}
			_ = errorWriter.Write(w, r, connect.NewError(code, err))
			return
		}

		id, err := v.Verify(body, r.Header)
		if err != nil {
			v.logger.Sugar().Warnw("Rejected unsigned or invalid request",
				"path", r.URL.Path,
				"error", err,
			)
			_ = errorWriter.Write(w, r, connect.NewError(connect.CodeUnauthenticated, err))
			return
		}
		v.logger.Sugar().Debugw("Verified request signature",
			"path", r.URL.Path,
			"signer", id.ID,
			"signature_type", id.Signature.SignatureType(),
		)

		r = r.WithContext(WithIdentity(r.Context(), id))
		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		next.ServeHTTP(w, r)
	})
}

// VerifyAddressOwnership checks that addressSignature is a personal message
// signature of address made by the key behind publicKey, and that the key
// controls address.
func VerifyAddressOwnership(address, publicKey, addressSignature string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid address: %q", address)
	}
	pub, err := signing.ParsePublicKey(signing.EncodingAlgorithmHex, publicKey)
	if err != nil {
		return err
	}
	if crypto.PubkeyToAddress(*pub) != common.HexToAddress(address) {
		return fmt.Errorf("public key does not control address %s", address)
	}

	sig, err := hexutil.Decode(addressSignature)
	if err != nil {
		return fmt.Errorf("failed to decode address signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("invalid signature length: expected %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	sig = append([]byte(nil), sig...)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	recovered, err := crypto.SigToPub(accounts.TextHash([]byte(address)), sig)
	if err != nil {
		return fmt.Errorf("failed to recover address signer: %w", err)
	}
	if crypto.PubkeyToAddress(*recovered) != common.HexToAddress(address) {
		return fmt.Errorf("address signature was not made by %s", address)
	}
	return nil
}
