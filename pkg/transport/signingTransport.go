package transport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/harbour-fi/ramp-go/pkg/signing"
)

// Headers attached to every signed request
const (
	HeaderSignature          = "X-Signature"
	HeaderSignatureType      = "X-Signature-Type"
	HeaderSignaturePublicKey = "X-Signature-PublicKey"
	HeaderEncoding           = "X-Encoding"
	HeaderSignatureTimestamp = "X-Signature-Timestamp"
)

// SignatureHeaders lists the headers SigningTransport adds, in the order it adds them
var SignatureHeaders = []string{
	HeaderSignature,
	HeaderSignatureType,
	HeaderSignaturePublicKey,
	HeaderEncoding,
	HeaderSignatureTimestamp,
}

// ErrUnsupportedBody is returned when a request body is not an in-memory byte
// body. It is a programming error in the caller, not a runtime failure.
var ErrUnsupportedBody = errors.New("unsupported body type")

/*
SigningTransport authenticates outgoing requests.

For every request it:
  - requires a binary, replayable body (bytes.Reader, bytes.Buffer or strings.Reader)
  - decodes the body to text and appends the current timestamp in milliseconds
  - asks the Signer to sign that payload
  - dispatches a copy of the request carrying the five X-Signature* headers

The body itself is sent unmodified. The caller's *http.Request is never
mutated. Nothing is retried here; signer and network failures are returned to
the caller as they are.
*/
type SigningTransport struct {
	base   http.RoundTripper
	signer signing.Signer
	now    func() time.Time
	logger *zap.Logger
}

var _ http.RoundTripper = (*SigningTransport)(nil)

// Option configures a SigningTransport
type Option func(t *SigningTransport)

// WithBase sets the transport the signed request is dispatched with
func WithBase(base http.RoundTripper) Option {
	return func(t *SigningTransport) {
		t.base = base
	}
}

// WithClock overrides the clock used for the signature timestamp
func WithClock(now func() time.Time) Option {
	return func(t *SigningTransport) {
		t.now = now
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(t *SigningTransport) {
		t.logger = logger
	}
}

func NewSigningTransport(signer signing.Signer, options ...Option) *SigningTransport {
	t := &SigningTransport{
		signer: signer,
	}
	for _, opt := range options {
		opt(t)
	}
	if t.base == nil {
		t.base = http.DefaultTransport
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	return t
}

// NewSigningHTTPClient returns an *http.Client whose every request is signed by signer
func NewSigningHTTPClient(signer signing.Signer, timeout time.Duration, options ...Option) *http.Client {
	return &http.Client{
		Transport: NewSigningTransport(signer, options...),
		Timeout:   timeout,
	}
}

func (t *SigningTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// The original body is ours to close per the RoundTripper contract; the
	// signed copy gets its own reader.
	if req.Body != nil {
		defer func() { _ = req.Body.Close() }()
	}

	body, err := readBody(req)
	if err != nil {
		return nil, err
	}

	timestamp := signing.Timestamp(t.now())
	payload, err := signing.SigningPayload(body, timestamp)
	if err != nil {
		return nil, err
	}

	signature, err := t.signer.Sign(req.Context(), payload)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}
	if signature == nil {
		return nil, fmt.Errorf("failed to sign request: signer returned no signature")
	}

	signed := req.Clone(req.Context())
	signed.Body = io.NopCloser(bytes.NewReader(body))
	signed.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	signed.ContentLength = int64(len(body))

	signed.Header.Add(HeaderSignature, signature.Signature)
	signed.Header.Add(HeaderSignatureType, signature.SignatureType())
	signed.Header.Add(HeaderSignaturePublicKey, signature.PublicKey)
	signed.Header.Add(HeaderEncoding, signature.EncodingAlgorithm.String())
	signed.Header.Add(HeaderSignatureTimestamp, timestamp)

	t.logger.Sugar().Debugw("Dispatching signed request",
		"method", signed.Method,
		"url", signed.URL.String(),
		"timestamp", timestamp,
		"signature_type", signature.SignatureType(),
	)

	return t.base.RoundTrip(signed)
}

// readBody returns the request body bytes without consuming req.Body. Only
// replayable bodies qualify; an empty binary message is fine. connect-go
// leaves the body of an empty unary message unset.
func readBody(req *http.Request) ([]byte, error) {
	if req.Body == http.NoBody || (req.Body == nil && req.Method == http.MethodPost) {
		return []byte{}, nil
	}
	if req.GetBody == nil {
		return nil, ErrUnsupportedBody
	}
	rc, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() { _ = rc.Close() }()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return body, nil
}
