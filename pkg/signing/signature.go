package signing

import (
	"context"
	"fmt"
)

// HashingAlgorithm used for signing requests to the ramp API
type HashingAlgorithm string

const (
	HashingAlgorithmKeccak256 HashingAlgorithm = "keccak256"
	HashingAlgorithmSHA256    HashingAlgorithm = "sha256"
)

func (h HashingAlgorithm) String() string {
	return string(h)
}

// SigningAlgorithm used for signing requests to the ramp API
type SigningAlgorithm string

const (
	SigningAlgorithmSECP256K1 SigningAlgorithm = "secp256k1"
)

func (s SigningAlgorithm) String() string {
	return string(s)
}

// EncodingAlgorithm describes how the signature and public key are rendered as text
type EncodingAlgorithm string

const (
	EncodingAlgorithmHex    EncodingAlgorithm = "hex"
	EncodingAlgorithmBase64 EncodingAlgorithm = "base64"
)

func (e EncodingAlgorithm) String() string {
	return string(e)
}

// SignatureConfig is the algorithm triple a signer produces signatures with
type SignatureConfig struct {
	HashingAlgorithm  HashingAlgorithm  `json:"hashingAlgorithm"`
	SigningAlgorithm  SigningAlgorithm  `json:"signingAlgorithm"`
	EncodingAlgorithm EncodingAlgorithm `json:"encodingAlgorithm"`
}

// SignatureType renders the value of the X-Signature-Type header
func (sc SignatureConfig) SignatureType() string {
	return fmt.Sprintf("%s/%s", sc.HashingAlgorithm, sc.SigningAlgorithm)
}

func (sc SignatureConfig) Validate() error {
	switch sc.HashingAlgorithm {
	case HashingAlgorithmKeccak256, HashingAlgorithmSHA256:
	default:
		return fmt.Errorf("unsupported hashing algorithm: %q", sc.HashingAlgorithm)
	}
	if sc.SigningAlgorithm != SigningAlgorithmSECP256K1 {
		return fmt.Errorf("unsupported signing algorithm: %q", sc.SigningAlgorithm)
	}
	switch sc.EncodingAlgorithm {
	case EncodingAlgorithmHex, EncodingAlgorithmBase64:
	default:
		return fmt.Errorf("unsupported encoding algorithm: %q", sc.EncodingAlgorithm)
	}
	return nil
}

var (
	// EthereumSignature is the signature configuration of the Ethereum ecosystem
	EthereumSignature = SignatureConfig{
		HashingAlgorithm:  HashingAlgorithmKeccak256,
		SigningAlgorithm:  SigningAlgorithmSECP256K1,
		EncodingAlgorithm: EncodingAlgorithmHex,
	}

	// CosmosSignature is the signature configuration of the Cosmos ecosystem
	CosmosSignature = SignatureConfig{
		HashingAlgorithm:  HashingAlgorithmSHA256,
		SigningAlgorithm:  SigningAlgorithmSECP256K1,
		EncodingAlgorithm: EncodingAlgorithmBase64,
	}
)

// Signature is a signature with metadata for one particular request.
// It is produced fresh per request and never persisted.
type Signature struct {
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey"`
	SignatureConfig
}

// Signer signs arbitrary string data. Implementations are usually backed by
// something outside the process (a wallet extension, a KMS), so Sign may block
// and may fail because the user declined.
type Signer interface {
	Sign(ctx context.Context, data string) (*Signature, error)
}

// SignerFunc adapts an ordinary function to the Signer interface
type SignerFunc func(ctx context.Context, data string) (*Signature, error)

func (f SignerFunc) Sign(ctx context.Context, data string) (*Signature, error) {
	return f(ctx, data)
}
