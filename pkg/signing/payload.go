package signing

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/text/encoding/unicode"
)

// Timestamp renders t as milliseconds since the unix epoch
func Timestamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseTimestamp is the inverse of Timestamp
func ParseTimestamp(ts string) (time.Time, error) {
	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}
	return time.UnixMilli(ms), nil
}

// DecodeBody decodes a binary request body to text. A leading byte order mark
// is dropped and invalid UTF-8 is replaced with U+FFFD, so any body can be
// decoded.
func DecodeBody(body []byte) (string, error) {
	text, err := unicode.UTF8BOM.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("failed to decode body: %w", err)
	}
	return string(text), nil
}

// SigningPayload builds the exact string handed to a Signer: the decoded body
// followed directly by the timestamp.
func SigningPayload(body []byte, timestamp string) (string, error) {
	text, err := DecodeBody(body)
	if err != nil {
		return "", err
	}
	return text + timestamp, nil
}

// Digest hashes data with the configured hashing algorithm
func Digest(algorithm HashingAlgorithm, data []byte) ([]byte, error) {
	switch algorithm {
	case HashingAlgorithmKeccak256:
		return crypto.Keccak256(data), nil
	case HashingAlgorithmSHA256:
		sum := sha256.Sum256(data)
		return sum[:], nil
	default:
		return nil, fmt.Errorf("unsupported hashing algorithm: %q", algorithm)
	}
}

// Encode renders raw bytes as text. Hex output carries a 0x prefix.
func Encode(encoding EncodingAlgorithm, data []byte) (string, error) {
	switch encoding {
	case EncodingAlgorithmHex:
		return "0x" + hex.EncodeToString(data), nil
	case EncodingAlgorithmBase64:
		return base64.StdEncoding.EncodeToString(data), nil
	default:
		return "", fmt.Errorf("unsupported encoding algorithm: %q", encoding)
	}
}

// Decode is the inverse of Encode. Hex input may omit the 0x prefix.
func Decode(encoding EncodingAlgorithm, text string) ([]byte, error) {
	switch encoding {
	case EncodingAlgorithmHex:
		text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
		return hex.DecodeString(text)
	case EncodingAlgorithmBase64:
		return base64.StdEncoding.DecodeString(text)
	default:
		return nil, fmt.Errorf("unsupported encoding algorithm: %q", encoding)
	}
}
