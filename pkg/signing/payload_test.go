package signing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigningPayload(t *testing.T) {
	tests := []struct {
		name      string
		body      []byte
		timestamp string
		expected  string
	}{
		{
			name:      "plain text",
			body:      []byte("hello"),
			timestamp: "1700000000000",
			expected:  "hello1700000000000",
		},
		{
			name:      "empty body",
			body:      []byte{},
			timestamp: "42",
			expected:  "42",
		},
		{
			name:      "protobuf bytes",
			body:      []byte{0x0a, 0x03, 'a', 'b', 'c'},
			timestamp: "1",
			expected:  "\n\x03abc1",
		},
		{
			name:      "invalid utf8 is replaced",
			body:      []byte{'a', 0xff, 'b'},
			timestamp: "7",
			expected:  "a�b7",
		},
		{
			name:      "leading bom is dropped",
			body:      []byte{0xef, 0xbb, 0xbf, 'x'},
			timestamp: "9",
			expected:  "x9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := SigningPayload(tt.body, tt.timestamp)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, payload)
		})
	}
}

func TestTimestamp(t *testing.T) {
	now := time.UnixMilli(1712345678901)
	ts := Timestamp(now)
	assert.Equal(t, "1712345678901", ts)

	parsed, err := ParseTimestamp(ts)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(now))

	_, err = ParseTimestamp("not-a-number")
	require.Error(t, err)
}

func TestEncodeDecode(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef}

	hexText, err := Encode(EncodingAlgorithmHex, data)
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", hexText)

	decoded, err := Decode(EncodingAlgorithmHex, "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, data, decoded)

	b64, err := Encode(EncodingAlgorithmBase64, data)
	require.NoError(t, err)
	assert.Equal(t, "3q2+7w==", b64)

	_, err = Encode(EncodingAlgorithm("rot13"), data)
	require.Error(t, err)
}

func TestDigest(t *testing.T) {
	keccak, err := Digest(HashingAlgorithmKeccak256, []byte(""))
	require.NoError(t, err)
	hexText, _ := Encode(EncodingAlgorithmHex, keccak)
	assert.Equal(t, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", hexText)

	sha, err := Digest(HashingAlgorithmSHA256, []byte(""))
	require.NoError(t, err)
	hexText, _ = Encode(EncodingAlgorithmHex, sha)
	assert.Equal(t, "0xe3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", hexText)

	_, err = Digest(HashingAlgorithm("md5"), nil)
	require.Error(t, err)
}

func TestSignatureConfig(t *testing.T) {
	assert.Equal(t, "keccak256/secp256k1", EthereumSignature.SignatureType())
	assert.Equal(t, "sha256/secp256k1", CosmosSignature.SignatureType())
	// X-Encoding values on the wire
	assert.Equal(t, "hex", EthereumSignature.EncodingAlgorithm.String())
	assert.Equal(t, "base64", CosmosSignature.EncodingAlgorithm.String())
	require.NoError(t, EthereumSignature.Validate())
	require.NoError(t, CosmosSignature.Validate())

	bad := EthereumSignature
	bad.SigningAlgorithm = "ed25519"
	require.Error(t, bad.Validate())
}
