package signing

import (
	"bytes"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// recoverable reports whether signatures under this config carry a recovery
// byte. Keccak-based (Ethereum) signatures do; sha256-based (Cosmos) ones are
// plain [R || S].
func (sc SignatureConfig) recoverable() bool {
	return sc.HashingAlgorithm == HashingAlgorithmKeccak256
}

// NewSecp256k1Signature renders a raw [R || S || V] signature (V in 0..1) and
// its public key according to cfg.
//
// Ethereum: 65 byte signature with V in 27..28, uncompressed public key.
// Cosmos:   64 byte signature, compressed public key.
func NewSecp256k1Signature(cfg SignatureConfig, sig []byte, pub *ecdsa.PublicKey) (*Signature, error) {
	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	if pub == nil {
		return nil, fmt.Errorf("public key is nil")
	}

	var sigBytes, pubBytes []byte
	if cfg.recoverable() {
		sigBytes = make([]byte, crypto.SignatureLength)
		copy(sigBytes, sig)
		sigBytes[crypto.RecoveryIDOffset] += 27
		pubBytes = crypto.FromECDSAPub(pub)
	} else {
		sigBytes = append([]byte(nil), sig[:crypto.RecoveryIDOffset]...)
		pubBytes = crypto.CompressPubkey(pub)
	}

	sigText, err := Encode(cfg.EncodingAlgorithm, sigBytes)
	if err != nil {
		return nil, err
	}
	pubText, err := Encode(cfg.EncodingAlgorithm, pubBytes)
	if err != nil {
		return nil, err
	}

	return &Signature{
		Signature:       sigText,
		PublicKey:       pubText,
		SignatureConfig: cfg,
	}, nil
}

// ParsePublicKey decodes a public key rendered by NewSecp256k1Signature.
// Both compressed and uncompressed forms are accepted.
func ParsePublicKey(encoding EncodingAlgorithm, text string) (*ecdsa.PublicKey, error) {
	raw, err := Decode(encoding, text)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}
	switch len(raw) {
	case 33:
		return crypto.DecompressPubkey(raw)
	case 65:
		return crypto.UnmarshalPubkey(raw)
	default:
		return nil, fmt.Errorf("unexpected public key length: %d", len(raw))
	}
}

// VerifySignature checks sig over data. The digest is recomputed from data
// with sig's hashing algorithm.
func VerifySignature(sig *Signature, data []byte) error {
	if sig == nil {
		return fmt.Errorf("signature is nil")
	}
	if err := sig.SignatureConfig.Validate(); err != nil {
		return err
	}

	pub, err := ParsePublicKey(sig.EncodingAlgorithm, sig.PublicKey)
	if err != nil {
		return err
	}
	raw, err := Decode(sig.EncodingAlgorithm, sig.Signature)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}
	digest, err := Digest(sig.HashingAlgorithm, data)
	if err != nil {
		return err
	}

	switch len(raw) {
	case crypto.SignatureLength:
		recSig := append([]byte(nil), raw...)
		if recSig[crypto.RecoveryIDOffset] >= 27 {
			recSig[crypto.RecoveryIDOffset] -= 27
		}
		recovered, err := crypto.Ecrecover(digest, recSig)
		if err != nil {
			return fmt.Errorf("failed to recover public key: %w", err)
		}
		if !bytes.Equal(recovered, crypto.FromECDSAPub(pub)) {
			return fmt.Errorf("signature does not match public key")
		}
		return nil
	case crypto.RecoveryIDOffset:
		if !crypto.VerifySignature(crypto.CompressPubkey(pub), digest, raw) {
			return fmt.Errorf("signature does not match public key")
		}
		return nil
	default:
		return fmt.Errorf("unexpected signature length: %d", len(raw))
	}
}
