package awsKmsSigner

import (
	"context"
	"crypto/ecdsa"
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/harbour-fi/ramp-go/pkg/signing"
)

// KMSAPI is the subset of the AWS KMS client used by the signer
type KMSAPI interface {
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
	CreateKey(ctx context.Context, params *kms.CreateKeyInput, optFns ...func(*kms.Options)) (*kms.CreateKeyOutput, error)
	CreateAlias(ctx context.Context, params *kms.CreateAliasInput, optFns ...func(*kms.Options)) (*kms.CreateAliasOutput, error)
}

var _ KMSAPI = (*kms.Client)(nil)

var (
	secp256k1N     = crypto.S256().Params().N
	secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)
)

// AwsKmsSigner signs ramp requests with a secp256k1 key that never leaves AWS
// KMS. Digests are computed locally and signed with MessageType=DIGEST.
type AwsKmsSigner struct {
	logger    *zap.Logger
	kmsClient KMSAPI
	keyID     string
	config    signing.SignatureConfig
	publicKey *ecdsa.PublicKey
}

var _ signing.Signer = (*AwsKmsSigner)(nil)

// NewAwsKmsSignerFromConfig builds the KMS client from an AWS config
func NewAwsKmsSignerFromConfig(
	ctx context.Context,
	awsCfg aws.Config,
	keyID string,
	config signing.SignatureConfig,
	logger *zap.Logger,
) (*AwsKmsSigner, error) {
	return NewAwsKmsSigner(ctx, kms.NewFromConfig(awsCfg), keyID, config, logger)
}

// NewAwsKmsSigner fetches the public key of keyID once and returns a signer for it
func NewAwsKmsSigner(
	ctx context.Context,
	kmsClient KMSAPI,
	keyID string,
	config signing.SignatureConfig,
	logger *zap.Logger,
) (*AwsKmsSigner, error) {
	if kmsClient == nil {
		return nil, fmt.Errorf("kms client is required")
	}
	if keyID == "" {
		return nil, fmt.Errorf("key ID is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid signature config: %w", err)
	}

	s := &AwsKmsSigner{
		logger:    logger,
		kmsClient: kmsClient,
		keyID:     keyID,
		config:    config,
	}
	pub, err := s.getPublicKey(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get public key for key %s", keyID)
	}
	s.publicKey = pub
	return s, nil
}

func (s *AwsKmsSigner) Sign(ctx context.Context, data string) (*signing.Signature, error) {
	digest, err := signing.Digest(s.config.HashingAlgorithm, []byte(data))
	if err != nil {
		return nil, err
	}
	sig, err := s.SignDigest(ctx, digest)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to sign payload with key %s", s.keyID)
	}
	// SignDigest answers V in 27..28; NewSecp256k1Signature expects 0..1
	sig[crypto.RecoveryIDOffset] -= 27
	return signing.NewSecp256k1Signature(s.config, sig, s.publicKey)
}

// SignDigest signs a 32 byte digest and returns a low-S [R || S || V]
// signature with V in 27..28.
func (s *AwsKmsSigner) SignDigest(ctx context.Context, digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("hash must be exactly 32 bytes, got %d", len(digest))
	}

	out, err := s.kmsClient.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(s.keyID),
		Message:          digest,
		SigningAlgorithm: kmstypes.SigningAlgorithmSpecEcdsaSha256,
		MessageType:      kmstypes.MessageTypeDigest,
	})
	if err != nil {
		return nil, err
	}

	var der asn1EcSig
	if _, err := asn1.Unmarshal(out.Signature, &der); err != nil {
		return nil, fmt.Errorf("failed to parse DER signature: %w", err)
	}

	r := new(big.Int).SetBytes(der.R.Bytes)
	sv := new(big.Int).SetBytes(der.S.Bytes)
	if sv.Cmp(secp256k1HalfN) > 0 {
		sv = new(big.Int).Sub(secp256k1N, sv)
	}

	sig := make([]byte, crypto.SignatureLength)
	r.FillBytes(sig[0:32])
	sv.FillBytes(sig[32:64])

	// KMS does not report the recovery ID; find the one that yields our key
	expected := crypto.FromECDSAPub(s.publicKey)
	for recoveryID := byte(0); recoveryID < 2; recoveryID++ {
		sig[crypto.RecoveryIDOffset] = recoveryID
		recovered, err := crypto.Ecrecover(digest, sig)
		if err != nil {
			s.logger.Debug("Ecrecover failed",
				zap.Uint8("recoveryId", recoveryID),
				zap.Error(err))
			continue
		}
		if string(recovered) == string(expected) {
			sig[crypto.RecoveryIDOffset] = 27 + recoveryID
			return sig, nil
		}
	}
	return nil, fmt.Errorf("could not determine valid recovery ID - signature recovery failed")
}

func (s *AwsKmsSigner) PublicKey() *ecdsa.PublicKey {
	return s.publicKey
}

func (s *AwsKmsSigner) Address() common.Address {
	return crypto.PubkeyToAddress(*s.publicKey)
}

func (s *AwsKmsSigner) KeyID() string {
	return s.keyID
}

func (s *AwsKmsSigner) getPublicKey(ctx context.Context) (*ecdsa.PublicKey, error) {
	out, err := s.kmsClient.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(s.keyID)})
	if err != nil {
		return nil, fmt.Errorf("failed to get public key: %w", err)
	}
	if out.KeySpec != "" && out.KeySpec != kmstypes.KeySpecEccSecgP256k1 {
		return nil, fmt.Errorf("key %s has spec %s, expected %s", s.keyID, out.KeySpec, kmstypes.KeySpecEccSecgP256k1)
	}
	return ParsePublicKeyDER(out.PublicKey)
}

// CreateSigningKey creates a secp256k1 signing key and points alias/<alias> at it
func CreateSigningKey(ctx context.Context, kmsClient KMSAPI, keyName, alias string) (string, error) {
	created, err := kmsClient.CreateKey(ctx, &kms.CreateKeyInput{
		KeyUsage:    kmstypes.KeyUsageTypeSignVerify,
		KeySpec:     kmstypes.KeySpecEccSecgP256k1,
		Description: aws.String(fmt.Sprintf("secp256k1 key for signing ramp requests - %s", keyName)),
		Tags: []kmstypes.Tag{
			{TagKey: aws.String("Name"), TagValue: aws.String(keyName)},
			{TagKey: aws.String("Purpose"), TagValue: aws.String("ramp-request-signing")},
			{TagKey: aws.String("Curve"), TagValue: aws.String("secp256k1")},
		},
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to create KMS key %s", keyName)
	}
	keyID := aws.ToString(created.KeyMetadata.KeyId)

	if alias != "" {
		_, err = kmsClient.CreateAlias(ctx, &kms.CreateAliasInput{
			AliasName:   aws.String(fmt.Sprintf("alias/%s", alias)),
			TargetKeyId: aws.String(keyID),
		})
		if err != nil {
			return "", errors.Wrapf(err, "failed to create alias %s for key %s", alias, keyID)
		}
	}
	return keyID, nil
}

type asn1EcSig struct {
	R asn1.RawValue
	S asn1.RawValue
}

type asn1EcPublicKey struct {
	EcPublicKeyInfo asn1EcPublicKeyInfo
	PublicKey       asn1.BitString
}

type asn1EcPublicKeyInfo struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier
}

// ParsePublicKeyDER parses the DER SubjectPublicKeyInfo KMS returns
func ParsePublicKeyDER(der []byte) (*ecdsa.PublicKey, error) {
	var info asn1EcPublicKey
	if _, err := asn1.Unmarshal(der, &info); err != nil {
		return nil, fmt.Errorf("failed to parse ASN.1 public key: %w", err)
	}
	return crypto.UnmarshalPubkey(info.PublicKey.Bytes)
}
