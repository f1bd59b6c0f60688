package awsKms

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/harbour-fi/ramp-go/internal/keyGenerator"
	"github.com/harbour-fi/ramp-go/pkg/signing"
	"github.com/harbour-fi/ramp-go/pkg/signing/awsKmsSigner"
)

// AWSKMSKeyGenerator creates secp256k1 keys in AWS KMS
type AWSKMSKeyGenerator struct {
	logger    *zap.Logger
	kmsClient awsKmsSigner.KMSAPI
	awsRegion string
}

var _ keyGenerator.IKeyGenerator = (*AWSKMSKeyGenerator)(nil)

func NewAWSKMSKeyGeneratorFromConfig(awsCfg aws.Config, logger *zap.Logger) *AWSKMSKeyGenerator {
	return NewAWSKMSKeyGenerator(kms.NewFromConfig(awsCfg), awsCfg.Region, logger)
}

func NewAWSKMSKeyGenerator(kmsClient awsKmsSigner.KMSAPI, awsRegion string, logger *zap.Logger) *AWSKMSKeyGenerator {
	return &AWSKMSKeyGenerator{
		logger:    logger,
		kmsClient: kmsClient,
		awsRegion: awsRegion,
	}
}

func (a *AWSKMSKeyGenerator) GenerateKey(ctx context.Context, keyName string, aliasName string) (*keyGenerator.GeneratedKey, error) {
	keyID, err := awsKmsSigner.CreateSigningKey(ctx, a.kmsClient, keyName, aliasName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create key %s in region %s", keyName, a.awsRegion)
	}
	a.logger.Sugar().Infow("Created KMS signing key",
		"keyId", keyID,
		"keyName", keyName,
		"aliasName", aliasName,
		"region", a.awsRegion,
	)
	return a.GetKeyByID(ctx, keyID)
}

func (a *AWSKMSKeyGenerator) GetKeyByID(ctx context.Context, keyID string) (*keyGenerator.GeneratedKey, error) {
	out, err := a.kmsClient.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(keyID)})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get public key for key %s in region %s", keyID, a.awsRegion)
	}
	pub, err := awsKmsSigner.ParsePublicKeyDER(out.PublicKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse public key for key %s in region %s", keyID, a.awsRegion)
	}
	return keyGenerator.NewGeneratedKey(keyID, pub)
}

// Signer returns a request signer backed by the KMS key
func (a *AWSKMSKeyGenerator) Signer(ctx context.Context, keyID string, config signing.SignatureConfig) (*awsKmsSigner.AwsKmsSigner, error) {
	return awsKmsSigner.NewAwsKmsSigner(ctx, a.kmsClient, keyID, config, a.logger)
}
