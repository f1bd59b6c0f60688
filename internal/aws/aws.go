package aws

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

const serviceAccountTokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"

// LoadAWSConfig loads the default AWS config for the KMS signer. The shared
// profile is only consulted outside of Kubernetes, where credentials come from
// the pod's service account instead.
func LoadAWSConfig(ctx context.Context, regionOverride string) (aws.Config, error) {
	var options []func(*config.LoadOptions) error

	if !isInKubernetes() {
		options = append(options, config.WithSharedConfigProfile(getProfile()))
	}
	if regionOverride != "" {
		options = append(options, config.WithRegion(regionOverride))
	}

	return config.LoadDefaultConfig(ctx, options...)
}

func isInKubernetes() bool {
	_, err := os.Stat(serviceAccountTokenPath)
	return err == nil
}

// getProfile prefers the ramp specific profile so the CLI can sign with a
// different account than other AWS tooling in the same shell
func getProfile() string {
	for _, name := range []string{"RAMP_AWS_PROFILE", "AWS_PROFILE"} {
		if profile := os.Getenv(name); profile != "" {
			return profile
		}
	}
	return "default"
}

// GetCallerIdentity reports which AWS principal the signer-info command runs as
func GetCallerIdentity(ctx context.Context, cfg aws.Config) (*sts.GetCallerIdentityOutput, error) {
	return sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
}
