package snap

import (
	"context"
	"fmt"

	"github.com/harbour-fi/ramp-go/pkg/signing"
)

// Signer signs ramp requests with the key held by the wallet snap
type Signer struct {
	client ISnapClient
	config signing.SignatureConfig
}

var _ signing.Signer = (*Signer)(nil)

// NewSigner returns a signer producing signatures of the given scheme. The
// snap answers bare signatures; the scheme is attached here.
func NewSigner(client ISnapClient, config signing.SignatureConfig) (*Signer, error) {
	if client == nil {
		return nil, fmt.Errorf("snap client is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid signature config: %w", err)
	}
	return &Signer{client: client, config: config}, nil
}

func (s *Signer) Sign(ctx context.Context, data string) (*signing.Signature, error) {
	resp, err := s.client.SignRequest(ctx, data)
	if err != nil {
		return nil, err
	}
	return &signing.Signature{
		Signature:       resp.Signature,
		PublicKey:       resp.PublicKey,
		SignatureConfig: s.config,
	}, nil
}
