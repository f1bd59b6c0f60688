package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"k8s.io/apimachinery/pkg/util/validation/field"

	awsutil "github.com/harbour-fi/ramp-go/internal/aws"
	"github.com/harbour-fi/ramp-go/pkg/clients/snap"
	"github.com/harbour-fi/ramp-go/pkg/config"
	"github.com/harbour-fi/ramp-go/pkg/logger"
	"github.com/harbour-fi/ramp-go/pkg/persistence"
	"github.com/harbour-fi/ramp-go/pkg/persistence/badger"
	"github.com/harbour-fi/ramp-go/pkg/persistence/memory"
	"github.com/harbour-fi/ramp-go/pkg/persistence/redis"
	"github.com/harbour-fi/ramp-go/pkg/rampClient"
	"github.com/harbour-fi/ramp-go/pkg/signing"
	"github.com/harbour-fi/ramp-go/pkg/signing/awsKmsSigner"
	"github.com/harbour-fi/ramp-go/pkg/signing/inMemorySigner"
)

// env holds everything a command may need, built from global flags
type env struct {
	cfg    *config.ClientConfig
	logger *zap.Logger
	signer signing.Signer
	client *rampClient.Client

	// set for the snap signer only
	snapClient *snap.Client
}

func defaultBadgerDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ramp"
	}
	return filepath.Join(home, ".ramp", "addresses")
}

func parseClientConfig(c *cli.Context) *config.ClientConfig {
	return &config.ClientConfig{
		Endpoint:   c.String("endpoint"),
		Signer:     config.SignerType(c.String("signer")),
		Scheme:     config.SignatureScheme(c.String("scheme")),
		Timeout:    c.Duration("timeout"),
		RateLimit:  c.Float64("rate-limit"),
		Debug:      c.Bool("debug"),
		PrivateKey: c.String("private-key"),
		Snap: config.SnapConfig{
			BridgeURL: c.String("snap-bridge-url"),
			SnapID:    c.String("snap-id"),
			Version:   c.String("snap-version"),
		},
		AwsKms: config.AwsKmsConfig{
			KeyID:  c.String("aws-kms-key-id"),
			Region: c.String("aws-region"),
		},
		Store: config.StoreConfig{
			Type:          config.StoreType(c.String("store")),
			RedisAddress:  c.String("redis-address"),
			RedisPassword: c.String("redis-password"),
			RedisDB:       c.Int("redis-db"),
			BadgerDir:     c.String("badger-dir"),
		},
	}
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("debug")})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l, nil
}

// setup builds the signer and the ramp client from the global flags
func setup(c *cli.Context) (*env, error) {
	l, err := newLogger(c)
	if err != nil {
		return nil, err
	}

	cfg := parseClientConfig(c)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &env{cfg: cfg, logger: l}
	if err := e.buildSigner(c.Context); err != nil {
		e.close()
		return nil, err
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	e.client, err = rampClient.NewClient(&rampClient.ClientConfig{
		Endpoint: cfg.Endpoint,
		Signer:   e.signer,
		Logger:   l,
		Limiter:  limiter,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		e.close()
		return nil, fmt.Errorf("failed to create ramp client: %w", err)
	}
	return e, nil
}

func (e *env) buildSigner(ctx context.Context) error {
	sigCfg, err := config.SignatureConfigForScheme(e.cfg.Scheme)
	if err != nil {
		return err
	}

	switch e.cfg.Signer {
	case config.SignerType_InMemory:
		s, err := inMemorySigner.NewInMemorySignerFromHex(e.cfg.PrivateKey, sigCfg, e.logger)
		if err != nil {
			return fmt.Errorf("failed to create in-memory signer: %w", err)
		}
		e.signer = s

	case config.SignerType_Snap:
		snapCfg := snap.DefaultConfig()
		snapCfg.BridgeURL = e.cfg.Snap.BridgeURL
		if e.cfg.Snap.SnapID != "" {
			snapCfg.SnapID = e.cfg.Snap.SnapID
		}
		client, err := snap.NewClient(snapCfg, e.logger)
		if err != nil {
			return fmt.Errorf("failed to create snap client: %w", err)
		}
		e.snapClient = client
		if err := ensureSnapInstalled(ctx, client, e.cfg.Snap.Version, e.logger); err != nil {
			return err
		}
		s, err := snap.NewSigner(client, sigCfg)
		if err != nil {
			return err
		}
		e.signer = s

	case config.SignerType_AwsKms:
		awsCfg, err := awsutil.LoadAWSConfig(ctx, e.cfg.AwsKms.Region)
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}
		s, err := awsKmsSigner.NewAwsKmsSignerFromConfig(ctx, awsCfg, e.cfg.AwsKms.KeyID, sigCfg, e.logger)
		if err != nil {
			return fmt.Errorf("failed to create AWS KMS signer: %w", err)
		}
		e.signer = s

	default:
		return fmt.Errorf("unsupported signer: %s", e.cfg.Signer)
	}
	return nil
}

// ensureSnapInstalled installs the snap in the wallet unless the required
// version is already there
func ensureSnapInstalled(ctx context.Context, client snap.ISnapClient, version string, l *zap.Logger) error {
	installed, err := client.GetSnap(ctx, version)
	if err != nil {
		return fmt.Errorf("failed to list snaps: %w", err)
	}
	if installed != nil {
		l.Sugar().Debugw("Snap already installed", "snap_id", installed.ID, "version", installed.Version)
		return nil
	}

	params := map[string]any{}
	if version != "" {
		params["version"] = version
	}
	if err := client.ConnectSnap(ctx, params); err != nil {
		return fmt.Errorf("failed to install snap: %w", err)
	}
	return nil
}

func (e *env) close() {
	if e.snapClient != nil {
		e.snapClient.Close()
	}
	_ = e.logger.Sync()
}

// openStore opens the address book configured by the global flags
func openStore(c *cli.Context, l *zap.Logger) (persistence.IAddressStore, error) {
	cfg := parseClientConfig(c).Store
	if errs := cfg.Validate(field.NewPath("store")); len(errs) > 0 {
		return nil, fmt.Errorf("invalid store configuration: %w", errs.ToAggregate())
	}

	switch cfg.Type {
	case config.StoreType_Redis:
		return redis.NewRedisAddressStore(&redis.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, l)
	case config.StoreType_Badger:
		if err := os.MkdirAll(cfg.BadgerDir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create badger directory: %w", err)
		}
		return badger.NewBadgerAddressStore(cfg.BadgerDir, l)
	default:
		return memory.NewMemoryAddressStore(), nil
	}
}
