package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/harbour-fi/ramp-go/pkg/config"
	"github.com/harbour-fi/ramp-go/pkg/logger"
	"github.com/harbour-fi/ramp-go/pkg/rampServer"
	"github.com/harbour-fi/ramp-go/pkg/types"
	"github.com/harbour-fi/ramp-go/pkg/verifier"
)

func main() {
	defaults := config.DefaultServerConfig()

	app := &cli.App{
		Name:  "ramp-server",
		Usage: "In-memory ramp service for local development",
		Description: `Serves the ramp API from memory so clients can be developed without a
real ramp provider. Requests must carry valid signature headers; the signing
public key identifies the account. Nothing is persisted.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   defaults.Port,
				Usage:   "HTTP server port",
				EnvVars: []string{config.EnvRampServerPort},
			},
			&cli.StringFlag{
				Name:    "auth-url",
				Value:   defaults.AuthenticationURL,
				Usage:   "URL returned to identities that are not onboarded",
				EnvVars: []string{config.EnvRampServerAuthURL},
			},
			&cli.BoolFlag{
				Name:    "auto-onboard",
				Value:   true,
				Usage:   "Create an account for every new identity",
				EnvVars: []string{config.EnvRampServerAutoOnboard},
			},
			&cli.StringFlag{
				Name:    "processing-fee",
				Value:   defaults.ProcessingFeePercent,
				Usage:   "Processing fee in percent",
				EnvVars: []string{config.EnvRampServerProcessingFee},
			},
			&cli.BoolFlag{
				Name:    "metrics",
				Usage:   "Expose prometheus metrics on /metrics",
				EnvVars: []string{config.EnvRampServerMetrics},
			},
			&cli.DurationFlag{
				Name:  "signature-window",
				Value: verifier.DefaultTimeWindow,
				Usage: "Maximum age of a request signature",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvRampDebug},
			},
		},
		Action: runRampServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runRampServer(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	cfg := config.DefaultServerConfig()
	cfg.Port = c.Int("port")
	cfg.AuthenticationURL = c.String("auth-url")
	cfg.AutoOnboard = c.Bool("auto-onboard")
	cfg.ProcessingFeePercent = c.String("processing-fee")
	cfg.Metrics = c.Bool("metrics")
	cfg.Debug = c.Bool("verbose")

	server, err := rampServer.NewServer(cfg, l, rampServer.WithVerifierConfig(&verifier.Config{
		TimeWindow: c.Duration("signature-window"),
	}))
	if err != nil {
		return err
	}

	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	assets := make([]string, 0, len(cfg.Assets))
	for _, a := range cfg.Assets {
		assets = append(assets, fmt.Sprintf("%s@%s", a.AssetID, a.Network))
	}
	l.Sugar().Infow("Ramp dev server running",
		"port", cfg.Port,
		"auto_onboard", cfg.AutoOnboard,
		"assets", assets,
		"rpcs", fmt.Sprintf("POST /%s/*", types.ServiceName),
	)
	l.Sugar().Info("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	l.Sugar().Info("Shutting down")
	return server.Stop(shutdownCtx)
}
