package rampServer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/harbour-fi/ramp-go/pkg/config"
	"github.com/harbour-fi/ramp-go/pkg/types"
	"github.com/harbour-fi/ramp-go/pkg/verifier"
	"github.com/harbour-fi/ramp-go/pkg/wire"
)

/*
Server is an in-memory ramp service for local development and tests.

Every RPC goes through the signature verifier; the verified public key is the
account identity, so Ethereum and Cosmos signatures made with the same key
reach the same account.

	POST /ramp.v1.RampService/GetAccountInfo
	  - unknown identities get an Authentication result until onboarded
	    (or are onboarded on first sight with AutoOnboard)
	POST /ramp.v1.RampService/WhitelistAddress
	  - address signature must be a personal_sign of the address by its key
	POST /ramp.v1.RampService/RemoveAddress
	POST /ramp.v1.RampService/SetBankAccount
	  - validation failures come back in the response errors
	POST /ramp.v1.RampService/EstimateOnRampFee
	POST /ramp.v1.RampService/EstimateOffRampFee
	GET  /healthz
	GET  /metrics (when enabled)
*/
type Server struct {
	config     *config.ServerConfig
	logger     *zap.Logger
	accounts   *accountStore
	fees       *FeeSchedule
	verifier   *verifier.Verifier
	metrics    *metrics
	httpServer *http.Server
}

type Option func(o *options)

type options struct {
	verifierConfig *verifier.Config
}

// WithVerifierConfig overrides the signature time window and clock
func WithVerifierConfig(cfg *verifier.Config) Option {
	return func(o *options) {
		o.verifierConfig = cfg
	}
}

// NewServer creates a new development ramp server
func NewServer(cfg *config.ServerConfig, logger *zap.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	fees, err := NewFeeSchedule(cfg)
	if err != nil {
		return nil, err
	}
	s := &Server{
		config:   cfg,
		logger:   logger,
		accounts: newAccountStore(cfg.Assets),
		fees:     fees,
		verifier: verifier.NewVerifier(o.verifierConfig, logger),
		metrics:  newMetrics(),
	}

	mux := http.NewServeMux()
	s.handle(mux, types.MethodGetAccountInfo, wire.NewUnaryHandler(s.procedure(types.MethodGetAccountInfo), logger, s.GetAccountInfo))
	s.handle(mux, types.MethodWhitelistAddress, wire.NewUnaryHandler(s.procedure(types.MethodWhitelistAddress), logger, s.WhitelistAddress))
	s.handle(mux, types.MethodRemoveAddress, wire.NewUnaryHandler(s.procedure(types.MethodRemoveAddress), logger, s.RemoveAddress))
	s.handle(mux, types.MethodSetBankAccount, wire.NewUnaryHandler(s.procedure(types.MethodSetBankAccount), logger, s.SetBankAccount))
	s.handle(mux, types.MethodEstimateOnRampFee, wire.NewUnaryHandler(s.procedure(types.MethodEstimateOnRampFee), logger, s.EstimateOnRampFee))
	s.handle(mux, types.MethodEstimateOffRampFee, wire.NewUnaryHandler(s.procedure(types.MethodEstimateOffRampFee), logger, s.EstimateOffRampFee))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if cfg.Metrics {
		mux.Handle("/metrics", s.metrics.handler())
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) procedure(method string) string {
	return wire.ProcedurePath(types.ServiceName, method)
}

func (s *Server) handle(mux *http.ServeMux, method string, h http.Handler) {
	procedure := s.procedure(method)
	mux.Handle(procedure, s.metrics.instrument(procedure, s.verifier.Middleware(h)))
}

// Onboard creates the account of identity id with its on-ramp bank account.
// Onboarding an existing identity returns the existing account.
func (s *Server) Onboard(id string, onramp *types.BankAccount) *types.Account {
	account := s.accounts.onboard(id, onramp)
	s.logger.Sugar().Infow("Onboarded account", "account", id, "onramp_bank_account", onramp.String())
	return account
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go func() {
		s.logger.Sugar().Infow("Starting ramp dev server", "address", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Sugar().Errorw("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts the HTTP server down
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}
