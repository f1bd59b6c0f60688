package wire

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"go.uber.org/zap"
)

// Options every ramp client and handler is built with
func defaultOptions() []connect.Option {
	return []connect.Option{
		connect.WithCodec(Codec{}),
		connect.WithReadMaxBytes(MaxMessageBytes),
	}
}

// NewUnaryHandler serves fn as a connect unary procedure
func NewUnaryHandler[Req, Res any](
	procedure string,
	logger *zap.Logger,
	fn func(ctx context.Context, req *Req) (*Res, error),
	opts ...connect.HandlerOption,
) http.Handler {
	options := []connect.HandlerOption{connect.WithInterceptors(loggingInterceptor(logger))}
	for _, o := range defaultOptions() {
		options = append(options, o)
	}
	options = append(options, opts...)

	return connect.NewUnaryHandler(procedure,
		func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
			resp, err := fn(ctx, req.Msg)
			if err != nil {
				return nil, err
			}
			return connect.NewResponse(resp), nil
		},
		options...,
	)
}

// NewUnaryClient returns a connect client for one procedure of baseURL
func NewUnaryClient[Req, Res any](
	httpClient connect.HTTPClient,
	baseURL string,
	procedure string,
	opts ...connect.ClientOption,
) *connect.Client[Req, Res] {
	options := make([]connect.ClientOption, 0, len(opts)+2)
	for _, o := range defaultOptions() {
		options = append(options, o)
	}
	options = append(options, opts...)
	return connect.NewClient[Req, Res](httpClient, baseURL+procedure, options...)
}

func loggingInterceptor(logger *zap.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			resp, err := next(ctx, req)
			if err != nil {
				logger.Sugar().Debugw("Unary call failed",
					"procedure", req.Spec().Procedure,
					"code", connect.CodeOf(err),
					"error", err,
				)
			}
			return resp, err
		}
	}
}
