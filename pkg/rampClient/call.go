package rampClient

import (
	"context"
	"fmt"

	"connectrpc.com/connect"
)

// call performs a unary call through the signing HTTP client. connect-go
// hands the transport a replayable in-memory body, which is what gets signed.
func call[Req, Res any](ctx context.Context, c *Client, method string, client *connect.Client[Req, Res], req *Req) (*Res, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	c.logger.Sugar().Debugw("Calling ramp service", "method", method, "endpoint", c.endpoint)
	resp, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		c.logger.Sugar().Debugw("Ramp service call failed",
			"method", method,
			"code", connect.CodeOf(err),
			"error", err,
		)
		return nil, err
	}
	return resp.Msg, nil
}
