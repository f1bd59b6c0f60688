package rampClient

import (
	"errors"

	"connectrpc.com/connect"
)

// ErrUnsupportedProtocol is returned before any call is made when an address
// on the protocol cannot be whitelisted
var ErrUnsupportedProtocol = errors.New("whitelisting is only supported on EVM protocols")

// RPCError is returned when the ramp service answers a call with an error.
// Inspect it with errors.As or connect.CodeOf.
type RPCError = connect.Error
