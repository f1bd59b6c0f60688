package wire

import (
	"errors"
	"fmt"
	"io"

	"connectrpc.com/connect"
)

// MaxMessageBytes bounds request and response messages on both sides
const MaxMessageBytes = 4 << 20

var ErrMessageTooLarge = errors.New("message too large")

// ReadBody reads at most limit bytes from r. A longer body is an error
// rather than a silently truncated message.
func ReadBody(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrMessageTooLarge, limit)
	}
	return body, nil
}

// Errorf builds the error a handler answers with
func Errorf(code connect.Code, format string, args ...any) *connect.Error {
	return connect.NewError(code, fmt.Errorf(format, args...))
}
