// Package wire adapts the ramp messages to connect-go: a binary codec over
// the hand-written protobuf encoders, procedure paths, error helpers and
// bounded body reads shared by the client, the verifier and the dev server.
package wire

import (
	"fmt"

	"connectrpc.com/connect"

	"github.com/harbour-fi/ramp-go/pkg/types"
)

// CodecName replaces connect-go's default binary protobuf codec
const CodecName = "proto"

// Codec marshals types.Message values with their own protobuf encoders
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string {
	return CodecName
}

func (Codec) Marshal(v any) ([]byte, error) {
	msg, ok := v.(types.Message)
	if !ok {
		return nil, fmt.Errorf("cannot marshal %T: not a ramp message", v)
	}
	return msg.MarshalProto()
}

func (Codec) Unmarshal(data []byte, v any) error {
	msg, ok := v.(types.Message)
	if !ok {
		return fmt.Errorf("cannot unmarshal into %T: not a ramp message", v)
	}
	return msg.UnmarshalProto(data)
}

// ProcedurePath returns the URL path of a method of service
func ProcedurePath(service, method string) string {
	return "/" + service + "/" + method
}
