package apiconnect

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// Ensure jsonCodec implements connect.Codec
var _ connect.Codec = jsonCodec{}

// jsonCodec encodes the plain Go messages in package api with encoding/json.
// It replaces Connect's default protobuf JSON codec under the same name.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", msg, err)
	}
	return b, nil
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", msg, err)
	}
	return nil
}

// WithJSON returns the option that installs the JSON codec.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
