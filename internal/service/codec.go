package service

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// JSONCodec marshals plain Go structs for the Connect protocol. It registers
// under the name "json", so clients send application/json bodies.
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
