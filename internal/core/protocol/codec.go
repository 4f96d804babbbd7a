package protocol

import (
	"encoding/json"
	"fmt"
)

// Codec converts protocol values to and from frames.
type Codec interface {
	EncodeRequest(Request) ([]byte, error)
	DecodeRequest([]byte) (Request, error)
	EncodeResponse(Response) ([]byte, error)
	DecodeResponse([]byte) (Response, error)
}

// JSONCodec frames values as JSON text.
type JSONCodec struct{}

var _ Codec = JSONCodec{}

func (JSONCodec) EncodeRequest(r Request) ([]byte, error) { return json.Marshal(r) }

func (JSONCodec) DecodeRequest(data []byte) (Request, error) {
	var r Request
	if err := json.Unmarshal(data, &r); err != nil {
		return Request{}, NewError(ErrorCodeInvalidParams, "decode request", err)
	}
	if r.Method == "" {
		return r, NewError(ErrorCodeUnknownMethod, "request without method", nil)
	}
	return r, nil
}

func (JSONCodec) EncodeResponse(r Response) ([]byte, error) { return json.Marshal(r) }

func (JSONCodec) DecodeResponse(data []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(data, &r); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return r, nil
}
