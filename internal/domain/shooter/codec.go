package shooter

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

//nolint:gochecknoglobals // Stateless codec shared by both ends of the protocol.
var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrMissingMessageID is returned when a decoded request has no msg_id.
var ErrMissingMessageID = errors.New("request has no msg_id")

// EncodeRequest renders req as JSON text.
func EncodeRequest(req *Request) ([]byte, error) {
	data, err := codec.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", req.ID, err)
	}

	return data, nil
}

// DecodeRequest parses a JSON request.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := codec.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}

	if req.ID == "" {
		return &req, ErrMissingMessageID
	}

	return &req, nil
}

// EncodeResponse renders resp as JSON text.
func EncodeResponse(resp *Response) ([]byte, error) {
	data, err := codec.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode %s response: %w", resp.ID, err)
	}

	return data, nil
}

// DecodeResponse parses a JSON reply.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := codec.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &resp, nil
}
