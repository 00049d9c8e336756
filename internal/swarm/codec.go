package swarm

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var emptyParams = json.RawMessage(`{}`)

// EncodeRequest builds the outbound frame {command, params, rid}.
// Nil params are sent as an empty object.
func EncodeRequest(rid, command string, params any) ([]byte, error) {
	raw := emptyParams
	switch p := params.(type) {
	case nil:
	case json.RawMessage:
		if len(p) > 0 {
			raw = p
		}
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		if !bytes.Equal(b, []byte("null")) {
			raw = b
		}
	}

	return json.Marshal(Request{
		Command: command,
		Params:  raw,
		RID:     rid,
	})
}

// DecodeRequest parses an outbound frame. Used by tests and tooling that play the server side.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	if req.Command == "" {
		return Request{}, fmt.Errorf("%w: missing command", ErrProtocol)
	}
	return req, nil
}

// EncodeResponse builds an inbound frame.
func EncodeResponse(resp Response) ([]byte, error) {
	return json.Marshal(resp)
}

// DecodeResponse parses an inbound frame. The payload is left untouched.
// A frame without rid decodes successfully with an empty RID.
func DecodeResponse(data []byte) (Response, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Response{}, fmt.Errorf("%w: frame is not a json object", ErrProtocol)
	}

	var resp Response
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	if bytes.Equal(resp.Data, []byte("null")) {
		resp.Data = nil
	}
	return resp, nil
}

// peekRID extracts the rid of a frame that failed to decode fully.
func peekRID(data []byte) string {
	var probe struct {
		RID string `json:"rid"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return ""
	}
	return probe.RID
}
