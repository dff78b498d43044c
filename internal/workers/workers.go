// Package workers groups the contract review tools into families. Each worker
// lists its tools and executes them on raw JSON arguments.
package workers

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/ericksa/contractreview/internal/rpcerr"
)

type ToolDef struct {
	Name        string
	Description string
}

// contentArgs is the argument shape shared by every text-scanning tool.
type contentArgs struct {
	Content *string `json:"content"`
}

// decodeArgs unmarshals tool arguments. Absent arguments decode as an empty
// object. Wrong JSON types are invalid params; anything else that fails to
// parse is an internal error carrying the parser message.
func decodeArgs(input json.RawMessage, v any) error {
	input = bytes.TrimSpace(input)
	if len(input) == 0 || bytes.Equal(input, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(input, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			if typeErr.Field == "" {
				return rpcerr.New(rpcerr.InvalidParams, "Invalid arguments: expected object")
			}
			return rpcerr.New(rpcerr.InvalidParams, "Invalid %s field: expected %s", typeErr.Field, typeErr.Type)
		}
		return rpcerr.Wrap(rpcerr.Internal, err)
	}
	return nil
}

// requireContent decodes input and returns its content field.
func requireContent(input json.RawMessage) (string, error) {
	var req contentArgs
	if err := decodeArgs(input, &req); err != nil {
		return "", err
	}
	if req.Content == nil {
		return "", rpcerr.MissingField("content")
	}
	return *req.Content, nil
}

// unknownKey is the payload for a lookup that missed. It is a normal result,
// not an error.
type unknownKey struct {
	Error     string   `json:"error"`
	Available []string `json:"available"`
}
