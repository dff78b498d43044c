// Package rpcerr defines the JSON-RPC style errors returned at the tool
// boundary, shared by the MCP server and the HTTP gateway.
package rpcerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type Code int

const (
	ParseError     Code = -32700
	MethodNotFound Code = -32601
	InvalidParams  Code = -32602
	Internal       Code = -32603
)

func (c Code) String() string {
	switch c {
	case ParseError:
		return "parse error"
	case MethodNotFound:
		return "method not found"
	case InvalidParams:
		return "invalid params"
	case Internal:
		return "internal error"
	default:
		return "unknown error"
	}
}

// HTTPStatus maps a code to the status used by the HTTP mirror.
func (c Code) HTTPStatus() int {
	switch c {
	case InvalidParams:
		return http.StatusBadRequest
	case MethodNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a caller-visible failure with a JSON-RPC code.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// JSON renders the error as a {"code","message"} payload.
func (e *Error) JSON() []byte {
	b, _ := json.Marshal(e)
	return b
}

func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code to err, keeping err's message.
func Wrap(code Code, err error) *Error {
	return &Error{Code: code, Message: err.Error(), cause: err}
}

func UnknownTool(name string) *Error {
	return New(MethodNotFound, "Unknown tool: %s", name)
}

func MissingField(field string) *Error {
	return New(InvalidParams, "Missing %s field", field)
}

// From converts any error into an *Error. Errors without a code are internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var rpc *Error
	if errors.As(err, &rpc) {
		return rpc
	}
	return Wrap(Internal, err)
}
