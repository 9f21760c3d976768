// Copyright 2025 Seth Burkart

// Package transport carries JSON-RPC 2.0 MCP traffic between clients and
// the protocol server, over stdio or HTTP/SSE, and feeds live host state to
// websocket subscribers.
package transport

import "encoding/json"

// JSON-RPC 2.0 standard error codes.
// See: https://www.jsonrpc.org/specification#error_object
const (
	// ErrCodeParseError indicates invalid JSON was received.
	ErrCodeParseError = -32700

	// ErrCodeInvalidRequest indicates the JSON is not a valid Request object.
	ErrCodeInvalidRequest = -32600

	// ErrCodeMethodNotFound indicates the method does not exist.
	ErrCodeMethodNotFound = -32601

	// ErrCodeInvalidParams indicates invalid method parameters.
	ErrCodeInvalidParams = -32602

	// ErrCodeInternalError indicates an internal JSON-RPC error.
	ErrCodeInternalError = -32603
)

// Message is a JSON-RPC 2.0 request or response. Requests carry Method and
// optionally Params and ID; responses carry ID plus exactly one of Result
// and Error. Field names are lowercase per the specification.
type Message struct {
	// Error contains error details for failed requests. Mutually exclusive
	// with Result.
	Error *ErrorObj `json:"error,omitempty"`

	// JSONRPC is always "2.0".
	JSONRPC string `json:"jsonrpc"`

	// Method is the name of the method to invoke. Requests only.
	Method string `json:"method,omitempty"`

	// ID is the request identifier; responses echo it. Omitted for
	// notifications.
	ID json.RawMessage `json:"id,omitempty"`

	// Params holds the method parameters. May be object or array.
	Params json.RawMessage `json:"params,omitempty"`

	// Result holds the success response data. Mutually exclusive with Error.
	Result json.RawMessage `json:"result,omitempty"`
}

// ErrorObj is a JSON-RPC 2.0 error object.
type ErrorObj struct {
	// Message is a human-readable description of the error.
	Message string `json:"message"`

	// Data carries additional error information, if any.
	Data json.RawMessage `json:"data,omitempty"`

	// Code is one of the standard JSON-RPC error codes above, or an
	// implementation-defined server error in -32000..-32099.
	Code int `json:"code"`
}

// Handler processes one inbound message and produces the response, nil for
// notifications.
type Handler func(*Message) (*Message, error)

// Transport moves MCP messages. Implementations are safe for concurrent
// use.
//
// Error handling: io.EOF-equivalent conditions mean the peer went away;
// errors mentioning "closed" mean the transport was closed locally.
type Transport interface {
	// ReadMessage blocks until a message arrives, an error occurs, or the
	// transport is closed. HTTPTransport is callback-driven and returns an
	// error immediately; use Serve instead.
	ReadMessage() (*Message, error)

	// WriteMessage sends a message: to stdout for stdio, broadcast to all
	// SSE clients for HTTP.
	WriteMessage(msg *Message) error

	// Close shuts the transport down. Idempotent.
	Close() error

	// IsClosed reports whether Close has been called.
	IsClosed() bool
}

var (
	_ Transport = (*StdioTransport)(nil)
	_ Transport = (*HTTPTransport)(nil)
)
