// Copyright 2025 Seth Burkart
//
// MCP protocol server

package server

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/SethBurkart123/openlp-mcp/internal/bridge"
	"github.com/SethBurkart123/openlp-mcp/internal/transport"
)

const (
	serverName      = "openlp-mcp"
	serverVersion   = "0.1.0"
	protocolVersion = "2024-11-05"
)

// Server implements the MCP method surface: initialize, tools/list, and
// tools/call. Tool calls dispatch to operations on the bridge, which runs
// them on the privileged loop that owns the host model.
type Server struct {
	bridge  *bridge.Bridge
	audit   *AuditLogger
	metrics *transport.MetricsRegistry
	tools   map[string]*Tool
	order   []string // registration order, for stable tools/list output
}

// Tool is one entry in the tool catalog. Handler receives the decoded
// arguments object.
type Tool struct {
	Handler     func(args map[string]any) (*ToolResult, error)
	InputSchema map[string]any
	Name        string
	Description string
}

// ToolResult is the MCP result payload for a tool call.
type ToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Content is one content block in a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// NewServer creates a protocol server dispatching to b. A nil audit logger
// disables audit logging.
func NewServer(b *bridge.Bridge, audit *AuditLogger) *Server {
	s := &Server{
		bridge:  b,
		audit:   audit,
		metrics: transport.DefaultMetrics(),
		tools:   make(map[string]*Tool),
	}
	s.registerTools()
	return s
}

// Handle processes one JSON-RPC message. It satisfies transport.Handler,
// so the same server backs both the stdio and HTTP transports.
func (s *Server) Handle(msg *transport.Message) (*transport.Message, error) {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg), nil
	case "tools/list":
		return s.handleToolsList(msg), nil
	case "tools/call":
		return s.handleToolsCall(msg), nil
	case "notifications/initialized":
		// Notification, no response.
		return nil, nil
	default:
		return &transport.Message{
			JSONRPC: "2.0",
			ID:      msg.ID,
			Error: &transport.ErrorObj{
				Code:    transport.ErrCodeMethodNotFound,
				Message: fmt.Sprintf("Method not found: %s", msg.Method),
			},
		}, nil
	}
}

func (s *Server) handleInitialize(msg *transport.Message) *transport.Message {
	result, _ := json.Marshal(map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{"tools": map[string]any{}},
		"serverInfo": map[string]any{
			"name":    serverName,
			"version": serverVersion,
		},
	})
	return &transport.Message{JSONRPC: "2.0", ID: msg.ID, Result: result}
}

func (s *Server) handleToolsList(msg *transport.Message) *transport.Message {
	tools := make([]map[string]any, 0, len(s.order))
	for _, name := range s.order {
		tool := s.tools[name]
		tools = append(tools, map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.InputSchema,
		})
	}
	result, _ := json.Marshal(map[string]any{"tools": tools})
	return &transport.Message{JSONRPC: "2.0", ID: msg.ID, Result: result}
}

func (s *Server) handleToolsCall(msg *transport.Message) *transport.Message {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return &transport.Message{
			JSONRPC: "2.0",
			ID:      msg.ID,
			Error: &transport.ErrorObj{
				Code:    transport.ErrCodeInvalidRequest,
				Message: fmt.Sprintf("Invalid request: %v", err),
			},
		}
	}

	tool, exists := s.tools[params.Name]
	if !exists {
		return &transport.Message{
			JSONRPC: "2.0",
			ID:      msg.ID,
			Error: &transport.ErrorObj{
				Code:    transport.ErrCodeMethodNotFound,
				Message: fmt.Sprintf("Tool not found: %s", params.Name),
			},
		}
	}

	args := make(map[string]any)
	if len(params.Arguments) > 0 {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			return &transport.Message{
				JSONRPC: "2.0",
				ID:      msg.ID,
				Error: &transport.ErrorObj{
					Code:    transport.ErrCodeInvalidParams,
					Message: fmt.Sprintf("Invalid arguments: %v", err),
				},
			}
		}
	}

	if errMsg := validateToolInput(tool, args); errMsg != nil {
		errMsg.ID = msg.ID
		return errMsg
	}

	start := time.Now()
	result, err := tool.Handler(args)
	duration := time.Since(start)

	status := "ok"
	if err != nil || (result != nil && result.IsError) {
		status = "error"
	}
	s.metrics.RecordRequest(params.Name, status, duration)
	s.audit.LogToolCall(params.Name, params.Arguments, status, duration)

	if err != nil {
		return &transport.Message{
			JSONRPC: "2.0",
			ID:      msg.ID,
			Error: &transport.ErrorObj{
				Code:    transport.ErrCodeInternalError,
				Message: err.Error(),
			},
		}
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		log.Printf("Error encoding tool result: %v", err)
		return &transport.Message{
			JSONRPC: "2.0",
			ID:      msg.ID,
			Error: &transport.ErrorObj{
				Code:    transport.ErrCodeInternalError,
				Message: "failed to encode result",
			},
		}
	}
	return &transport.Message{JSONRPC: "2.0", ID: msg.ID, Result: resultBytes}
}

// dispatch submits one operation to the bridge and folds the outcome into
// a tool result. Handler failures surface as plain result strings from the
// worker; errors here mean the bridge itself failed (timeout, shutdown).
func (s *Server) dispatch(op string, long bool, args ...any) (*ToolResult, error) {
	var result any
	var err error
	if long {
		result, err = s.bridge.SubmitLong(op, args...)
	} else {
		result, err = s.bridge.Submit(op, args...)
	}
	if err != nil {
		return errorResultf("Error in %s: %v", op, err), nil
	}

	if text, ok := result.(string); ok {
		return textResult(text), nil
	}
	data, merr := json.Marshal(result)
	if merr != nil {
		return errorResultf("Error in %s: unencodable result", op), nil
	}
	return textResult(string(data)), nil
}
