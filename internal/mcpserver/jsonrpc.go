// Package mcpserver implements the MCP request surface: a fixed tool
// registry, a JSON-RPC 2.0 dispatcher, and two transports over the
// same Dispatcher. STDIO runs the real protocol engine from
// github.com/modelcontextprotocol/go-sdk (see sdkserver.go); the
// Streamable HTTP transport keeps its own framing because its
// session-lifecycle and SSE behavior is a contract of this server
// (see http.go). Both transports share the SDK's mcp.Implementation,
// mcp.TextContent and mcp.CallToolResult types; the HTTP transport's
// tools/list answers with this package's own ToolDef entries.
package mcpserver

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ProtocolVersion is the MCP protocol version string this server
// speaks.
const ProtocolVersion = "2025-03-26"

// ServerName and ServerVersion identify this server in `initialize`
// responses.
const (
	ServerName    = "knowledge-server"
	ServerVersion = "1.0.0"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
)

// Request is one JSON-RPC 2.0 request or notification. A notification
// has no ID.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether r carries no id, i.e. expects no
// reply.
func (r Request) IsNotification() bool {
	return len(r.ID) == 0
}

// IsRequest reports whether r is a request expecting a reply: it has
// both a method and an id. A notification lacks the id; a response a
// client echoes back lacks the method.
func (r Request) IsRequest() bool {
	return r.Method != "" && len(r.ID) > 0
}

// Response is one JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func errorResponse(id json.RawMessage, code int, message string) Response {
	return Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
}

func resultResponse(id json.RawMessage, result interface{}) Response {
	return Response{JSONRPC: "2.0", ID: id, Result: result}
}

// textResult builds a tools/call result using the SDK's own content
// and result types (mcp.TextContent, mcp.CallToolResult) rather than
// hand-rolled equivalents.
func textResult(payload interface{}) *mcp.CallToolResult {
	data, err := json.Marshal(payload)
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
			IsError: true,
		}
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}
}
