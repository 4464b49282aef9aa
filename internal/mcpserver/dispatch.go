package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// toolsListResult is the result of a tools/list request.
type toolsListResult struct {
	Tools []ToolDef `json:"tools"`
}

type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type initializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	ServerInfo      *mcp.Implementation    `json:"serverInfo"`
	Capabilities    map[string]interface{} `json:"capabilities"`
}

// HandleRequest dispatches one already-decoded JSON-RPC request to the
// appropriate MCP method and returns the response to send back.
// Notifications (no id) are handled but produce a nil response — the
// caller must not write anything back for those.
func (d *Dispatcher) HandleRequest(req Request) *Response {
	var resp Response
	switch req.Method {
	case "initialize":
		resp = resultResponse(req.ID, initializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      &mcp.Implementation{Name: ServerName, Version: ServerVersion},
			Capabilities:    map[string]interface{}{"tools": map[string]interface{}{}},
		})
	case "tools/list":
		resp = resultResponse(req.ID, toolsListResult{Tools: d.Tools()})
	case "tools/call":
		resp = d.handleToolsCall(req)
	case "notifications/initialized":
		if req.IsNotification() {
			return nil
		}
		resp = resultResponse(req.ID, map[string]interface{}{})
	default:
		resp = errorResponse(req.ID, CodeMethodNotFound, "method not found: "+req.Method)
	}

	if req.IsNotification() {
		return nil
	}
	return &resp
}

func (d *Dispatcher) handleToolsCall(req Request) Response {
	var params toolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidRequest, "invalid tools/call params: "+err.Error())
	}

	payload, ok := d.Call(context.Background(), params.Name, params.Arguments)
	if !ok {
		return errorResponse(req.ID, CodeMethodNotFound, "unknown tool: "+params.Name)
	}
	return resultResponse(req.ID, textResult(payload))
}
