package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// newSDKServer builds a real mcp.Server — the official SDK's protocol
// engine — wired to d's handlers, one mcp.AddTool registration per
// entry in toolRegistry. The SDK infers each tool's JSON-Schema input
// schema by reflecting over the typed argument struct (addArgs,
// searchArgs, ...) already used by the Dispatcher's handlers. Those
// reflected schemas are what STDIO clients see; the HTTP transport's
// tools/list advertises the hand-written schemas in toolRegistry.
//
// This is what the STDIO transport runs (see stdio.go): the SDK owns
// framing, initialize/tools-list/tools-call routing and the
// content/result types, and nothing here duplicates that. The
// Streamable HTTP transport cannot be handed to mcp.Server the same
// way — see the doc comment on HTTPTransport in http.go for why — so
// it keeps routing through Dispatcher.HandleRequest directly.
func newSDKServer(d *Dispatcher) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: ServerVersion}, nil)

	mcp.AddTool(s, &mcp.Tool{Name: "knowledge-add", Description: toolDescription("knowledge-add")}, forwardToolCall[addArgs](d.handleAdd))
	mcp.AddTool(s, &mcp.Tool{Name: "knowledge-search", Description: toolDescription("knowledge-search")}, forwardToolCall[searchArgs](d.handleSearch))
	mcp.AddTool(s, &mcp.Tool{Name: "knowledge-show", Description: toolDescription("knowledge-show")}, forwardToolCall[showArgs](d.handleShow))
	mcp.AddTool(s, &mcp.Tool{Name: "knowledge-remove", Description: toolDescription("knowledge-remove")}, forwardToolCall[removeArgs](d.handleRemove))
	mcp.AddTool(s, &mcp.Tool{Name: "knowledge-clear", Description: toolDescription("knowledge-clear")}, forwardToolCall[confirmArgs](d.handleClear))
	mcp.AddTool(s, &mcp.Tool{Name: "knowledge-status", Description: toolDescription("knowledge-status")}, forwardToolCall[emptyArgs](d.handleStatus))
	mcp.AddTool(s, &mcp.Tool{Name: "knowledge-task-status", Description: toolDescription("knowledge-task-status")}, forwardToolCall[taskStatusArgs](d.handleTaskStatus))
	mcp.AddTool(s, &mcp.Tool{Name: "knowledge-context-create", Description: toolDescription("knowledge-context-create")}, forwardToolCall[contextCreateArgs](d.handleContextCreate))
	mcp.AddTool(s, &mcp.Tool{Name: "knowledge-context-list", Description: toolDescription("knowledge-context-list")}, forwardToolCall[emptyArgs](d.handleContextList))
	mcp.AddTool(s, &mcp.Tool{Name: "knowledge-context-show", Description: toolDescription("knowledge-context-show")}, forwardToolCall[contextNameArgs](d.handleContextShow))
	mcp.AddTool(s, &mcp.Tool{Name: "knowledge-context-delete", Description: toolDescription("knowledge-context-delete")}, forwardToolCall[contextDeleteArgs](d.handleContextDelete))

	return s
}

// emptyArgs is the input type for tools that take no arguments; the
// SDK reflects it into an empty-object schema.
type emptyArgs struct{}

// forwardToolCall adapts one of the Dispatcher's raw-JSON handlers
// into the typed signature mcp.AddTool requires, re-marshaling the
// SDK-decoded args back to JSON so the handler logic (validation,
// defaulting, calls into knowledge.Service) stays identical across
// both transports.
func forwardToolCall[A any](handle func(context.Context, json.RawMessage) (interface{}, error)) func(context.Context, *mcp.CallToolRequest, A) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, args A) (*mcp.CallToolResult, any, error) {
		raw, err := json.Marshal(args)
		if err != nil {
			return textResult(errorEnvelope(err)), nil, nil
		}
		payload, err := handle(ctx, raw)
		if err != nil {
			return textResult(errorEnvelope(err)), nil, nil
		}
		return textResult(payload), nil, nil
	}
}

// toolDescription looks up name's description in toolRegistry, the
// single declarative source both transports advertise through
// tools/list.
func toolDescription(name string) string {
	for _, t := range toolRegistry {
		if t.Name == name {
			return t.Description
		}
	}
	return ""
}
