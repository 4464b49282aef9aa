package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StdioTransport runs the MCP protocol over stdin/stdout using the
// official SDK's server and stdio transport. Unlike the Streamable
// HTTP transport (http.go), STDIO needs no custom session table or
// SSE framing — there is exactly one implicit session for the life of
// the process — so there is nothing here that isn't already the
// SDK's job.
type StdioTransport struct {
	server *mcp.Server
}

// NewStdioTransport builds a StdioTransport serving dispatcher's
// tools through a real mcp.Server (see sdkserver.go).
func NewStdioTransport(dispatcher *Dispatcher) *StdioTransport {
	return &StdioTransport{server: newSDKServer(dispatcher)}
}

// Serve blocks until stdin closes or ctx is cancelled.
func (t *StdioTransport) Serve(ctx context.Context) error {
	return t.server.Run(ctx, &mcp.StdioTransport{})
}
