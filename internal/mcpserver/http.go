package mcpserver

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HTTPTransport implements the Streamable HTTP transport: a single
// /mcp endpoint handling POST, GET, and DELETE, built on gin.
//
// This does not hand the job to the SDK's mcp.NewStreamableHTTPHandler
// the way StdioTransport hands STDIO to mcp.Server (see stdio.go).
// The session lifecycle here is part of this server's contract: an
// unknown supplied session id is created on demand unless
// mcp.strict_sessions is set, in which case it 404s; bad Origin is
// exactly 403; GET without a known session is exactly 404 without
// creating one; DELETE without the header is exactly 400. The SDK's
// streamable HTTP handler owns session issuance and keep-alive
// internally and exposes no hook for a permissive/strict toggle or for
// these exact status codes, so this transport keeps its own session
// table (session.go) and SSE loop, sharing only the SDK's wire
// vocabulary (mcp.CallToolResult, mcp.TextContent, mcp.Implementation)
// with the dispatcher both transports call into.
type HTTPTransport struct {
	dispatcher     *Dispatcher
	sessions       *SessionManager
	strictSessions bool
	log            *zap.Logger
}

// NewHTTPTransport builds an HTTPTransport. strictSessions selects
// whether an unrecognized supplied session id is rejected with 404
// (true) or created on demand (false, the default).
func NewHTTPTransport(dispatcher *Dispatcher, sessions *SessionManager, strictSessions bool, log *zap.Logger) *HTTPTransport {
	return &HTTPTransport{dispatcher: dispatcher, sessions: sessions, strictSessions: strictSessions, log: log}
}

const sessionHeader = "mcp-session-id"

// Register wires /mcp's three methods onto r.
func (t *HTTPTransport) Register(r gin.IRouter) {
	r.POST("/mcp", t.handlePost)
	r.GET("/mcp", t.handleGet)
	r.DELETE("/mcp", t.handleDelete)
}

func (t *HTTPTransport) handlePost(c *gin.Context) {
	if !validOrigin(c.GetHeader("Origin")) {
		c.Status(http.StatusForbidden)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(nil, CodeParseError, "failed to read body"))
		return
	}

	msgs, isBatch, err := decodeMessages(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(nil, CodeParseError, "parse error: "+err.Error()))
		return
	}

	hasRequest := false
	hasInitialize := false
	for _, m := range msgs {
		if m.IsRequest() {
			hasRequest = true
		}
		if m.Method == "initialize" {
			hasInitialize = true
		}
	}

	if !hasRequest {
		c.Status(http.StatusAccepted)
		return
	}

	sessionID := c.GetHeader(sessionHeader)
	mintedID := ""
	if hasInitialize && sessionID == "" {
		s, err := t.sessions.Create()
		if err != nil {
			c.JSON(http.StatusInternalServerError, errorResponse(nil, CodeInvalidRequest, "failed to create session"))
			return
		}
		mintedID = s.ID
		t.log.Debug("minted session for initialize request")
	} else if sessionID != "" {
		if _, ok := t.sessions.Get(sessionID); !ok {
			if t.strictSessions {
				c.Status(http.StatusNotFound)
				return
			}
			t.sessions.CreateWithID(sessionID)
			t.log.Debug("created session on demand for unknown id")
		}
	}
	if mintedID != "" {
		c.Header(sessionHeader, mintedID)
	}

	responses := make([]*Response, 0, len(msgs))
	for _, m := range msgs {
		if m.Method == "" {
			continue // a client-sent response, nothing to dispatch
		}
		if resp := t.dispatcher.HandleRequest(m); resp != nil {
			responses = append(responses, resp)
		}
	}
	if len(responses) == 0 {
		c.Status(http.StatusAccepted)
		return
	}

	var payload interface{}
	if isBatch {
		payload = responses
	} else {
		payload = responses[0]
	}

	if wantsEventStream(c.GetHeader("Accept")) {
		writeSSEMessage(c, payload)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (t *HTTPTransport) handleGet(c *gin.Context) {
	if !validOrigin(c.GetHeader("Origin")) {
		c.Status(http.StatusForbidden)
		return
	}
	if !wantsEventStream(c.GetHeader("Accept")) {
		c.Status(http.StatusMethodNotAllowed)
		return
	}

	sessionID := c.GetHeader(sessionHeader)
	if sessionID == "" {
		c.Status(http.StatusNotFound)
		return
	}
	if _, ok := t.sessions.Get(sessionID); !ok {
		c.Status(http.StatusNotFound)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	t.log.Debug("sse stream opened")
	flusher, canFlush := c.Writer.(http.Flusher)
	for {
		select {
		case <-c.Request.Context().Done():
			t.log.Debug("sse stream closed by client")
			return
		case <-ticker.C:
			fmt.Fprint(c.Writer, "event: ping\ndata: {}\n\n")
			if canFlush {
				flusher.Flush()
			}
		}
	}
}

func (t *HTTPTransport) handleDelete(c *gin.Context) {
	sessionID := c.GetHeader(sessionHeader)
	if sessionID == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	if !t.sessions.Delete(sessionID) {
		c.Status(http.StatusNotFound)
		return
	}
	c.Status(http.StatusOK)
}

func writeSSEMessage(c *gin.Context, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Status(http.StatusOK)
	fmt.Fprintf(c.Writer, "event: message\ndata: %s\n\n", data)
	if flusher, ok := c.Writer.(http.Flusher); ok {
		flusher.Flush()
	}
}

func wantsEventStream(accept string) bool {
	return strings.Contains(accept, "text/event-stream")
}

// validOrigin allows a missing Origin header (non-browser clients) or
// one whose host resolves to localhost/loopback
func validOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// decodeMessages parses body as either a single JSON-RPC message or a
// batch array, returning the messages and whether it was a batch.
func decodeMessages(body []byte) ([]Request, bool, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var batch []Request
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, true, err
		}
		return batch, true, nil
	}
	var single Request
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, false, err
	}
	return []Request{single}, false, nil
}
