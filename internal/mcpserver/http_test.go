package mcpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, strict bool) (*gin.Engine, *SessionManager) {
	t.Helper()
	d := newTestDispatcher(t)
	sessions := NewSessionManager()
	transport := NewHTTPTransport(d, sessions, strict, zap.NewNop())
	r := gin.New()
	transport.Register(r)
	return r, sessions
}

func TestPOST_Initialize_MintsSessionHeader(t *testing.T) {
	r, _ := newTestRouter(t, false)

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	sessionID := rec.Header().Get(sessionHeader)
	assert.GreaterOrEqual(t, len(sessionID), 32)
}

func TestPOST_BadOrigin_Returns403(t *testing.T) {
	r, _ := newTestRouter(t, false)

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPOST_NotificationOnly_Returns202(t *testing.T) {
	r, _ := newTestRouter(t, false)

	body := []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestGET_NoAccept_Returns405(t *testing.T) {
	r, _ := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGET_UnknownSession_Returns404(t *testing.T) {
	r, _ := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set(sessionHeader, "unknown-session")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDELETE_MissingHeader_Returns400(t *testing.T) {
	r, _ := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDELETE_KnownSession_Returns200(t *testing.T) {
	r, sessions := newTestRouter(t, false)
	s, err := sessions.Create()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	req.Header.Set(sessionHeader, s.ID)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPOST_UnknownSession_StrictMode_Returns404(t *testing.T) {
	r, _ := newTestRouter(t, true)

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	req.Header.Set(sessionHeader, "unknown-session")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPOST_UnknownSession_PermissiveMode_CreatesOnDemand(t *testing.T) {
	r, sessions := newTestRouter(t, false)

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	req.Header.Set(sessionHeader, "brand-new-session")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	_, ok := sessions.Get("brand-new-session")
	assert.True(t, ok)
}

func TestPOST_Initialize_ResultCarriesProtocolVersion(t *testing.T) {
	r, _ := newTestRouter(t, false)

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var decoded struct {
		Result struct {
			ProtocolVersion string `json:"protocolVersion"`
			ServerInfo      struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, ProtocolVersion, decoded.Result.ProtocolVersion)
	assert.Equal(t, ServerName, decoded.Result.ServerInfo.Name)
}

func TestPOST_AcceptEventStream_RespondsAsSSE(t *testing.T) {
	r, _ := newTestRouter(t, false)

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")
	assert.Contains(t, rec.Body.String(), "event: message")
	assert.Contains(t, rec.Body.String(), "knowledge-search")
}

func TestDELETE_UnknownSession_Returns404(t *testing.T) {
	r, _ := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	req.Header.Set(sessionHeader, "never-created")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPOST_LocalhostOrigin_Allowed(t *testing.T) {
	r, _ := newTestRouter(t, false)

	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	req.Header.Set("Origin", "http://localhost:3100")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPOST_Batch_ReturnsArray(t *testing.T) {
	r, _ := newTestRouter(t, false)

	body := []byte(`[{"jsonrpc":"2.0","id":1,"method":"tools/list"},{"jsonrpc":"2.0","id":2,"method":"tools/list"}]`)
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var batch []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	assert.Len(t, batch, 2)
}

func TestPOST_MalformedBody_ReturnsParseError(t *testing.T) {
	r, _ := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader([]byte(`{not json`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "-32700")
}

func TestNewSessionID_LongAndURLSafe(t *testing.T) {
	id, err := newSessionID()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(id), 32)
	assert.NotContains(t, id, "+")
	assert.NotContains(t, id, "/")
	assert.NotContains(t, id, "=")
}

func TestPOST_ResponseOnlyBody_Returns202(t *testing.T) {
	r, _ := newTestRouter(t, false)

	body := []byte(`{"jsonrpc":"2.0","id":7,"result":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}
