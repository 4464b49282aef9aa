package mcpserver

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/maxzrff/KnowledgeMCP/internal/domain"
)

// sessionIDBytes yields >=256 bits of entropy once base64url-encoded.
const sessionIDBytes = 32

// SessionManager is the HTTP transport's session table: mutated by
// POST/DELETE, read by GET.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewSessionManager builds an empty SessionManager.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*domain.Session)}
}

// Create mints a new session with a fresh random id.
func (m *SessionManager) Create() (*domain.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	s := &domain.Session{ID: id, CreatedAt: now, LastActivity: now}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return s, nil
}

// CreateWithID registers a session under a caller-supplied id. Used
// for the permissive "create on demand" behavior applied when a client
// presents an unknown session id.
func (m *SessionManager) CreateWithID(id string) *domain.Session {
	now := time.Now().UTC()
	s := &domain.Session{ID: id, CreatedAt: now, LastActivity: now}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return s
}

// Get looks up a session by id and bumps its last-activity timestamp.
func (m *SessionManager) Get(id string) (*domain.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	s.LastActivity = time.Now().UTC()
	return s, true
}

// Delete removes a session, reporting whether it existed.
func (m *SessionManager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

func newSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
