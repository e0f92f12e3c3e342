package workflow

import (
	"fmt"
	"sync"
)

// Manager tracks live evaluation sessions, one per (promoter, event). A new
// session for the same pair replaces the previous one; sessions hold no
// persisted state so discarding one loses nothing.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session registry.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Put registers (or replaces) the session for its promoter/event pair.
func (m *Manager) Put(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionKey(s.OwnerID(), s.EventID())] = s
}

// Get returns the live session for the pair, if any.
func (m *Manager) Get(ownerID string, eventID int64) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionKey(ownerID, eventID)]
	return s, ok
}

// Drop discards the session for the pair.
func (m *Manager) Drop(ownerID string, eventID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionKey(ownerID, eventID))
}

func sessionKey(ownerID string, eventID int64) string {
	return fmt.Sprintf("%s:%d", ownerID, eventID)
}
