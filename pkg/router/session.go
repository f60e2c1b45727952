package router

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gabrielmiguelok/formwizard/pkg/core"
	"github.com/gabrielmiguelok/formwizard/pkg/protocol"
	"github.com/gabrielmiguelok/formwizard/pkg/transport"
)

// LiveViewSession binds one websocket connection to one component instance.
type LiveViewSession struct {
	ID       string
	SocketID string

	Component core.Component
	Socket    *core.Socket
	Transport transport.Transport

	Params  core.Params
	Session core.Session

	JoinRef string
	Topic   string

	CreatedAt    time.Time
	LastActivity time.Time
	Mounted      bool

	// Version orders full renders on the client.
	Version uint64

	// renderHash is the fnv hash of the last HTML sent.
	renderHash uint64

	mu sync.RWMutex
}

// NewLiveViewSession creates a new session.
func NewLiveViewSession(socketID string, comp core.Component, params core.Params, session core.Session) *LiveViewSession {
	now := time.Now()
	return &LiveViewSession{
		ID:           generateSessionID(),
		SocketID:     socketID,
		Component:    comp,
		Params:       params,
		Session:      session,
		Topic:        protocol.Topic(socketID),
		CreatedAt:    now,
		LastActivity: now,
	}
}

// UpdateActivity records activity now.
func (s *LiveViewSession) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActivity = time.Now()
}

// GetLastActivity returns the last activity time.
func (s *LiveViewSession) GetLastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastActivity
}

// SetMounted marks the component as mounted.
func (s *LiveViewSession) SetMounted(mounted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Mounted = mounted
}

// IsMounted reports whether the component is mounted.
func (s *LiveViewSession) IsMounted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Mounted
}

// SetJoinRef stores the join reference.
func (s *LiveViewSession) SetJoinRef(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.JoinRef = ref
}

// nextRender records the hash of a fresh render. It reports whether the
// render differs from the previous one and, if so, its version.
func (s *LiveViewSession) nextRender(hash uint64) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Version > 0 && s.renderHash == hash {
		return s.Version, false
	}
	s.renderHash = hash
	s.Version++
	return s.Version, true
}

// LiveViewSessionManager tracks active live sessions.
type LiveViewSessionManager struct {
	sessions map[string]*LiveViewSession
	bySocket map[string]*LiveViewSession

	// maxSessions is the session cap (0 = unlimited).
	maxSessions int

	// sessionTTL is how long an idle session is kept.
	sessionTTL time.Duration

	mu sync.RWMutex
}

// LiveViewSessionManagerConfig configures the session manager.
type LiveViewSessionManagerConfig struct {
	MaxSessions int
	SessionTTL  time.Duration
}

// DefaultSessionManagerConfig returns the default configuration.
func DefaultSessionManagerConfig() *LiveViewSessionManagerConfig {
	return &LiveViewSessionManagerConfig{
		MaxSessions: 10000,
		SessionTTL:  30 * time.Minute,
	}
}

// NewLiveViewSessionManager creates a session manager with defaults.
func NewLiveViewSessionManager() *LiveViewSessionManager {
	return NewLiveViewSessionManagerWithConfig(DefaultSessionManagerConfig())
}

// NewLiveViewSessionManagerWithConfig creates a session manager.
func NewLiveViewSessionManagerWithConfig(config *LiveViewSessionManagerConfig) *LiveViewSessionManager {
	if config == nil {
		config = DefaultSessionManagerConfig()
	}
	return &LiveViewSessionManager{
		sessions:    make(map[string]*LiveViewSession),
		bySocket:    make(map[string]*LiveViewSession),
		maxSessions: config.MaxSessions,
		sessionTTL:  config.SessionTTL,
	}
}

// Create registers a new session, evicting the least recently active one
// when the cap is reached.
func (m *LiveViewSessionManager) Create(socketID string, comp core.Component, params core.Params, session core.Session) *LiveViewSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.evictOldestLocked()
	}

	lvSession := NewLiveViewSession(socketID, comp, params, session)
	m.sessions[lvSession.ID] = lvSession
	m.bySocket[socketID] = lvSession

	return lvSession
}

// GetBySocket returns a session by socket ID.
func (m *LiveViewSessionManager) GetBySocket(socketID string) (*LiveViewSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.bySocket[socketID]
	return s, ok
}

// Remove deletes a session.
func (m *LiveViewSessionManager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[sessionID]; ok {
		delete(m.bySocket, s.SocketID)
		delete(m.sessions, sessionID)
	}
}

// Count returns the number of active sessions.
func (m *LiveViewSessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup drops sessions idle for longer than the TTL and closes their
// sockets. It returns the number removed.
func (m *LiveViewSessionManager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	removed := 0

	for id, s := range m.sessions {
		if now.Sub(s.GetLastActivity()) > m.sessionTTL {
			if s.Socket != nil {
				s.Socket.Close()
			}
			delete(m.bySocket, s.SocketID)
			delete(m.sessions, id)
			removed++
		}
	}

	return removed
}

func (m *LiveViewSessionManager) evictOldestLocked() {
	var oldest *LiveViewSession
	var oldestID string

	for id, s := range m.sessions {
		if oldest == nil || s.GetLastActivity().Before(oldest.GetLastActivity()) {
			oldest = s
			oldestID = id
		}
	}

	if oldest != nil {
		if oldest.Socket != nil {
			oldest.Socket.Close()
		}
		delete(m.bySocket, oldest.SocketID)
		delete(m.sessions, oldestID)
	}
}

// StartCleanupRoutine runs Cleanup every interval until stopCh closes.
func (m *LiveViewSessionManager) StartCleanupRoutine(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Cleanup()
			case <-stopCh:
				return
			}
		}
	}()
}

func generateSessionID() string {
	return uuid.NewString()
}

func generateSocketID() string {
	return uuid.NewString()
}
