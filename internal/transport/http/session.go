package http

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const sessionTTL = 24 * time.Hour

// Session is an authenticated admin session.
type Session struct {
	Token     string
	Username  string
	CSRFToken string
	ExpiresAt time.Time
}

// SessionStore keeps admin sessions in memory. Sessions do not survive a
// restart; admins simply log in again.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a new in-memory session store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
		ttl:      sessionTTL,
		now:      time.Now,
	}
}

// Create opens a new session for the given admin username.
func (s *SessionStore) Create(username string) Session {
	session := Session{
		Token:     uuid.NewString(),
		Username:  username,
		CSRFToken: uuid.NewString(),
		ExpiresAt: s.now().Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}

// Get returns the session for a token, or false if the token is unknown
// or expired. Expired sessions are evicted on lookup.
func (s *SessionStore) Get(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return Session{}, false
	}
	if s.now().After(session.ExpiresAt) {
		delete(s.sessions, token)
		return Session{}, false
	}
	return session, true
}

// Delete removes a session
func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}
