package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type session struct {
	username string
	expires  time.Time
}

// Sessions issues and validates bearer tokens with a fixed TTL.
type Sessions struct {
	ttl time.Duration

	mu      sync.Mutex
	byToken map[string]session
}

// NewSessions creates a session registry with the given token lifetime.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{ttl: ttl, byToken: make(map[string]session)}
}

// Issue creates a new token for username.
func (s *Sessions) Issue(username string) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.byToken[token] = session{username: username, expires: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return token
}

// Validate returns the username owning token. Expired tokens are
// removed on the spot.
func (s *Sessions) Validate(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byToken[token]
	if !ok {
		return "", false
	}
	if time.Now().After(sess.expires) {
		delete(s.byToken, token)
		return "", false
	}
	return sess.username, true
}

// Revoke drops token if present.
func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	delete(s.byToken, token)
	s.mu.Unlock()
}
