package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inkwell-cms/inkwell/internal/utils"
)

const (
	// sessionIDBytes yields 128 hex characters, infeasible to guess or enumerate
	sessionIDBytes = 64

	// userIDBytes yields the 32 hex characters of an "admin-" user id
	userIDBytes = 16

	// SecurityLevelHigh marks sessions issued for the admin credential class
	SecurityLevelHigh = "high"
)

// Session describes one issued admin session. Sessions are reachable only by
// their id; there is no enumeration path to raw ids.
type Session struct {
	ID            string
	UserID        string
	Username      string
	ClientIP      string
	UserAgent     string
	CreatedAt     time.Time
	LastActivity  time.Time
	ExpiresAt     time.Time
	IsActive      bool
	SecurityLevel string
}

// SessionSummary is the masked view returned for operational monitoring.
// The id is truncated so the listing never exposes a usable credential.
type SessionSummary struct {
	ID           string    `json:"session_id"`
	Username     string    `json:"username"`
	ClientIP     string    `json:"client_ip"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionStore issues, validates, and invalidates in-memory admin sessions
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty session store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

// Create issues a new session for the given username and client IP.
// The user agent is captured lazily on first validation, not here.
func (s *SessionStore) Create(username, clientIP string, ttl time.Duration, now time.Time) (*Session, error) {
	id, err := randomHex(sessionIDBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	// Fresh per session: decouples internal bookkeeping from the session id
	// rather than acting as a stable identity key.
	uid, err := randomHex(userIDBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate user id: %w", err)
	}

	session := &Session{
		ID:            id,
		UserID:        "admin-" + uid,
		Username:      username,
		ClientIP:      clientIP,
		CreatedAt:     now,
		LastActivity:  now,
		ExpiresAt:     now.Add(ttl),
		IsActive:      true,
		SecurityLevel: SecurityLevelHigh,
	}

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	copied := *session
	return &copied, nil
}

// Validate looks up and refreshes a session. Returns nil for an empty or
// unknown id, an expired session, or an IP mismatch when enforceIP is set.
// A user-agent mismatch is a soft signal: logged, never fatal, since agents
// legitimately vary across proxies and browsers.
func (s *SessionStore) Validate(sessionID, clientIP, userAgent string, enforceIP bool, now time.Time) *Session {
	if sessionID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}

	if now.After(session.ExpiresAt) {
		// Expired sessions are never silently revived
		delete(s.sessions, sessionID)
		return nil
	}

	if enforceIP && clientIP != session.ClientIP {
		slog.Warn("session rejected - client IP changed",
			"session_id", utils.MaskSessionID(sessionID),
			"session_ip", session.ClientIP,
			"request_ip", clientIP,
		)
		return nil
	}

	if session.UserAgent == "" {
		session.UserAgent = userAgent
	} else if userAgent != "" && userAgent != session.UserAgent {
		slog.Warn("session user agent changed",
			"session_id", utils.MaskSessionID(sessionID),
			"ip", clientIP,
		)
	}

	session.LastActivity = now

	copied := *session
	return &copied
}

// Invalidate removes a session if present. Unknown ids are a no-op, not an
// error: garbage tokens must never produce a diagnostic that aids probing.
// Reports whether a session was actually removed.
func (s *SessionStore) Invalidate(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return false
	}
	delete(s.sessions, sessionID)
	return true
}

// Summaries returns one masked entry per active session
func (s *SessionStore) Summaries() []SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SessionSummary, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, SessionSummary{
			ID:           utils.MaskSessionID(session.ID),
			Username:     session.Username,
			ClientIP:     session.ClientIP,
			CreatedAt:    session.CreatedAt,
			LastActivity: session.LastActivity,
			ExpiresAt:    session.ExpiresAt,
		})
	}
	return out
}

// Len returns the number of stored sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// purgeExpired removes sessions past their expiry. Returns the number removed.
func (s *SessionStore) purgeExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// clear drops all sessions
func (s *SessionStore) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*Session)
}

// randomHex returns n cryptographically random bytes hex-encoded
func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
