package security

import (
	"log/slog"
	"sync"
	"time"
)

// Error codes returned on the login path. These are wire-level codes, not Go
// error types: every failure here is recoverable by the caller.
const (
	CodeConfigError        = "CONFIG_ERROR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountLocked      = "ACCOUNT_LOCKED"
)

// Audit event names recorded through the Recorder
const (
	EventLoginSuccess       = "login_success"
	EventLoginFailed        = "login_failed"
	EventLoginLocked        = "login_locked"
	EventSessionInvalidated = "session_invalidated"
	EventSessionsExpired    = "sessions_expired"
)

// ConfigProvider supplies current security settings. Values are read on every
// validation, never cached, so runtime updates apply to the next attempt.
type ConfigProvider interface {
	GetAdminUsername() string
	GetAdminPassword() string
	GetMaxLoginAttempts() int
	GetEnforceIPConsistency() bool
}

// Recorder receives security events for the audit trail. Implementations must
// not block the login path on slow storage.
type Recorder interface {
	Record(event, username, clientIP, detail string)
}

// LoginResult is the authorization decision for one login attempt
type LoginResult struct {
	Valid      bool      `json:"valid"`
	SessionID  string    `json:"sessionId,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	Username   string    `json:"username,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt,omitzero"`
	Error      string    `json:"error,omitempty"`
	Code       string    `json:"code,omitempty"`
	Blocked    bool      `json:"blocked,omitempty"`
	RetryAfter int       `json:"retryAfter,omitempty"` // seconds
}

// Stats aggregates security-state counts for observability
type Stats struct {
	ActiveSessions      int       `json:"active_sessions"`
	BlockedKeys         int       `json:"blocked_keys"`
	TotalFailedAttempts int       `json:"total_failed_attempts"`
	LastCleanup         time.Time `json:"last_cleanup"`
}

// Options tune a Service. Zero values select production defaults.
type Options struct {
	SessionTTL      time.Duration // default 24h
	CleanupInterval time.Duration // default 5m
	Recorder        Recorder      // nil disables the audit trail
	Now             func() time.Time
}

// Service coordinates credential validation, brute-force tracking, and session
// management for each authentication attempt. It exclusively owns the session
// and failed-attempt state; all access goes through its methods.
type Service struct {
	cfg        ConfigProvider
	recorder   Recorder
	sessions   *SessionStore
	guard      *BruteForceGuard
	sessionTTL time.Duration
	now        func() time.Time

	cleanup *time.Ticker
	done    chan struct{}

	destroyOnce sync.Once

	mu          sync.Mutex
	lastCleanup time.Time
}

// NewService creates the security coordinator and starts its cleanup sweep
func NewService(cfg ConfigProvider, opts Options) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	svc := &Service{
		cfg:        cfg,
		recorder:   opts.Recorder,
		sessions:   NewSessionStore(),
		guard:      NewBruteForceGuard(cfg.GetMaxLoginAttempts),
		sessionTTL: opts.SessionTTL,
		now:        opts.Now,
		cleanup:    time.NewTicker(opts.CleanupInterval),
		done:       make(chan struct{}),
	}

	go svc.runCleanup()

	return svc
}

// ValidateAdminCredentials authenticates one login attempt. The brute-force
// check runs before any credential comparison so a locked key exposes no
// timing information about credential correctness.
func (s *Service) ValidateAdminCredentials(username, password, clientIP string) LoginResult {
	adminUsername := s.cfg.GetAdminUsername()
	adminPassword := s.cfg.GetAdminPassword()

	if adminUsername == "" || adminPassword == "" {
		slog.Error("admin login attempted but credentials are not configured", "ip", clientIP)
		return LoginResult{
			Valid: false,
			Error: "Server authentication is not configured",
			Code:  CodeConfigError,
		}
	}

	if s.guard.IsBlocked(clientIP, username) {
		// A retry against a locked key is itself a failure: it doubles the
		// backoff multiplier, so hammering the endpoint pushes the unlock
		// further out instead of leaving the window fixed.
		s.guard.TrackFailedAttempt(clientIP, username, s.now())
		retryAfter := s.guard.RetryAfter(clientIP, username)
		slog.Warn("admin login blocked - too many failed attempts",
			"username", username,
			"ip", clientIP,
			"retry_after_seconds", int(retryAfter.Seconds()),
		)
		s.record(EventLoginLocked, username, clientIP, "")
		return LoginResult{
			Valid:      false,
			Error:      "Too many failed attempts. Try again later.",
			Code:       CodeAccountLocked,
			Blocked:    true,
			RetryAfter: int(retryAfter.Seconds()),
		}
	}

	// Compare both fields unconditionally; the generic failure message never
	// reveals which one was wrong.
	usernameMatch := ConstantTimeCompare(username, adminUsername)
	passwordMatch := ConstantTimeCompare(password, adminPassword)

	if !usernameMatch || !passwordMatch {
		s.guard.TrackFailedAttempt(clientIP, username, s.now())
		slog.Warn("admin login failed - invalid credentials",
			"username", username,
			"ip", clientIP,
		)
		s.record(EventLoginFailed, username, clientIP, "")
		return LoginResult{
			Valid: false,
			Error: "Invalid username or password",
			Code:  CodeInvalidCredentials,
		}
	}

	s.guard.ClearFailedAttempts(clientIP, username)

	session, err := s.sessions.Create(username, clientIP, s.sessionTTL, s.now())
	if err != nil {
		slog.Error("failed to create admin session", "error", err, "ip", clientIP)
		return LoginResult{
			Valid: false,
			Error: "Server authentication is not configured",
			Code:  CodeConfigError,
		}
	}

	slog.Info("admin login successful",
		"username", username,
		"ip", clientIP,
		"expires_at", session.ExpiresAt,
	)
	s.record(EventLoginSuccess, username, clientIP, "")

	return LoginResult{
		Valid:     true,
		SessionID: session.ID,
		UserID:    session.UserID,
		Username:  session.Username,
		ExpiresAt: session.ExpiresAt,
	}
}

// ValidateSession resolves a session token for an authenticated request.
// Returns nil for any invalid input; malformed tokens are routine adversarial
// traffic, not an error condition.
func (s *Service) ValidateSession(sessionID, clientIP, userAgent string) *Session {
	return s.sessions.Validate(sessionID, clientIP, userAgent, s.cfg.GetEnforceIPConsistency(), s.now())
}

// InvalidateSession removes a session. No-op for unknown ids.
func (s *Service) InvalidateSession(sessionID string) {
	if s.sessions.Invalidate(sessionID) {
		s.record(EventSessionInvalidated, "", "", "")
	}
}

// ActiveSessions returns the masked session list for monitoring
func (s *Service) ActiveSessions() []SessionSummary {
	return s.sessions.Summaries()
}

// Stats returns aggregate security-state counts
func (s *Service) Stats() Stats {
	s.mu.Lock()
	lastCleanup := s.lastCleanup
	s.mu.Unlock()

	return Stats{
		ActiveSessions:      s.sessions.Len(),
		BlockedKeys:         s.guard.blockedCount(),
		TotalFailedAttempts: s.guard.totalFailures(),
		LastCleanup:         lastCleanup,
	}
}

// RunCleanup performs one sweep: expired sessions and stale attempt records.
// Exposed so tests can trigger a sweep without waiting on the ticker.
func (s *Service) RunCleanup() {
	now := s.now()
	expired := s.sessions.purgeExpired(now)
	stale := s.guard.sweepStale(now)

	s.mu.Lock()
	s.lastCleanup = now
	s.mu.Unlock()

	if expired > 0 || stale > 0 {
		slog.Info("security cleanup sweep",
			"expired_sessions", expired,
			"stale_attempt_records", stale,
		)
	}
	if expired > 0 {
		s.record(EventSessionsExpired, "", "", "")
	}
}

// runCleanup drives the recurring sweep until Destroy is called
func (s *Service) runCleanup() {
	for {
		select {
		case <-s.done:
			return
		case <-s.cleanup.C:
			s.safeSweep()
		}
	}
}

// safeSweep guards one sweep against panics so a single failure never kills
// the timer; the next interval retries.
func (s *Service) safeSweep() {
	defer func() {
		if err := recover(); err != nil {
			slog.Error("security cleanup sweep panicked", "error", err)
		}
	}()
	s.RunCleanup()
}

// Destroy stops the cleanup sweep and clears all in-memory security state.
// Idempotent and safe to call from the shutdown path.
func (s *Service) Destroy() {
	s.destroyOnce.Do(func() {
		s.cleanup.Stop()
		close(s.done)
		s.sessions.clear()
		s.guard.clear()
		slog.Info("security service destroyed")
	})
}

// record forwards an event to the audit recorder when one is configured
func (s *Service) record(event, username, clientIP, detail string) {
	if s.recorder != nil {
		s.recorder.Record(event, username, clientIP, detail)
	}
}
