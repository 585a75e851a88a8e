package security

import (
	"sync"
	"testing"
	"time"
)

// fakeConfig implements ConfigProvider for tests
type fakeConfig struct {
	mu          sync.Mutex
	username    string
	password    string
	maxAttempts int
	enforceIP   bool
}

func (f *fakeConfig) GetAdminUsername() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.username
}

func (f *fakeConfig) GetAdminPassword() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.password
}

func (f *fakeConfig) GetMaxLoginAttempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxAttempts
}

func (f *fakeConfig) GetEnforceIPConsistency() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enforceIP
}

// fakeClock provides injectable time for the service
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// recordedEvent captures one audit call
type recordedEvent struct {
	event    string
	username string
	clientIP string
}

// fakeRecorder captures audit events in memory
type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *fakeRecorder) Record(event, username, clientIP, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{event: event, username: username, clientIP: clientIP})
}

func (r *fakeRecorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.event
	}
	return out
}

func newTestService(t *testing.T) (*Service, *fakeConfig, *fakeClock) {
	t.Helper()

	cfg := &fakeConfig{
		username:    "admin",
		password:    "securepassword123",
		maxAttempts: 5,
	}
	clock := &fakeClock{t: time.Now()}

	svc := NewService(cfg, Options{
		SessionTTL:      24 * time.Hour,
		CleanupInterval: time.Hour, // never fires during a test
		Now:             clock.now,
	})
	t.Cleanup(svc.Destroy)

	return svc, cfg, clock
}

// TestValidateAdminCredentials_Success tests the happy path end to end
func TestValidateAdminCredentials_Success(t *testing.T) {
	svc, _, _ := newTestService(t)

	result := svc.ValidateAdminCredentials("admin", "securepassword123", "1.2.3.4")
	if !result.Valid {
		t.Fatalf("login failed: %+v", result)
	}
	if len(result.SessionID) != 128 {
		t.Errorf("session id length = %d, want 128", len(result.SessionID))
	}
	if result.Username != "admin" {
		t.Errorf("username = %q, want admin", result.Username)
	}
	if result.ExpiresAt.IsZero() {
		t.Error("expires at is zero")
	}

	// The issued session must validate
	if s := svc.ValidateSession(result.SessionID, "1.2.3.4", "test-agent"); s == nil {
		t.Error("issued session did not validate")
	}
}

// TestValidateAdminCredentials_InvalidCredentials tests the generic rejection
func TestValidateAdminCredentials_InvalidCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "wrong"},
		{"wrong username", "root", "securepassword123"},
		{"both wrong", "root", "wrong"},
		{"empty credentials", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.ValidateAdminCredentials(tt.username, tt.password, "10.0.0.1")
			if result.Valid {
				t.Fatal("login succeeded, want failure")
			}
			if result.Code != CodeInvalidCredentials {
				t.Errorf("code = %q, want %q", result.Code, CodeInvalidCredentials)
			}
			// The message must not reveal which field was wrong
			if result.Error != "Invalid username or password" {
				t.Errorf("error message = %q, want generic message", result.Error)
			}
		})
	}
}

// TestValidateAdminCredentials_ConfigError tests missing server-side credentials
func TestValidateAdminCredentials_ConfigError(t *testing.T) {
	cfg := &fakeConfig{username: "", password: "", maxAttempts: 5}
	svc := NewService(cfg, Options{CleanupInterval: time.Hour})
	t.Cleanup(svc.Destroy)

	result := svc.ValidateAdminCredentials("admin", "anything", "1.2.3.4")
	if result.Valid {
		t.Fatal("login succeeded with no configured credentials")
	}
	if result.Code != CodeConfigError {
		t.Errorf("code = %q, want %q", result.Code, CodeConfigError)
	}
}

// TestValidateAdminCredentials_LockoutScenario runs the end-to-end brute-force
// scenario: five failures lock the key, the correct password is then refused,
// and a different IP is unaffected
func TestValidateAdminCredentials_LockoutScenario(t *testing.T) {
	svc, _, _ := newTestService(t)

	for i := 0; i < 5; i++ {
		result := svc.ValidateAdminCredentials("admin", "wrong", "1.2.3.4")
		if result.Valid {
			t.Fatalf("attempt %d succeeded with wrong password", i+1)
		}
		if result.Code != CodeInvalidCredentials {
			t.Fatalf("attempt %d code = %q, want %q", i+1, result.Code, CodeInvalidCredentials)
		}
	}

	// Sixth attempt is locked even with the correct password
	result := svc.ValidateAdminCredentials("admin", "securepassword123", "1.2.3.4")
	if result.Valid {
		t.Fatal("locked key accepted correct password")
	}
	if result.Code != CodeAccountLocked {
		t.Errorf("code = %q, want %q", result.Code, CodeAccountLocked)
	}
	if !result.Blocked {
		t.Error("blocked = false, want true")
	}
	if result.RetryAfter <= 0 {
		t.Errorf("retryAfter = %d, want > 0", result.RetryAfter)
	}

	// The block is IP-scoped: a different IP with correct credentials succeeds
	result = svc.ValidateAdminCredentials("admin", "securepassword123", "5.6.7.8")
	if !result.Valid {
		t.Fatalf("login from different IP failed: %+v", result)
	}
}

// TestValidateAdminCredentials_LockoutEscalation tests that retries against a
// locked key keep doubling the lockout window up to the cap
func TestValidateAdminCredentials_LockoutEscalation(t *testing.T) {
	svc, _, _ := newTestService(t)

	for i := 0; i < 5; i++ {
		svc.ValidateAdminCredentials("admin", "wrong", "1.2.3.4")
	}

	// Each locked retry must push the unlock further out
	prev := 0
	for i := 0; i < 5; i++ {
		result := svc.ValidateAdminCredentials("admin", "wrong", "1.2.3.4")
		if result.Code != CodeAccountLocked {
			t.Fatalf("locked attempt %d code = %q, want %q", i+1, result.Code, CodeAccountLocked)
		}
		if result.RetryAfter <= prev {
			t.Fatalf("locked attempt %d retryAfter = %ds, want > %ds", i+1, result.RetryAfter, prev)
		}
		prev = result.RetryAfter
	}

	// Five locked retries reach the 32x cap; further retries stay there
	wantCap := int((32 * 15 * time.Minute).Seconds())
	if prev != wantCap {
		t.Errorf("retryAfter after escalation = %ds, want cap %ds", prev, wantCap)
	}
	for i := 0; i < 3; i++ {
		result := svc.ValidateAdminCredentials("admin", "wrong", "1.2.3.4")
		if result.RetryAfter != wantCap {
			t.Errorf("capped retryAfter = %ds, want %ds", result.RetryAfter, wantCap)
		}
	}

	// The correct password while locked escalates too, never unlocks
	result := svc.ValidateAdminCredentials("admin", "securepassword123", "1.2.3.4")
	if result.Valid {
		t.Fatal("locked key accepted correct password")
	}
	if result.RetryAfter != wantCap {
		t.Errorf("retryAfter with correct password = %ds, want %ds", result.RetryAfter, wantCap)
	}
}

// TestValidateAdminCredentials_SuccessClearsAttempts tests that a successful
// login resets the failure count for the key
func TestValidateAdminCredentials_SuccessClearsAttempts(t *testing.T) {
	svc, _, _ := newTestService(t)

	for i := 0; i < 4; i++ {
		svc.ValidateAdminCredentials("admin", "wrong", "1.2.3.4")
	}

	result := svc.ValidateAdminCredentials("admin", "securepassword123", "1.2.3.4")
	if !result.Valid {
		t.Fatalf("login failed below threshold: %+v", result)
	}

	// Failure count restarts from 1: four more failures must not lock
	for i := 0; i < 4; i++ {
		r := svc.ValidateAdminCredentials("admin", "wrong", "1.2.3.4")
		if r.Code != CodeInvalidCredentials {
			t.Fatalf("post-success attempt %d code = %q, want %q", i+1, r.Code, CodeInvalidCredentials)
		}
	}
}

// TestValidateSession_IPConsistency tests config-driven session IP pinning
func TestValidateSession_IPConsistency(t *testing.T) {
	svc, cfg, _ := newTestService(t)

	result := svc.ValidateAdminCredentials("admin", "securepassword123", "1.2.3.4")
	if !result.Valid {
		t.Fatalf("login failed: %+v", result)
	}

	// Disabled by default
	if s := svc.ValidateSession(result.SessionID, "9.9.9.9", ""); s == nil {
		t.Error("session rejected on IP change with enforcement disabled")
	}

	cfg.mu.Lock()
	cfg.enforceIP = true
	cfg.mu.Unlock()

	if s := svc.ValidateSession(result.SessionID, "9.9.9.9", ""); s != nil {
		t.Error("session accepted on IP change with enforcement enabled")
	}
	if s := svc.ValidateSession(result.SessionID, "1.2.3.4", ""); s == nil {
		t.Error("session rejected for original IP with enforcement enabled")
	}
}

// TestRunCleanup tests that the sweep removes expired sessions and that the
// removed session is no longer retrievable
func TestRunCleanup(t *testing.T) {
	svc, _, clock := newTestService(t)

	result := svc.ValidateAdminCredentials("admin", "securepassword123", "1.2.3.4")
	if !result.Valid {
		t.Fatalf("login failed: %+v", result)
	}

	before := svc.Stats().ActiveSessions
	if before != 1 {
		t.Fatalf("active sessions = %d, want 1", before)
	}

	// Push the session past its TTL and sweep
	clock.advance(25 * time.Hour)
	svc.RunCleanup()

	stats := svc.Stats()
	if stats.ActiveSessions >= before {
		t.Errorf("active sessions = %d after cleanup, want < %d", stats.ActiveSessions, before)
	}
	if stats.LastCleanup.IsZero() {
		t.Error("last cleanup timestamp not set")
	}
	if s := svc.ValidateSession(result.SessionID, "1.2.3.4", ""); s != nil {
		t.Error("expired session still validates after cleanup")
	}
}

// TestRunCleanup_StaleAttempts tests that day-old lockouts are treated as
// resolved by the sweep
func TestRunCleanup_StaleAttempts(t *testing.T) {
	svc, _, clock := newTestService(t)

	for i := 0; i < 5; i++ {
		svc.ValidateAdminCredentials("admin", "wrong", "1.2.3.4")
	}
	if got := svc.Stats().BlockedKeys; got != 1 {
		t.Fatalf("blocked keys = %d, want 1", got)
	}

	clock.advance(25 * time.Hour)
	svc.RunCleanup()

	stats := svc.Stats()
	if stats.BlockedKeys != 0 {
		t.Errorf("blocked keys = %d after sweep, want 0", stats.BlockedKeys)
	}
	if stats.TotalFailedAttempts != 0 {
		t.Errorf("failed attempts = %d after sweep, want 0", stats.TotalFailedAttempts)
	}

	// The key can log in again
	result := svc.ValidateAdminCredentials("admin", "securepassword123", "1.2.3.4")
	if !result.Valid {
		t.Fatalf("login still blocked after stale sweep: %+v", result)
	}
}

// TestInvalidateSession tests logout semantics including the unknown-id no-op
func TestInvalidateSession(t *testing.T) {
	svc, _, _ := newTestService(t)

	result := svc.ValidateAdminCredentials("admin", "securepassword123", "1.2.3.4")
	if !result.Valid {
		t.Fatalf("login failed: %+v", result)
	}

	svc.InvalidateSession(result.SessionID)
	if s := svc.ValidateSession(result.SessionID, "1.2.3.4", ""); s != nil {
		t.Error("invalidated session still validates")
	}

	// Unknown id: no panic, no error
	svc.InvalidateSession("garbage-token")
}

// TestActiveSessions_Masked tests that enumeration never returns raw ids
func TestActiveSessions_Masked(t *testing.T) {
	svc, _, _ := newTestService(t)

	result := svc.ValidateAdminCredentials("admin", "securepassword123", "1.2.3.4")
	if !result.Valid {
		t.Fatalf("login failed: %+v", result)
	}

	sessions := svc.ActiveSessions()
	if len(sessions) != 1 {
		t.Fatalf("active sessions = %d, want 1", len(sessions))
	}
	want := result.SessionID[:8] + "..."
	if sessions[0].ID != want {
		t.Errorf("listed id = %q, want masked %q", sessions[0].ID, want)
	}
}

// TestDestroy tests that destroy clears state and is idempotent
func TestDestroy(t *testing.T) {
	cfg := &fakeConfig{username: "admin", password: "securepassword123", maxAttempts: 5}
	svc := NewService(cfg, Options{CleanupInterval: time.Hour})

	result := svc.ValidateAdminCredentials("admin", "securepassword123", "1.2.3.4")
	if !result.Valid {
		t.Fatalf("login failed: %+v", result)
	}
	svc.ValidateAdminCredentials("admin", "wrong", "5.6.7.8")

	svc.Destroy()

	stats := svc.Stats()
	if stats.ActiveSessions != 0 || stats.TotalFailedAttempts != 0 {
		t.Errorf("state survived destroy: %+v", stats)
	}
	if s := svc.ValidateSession(result.SessionID, "1.2.3.4", ""); s != nil {
		t.Error("session survived destroy")
	}

	// Second destroy must be a safe no-op
	svc.Destroy()
}

// TestAuditEvents tests that the recorder sees login and lockout events
func TestAuditEvents(t *testing.T) {
	cfg := &fakeConfig{username: "admin", password: "securepassword123", maxAttempts: 5}
	rec := &fakeRecorder{}
	svc := NewService(cfg, Options{CleanupInterval: time.Hour, Recorder: rec})
	t.Cleanup(svc.Destroy)

	svc.ValidateAdminCredentials("admin", "wrong", "1.2.3.4")
	svc.ValidateAdminCredentials("admin", "securepassword123", "1.2.3.4")

	for i := 0; i < 5; i++ {
		svc.ValidateAdminCredentials("admin", "wrong", "1.2.3.4")
	}
	svc.ValidateAdminCredentials("admin", "securepassword123", "1.2.3.4")

	want := map[string]bool{
		EventLoginFailed:  false,
		EventLoginSuccess: false,
		EventLoginLocked:  false,
	}
	for _, name := range rec.names() {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("event %q not recorded", name)
		}
	}
}
