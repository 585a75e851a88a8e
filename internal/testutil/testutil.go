package testutil

import (
	"net/http/httptest"
	"testing"

	"github.com/inkwell-cms/inkwell/internal/config"
)

// SetupTestConfig creates a test configuration with the admin credentials
// the security tests expect
func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	cfg.Port = "8080"
	cfg.AuditDBPath = ":memory:"
	cfg.HTTPSEnabled = false
	cfg.SessionTTLHours = 24
	cfg.CleanupIntervalMinutes = 5
	cfg.TrustProxyHeaders = "false"
	cfg.AdminUsername = "admin"

	if err := cfg.SetAdminPassword("securepassword123"); err != nil {
		t.Fatalf("failed to set admin password: %v", err)
	}
	if err := cfg.SetMaxLoginAttempts(5); err != nil {
		t.Fatalf("failed to set max login attempts: %v", err)
	}

	return cfg
}

// AssertStatusCode checks that the HTTP response status code matches expected
func AssertStatusCode(t *testing.T, rr *httptest.ResponseRecorder, wantStatus int) {
	t.Helper()

	if rr.Code != wantStatus {
		t.Errorf("status code = %d, want %d\nBody: %s", rr.Code, wantStatus, rr.Body.String())
	}
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertEqual fails the test if got != want
func AssertEqual(t *testing.T, got, want interface{}) {
	t.Helper()

	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
