package config

import (
	"testing"
)

// clearEnv unsets all configuration variables for the duration of a test
func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"PORT", "AUDIT_DB_PATH", "SESSION_TTL_HOURS", "CLEANUP_INTERVAL_MINUTES",
		"HTTPS_ENABLED", "TRUST_PROXY_HEADERS", "TRUSTED_PROXY_IPS",
		"ADMIN_USERNAME", "ADMIN_PASSWORD", "MAX_LOGIN_ATTEMPTS",
		"ENFORCE_IP_CONSISTENCY",
	}
	for _, v := range vars {
		t.Setenv(v, "")
	}
}

// TestLoad_Defaults tests the default configuration
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.SessionTTLHours != 24 {
		t.Errorf("SessionTTLHours = %d, want 24", cfg.SessionTTLHours)
	}
	if cfg.CleanupIntervalMinutes != 5 {
		t.Errorf("CleanupIntervalMinutes = %d, want 5", cfg.CleanupIntervalMinutes)
	}
	if got := cfg.GetMaxLoginAttempts(); got != DefaultMaxLoginAttempts {
		t.Errorf("GetMaxLoginAttempts = %d, want %d", got, DefaultMaxLoginAttempts)
	}
	if cfg.GetEnforceIPConsistency() {
		t.Error("EnforceIPConsistency = true by default, want false")
	}
	if cfg.GetAdminUsername() != "" || cfg.GetAdminPassword() != "" {
		t.Error("admin credentials set by default, want empty")
	}
}

// TestLoad_EnvOverrides tests environment variable overrides
func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", "securepassword123")
	t.Setenv("MAX_LOGIN_ATTEMPTS", "3")
	t.Setenv("ENFORCE_IP_CONSISTENCY", "true")
	t.Setenv("SESSION_TTL_HOURS", "12")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want 9000", cfg.Port)
	}
	if cfg.GetAdminUsername() != "admin" {
		t.Errorf("AdminUsername = %q, want admin", cfg.GetAdminUsername())
	}
	if cfg.GetAdminPassword() != "securepassword123" {
		t.Errorf("AdminPassword = %q, want securepassword123", cfg.GetAdminPassword())
	}
	if got := cfg.GetMaxLoginAttempts(); got != 3 {
		t.Errorf("GetMaxLoginAttempts = %d, want 3", got)
	}
	if !cfg.GetEnforceIPConsistency() {
		t.Error("EnforceIPConsistency = false, want true")
	}
	if cfg.SessionTTLHours != 12 {
		t.Errorf("SessionTTLHours = %d, want 12", cfg.SessionTTLHours)
	}
}

// TestLoad_UnparsableMaxAttempts tests the fallback to the default threshold
func TestLoad_UnparsableMaxAttempts(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_LOGIN_ATTEMPTS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cfg.GetMaxLoginAttempts(); got != DefaultMaxLoginAttempts {
		t.Errorf("GetMaxLoginAttempts = %d, want default %d on unparsable value", got, DefaultMaxLoginAttempts)
	}
}

// TestLoad_Invalid tests validation failures
func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero session ttl", "SESSION_TTL_HOURS", "0"},
		{"negative cleanup interval", "CLEANUP_INTERVAL_MINUTES", "-1"},
		{"zero max attempts", "MAX_LOGIN_ATTEMPTS", "0"},
		{"bad proxy trust mode", "TRUST_PROXY_HEADERS", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load succeeded with %s=%s, want error", tt.key, tt.value)
			}
		})
	}
}

// TestMutableSettings tests the runtime setters and their validation
func TestMutableSettings(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := cfg.SetAdminPassword("newpassword"); err != nil {
		t.Fatalf("SetAdminPassword failed: %v", err)
	}
	if got := cfg.GetAdminPassword(); got != "newpassword" {
		t.Errorf("GetAdminPassword = %q, want newpassword", got)
	}
	if err := cfg.SetAdminPassword(""); err == nil {
		t.Error("SetAdminPassword accepted empty password")
	}

	if err := cfg.SetMaxLoginAttempts(10); err != nil {
		t.Fatalf("SetMaxLoginAttempts failed: %v", err)
	}
	if got := cfg.GetMaxLoginAttempts(); got != 10 {
		t.Errorf("GetMaxLoginAttempts = %d, want 10", got)
	}
	if err := cfg.SetMaxLoginAttempts(0); err == nil {
		t.Error("SetMaxLoginAttempts accepted zero")
	}

	cfg.SetEnforceIPConsistency(true)
	if !cfg.GetEnforceIPConsistency() {
		t.Error("GetEnforceIPConsistency = false after enabling")
	}
}
