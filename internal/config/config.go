package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultMaxLoginAttempts is used when MAX_LOGIN_ATTEMPTS is unset or unparsable
const DefaultMaxLoginAttempts = 5

// Config holds all application configuration
type Config struct {
	Port                   string
	AuditDBPath            string // SQLite database for the security audit trail
	SessionTTLHours        int    // Admin session lifetime
	CleanupIntervalMinutes int    // Security sweep interval
	HTTPSEnabled           bool   // Controls the Secure flag on session cookies
	TrustProxyHeaders      string // "auto", "true", "false"
	TrustedProxyIPs        string // Comma-separated IPs/CIDR ranges trusted to set proxy headers

	AdminUsername string

	// Mutable security settings, guarded by mu. The security core reads these
	// through the Get* accessors on every validation rather than caching them,
	// so runtime updates take effect immediately.
	mu                   sync.RWMutex
	adminPassword        string
	maxLoginAttempts     int
	enforceIPConsistency bool
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Port:                   getEnv("PORT", "8080"),
		AuditDBPath:            getEnv("AUDIT_DB_PATH", "./inkwell-audit.db"),
		SessionTTLHours:        getEnvInt("SESSION_TTL_HOURS", 24),
		CleanupIntervalMinutes: getEnvInt("CLEANUP_INTERVAL_MINUTES", 5),
		HTTPSEnabled:           getEnvBool("HTTPS_ENABLED", false),
		TrustProxyHeaders:      getEnv("TRUST_PROXY_HEADERS", "auto"),
		TrustedProxyIPs:        getEnv("TRUSTED_PROXY_IPS", "127.0.0.1,::1"),
		AdminUsername:          getEnv("ADMIN_USERNAME", ""),
		adminPassword:          getEnv("ADMIN_PASSWORD", ""),
		maxLoginAttempts:       getEnvInt("MAX_LOGIN_ATTEMPTS", DefaultMaxLoginAttempts),
		enforceIPConsistency:   getEnvBool("ENFORCE_IP_CONSISTENCY", false),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validate ensures configuration values are sensible
func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.AuditDBPath == "" {
		return fmt.Errorf("AUDIT_DB_PATH cannot be empty")
	}

	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive, got %d", c.SessionTTLHours)
	}

	if c.CleanupIntervalMinutes <= 0 {
		return fmt.Errorf("CLEANUP_INTERVAL_MINUTES must be positive, got %d", c.CleanupIntervalMinutes)
	}

	if c.maxLoginAttempts <= 0 {
		return fmt.Errorf("MAX_LOGIN_ATTEMPTS must be positive, got %d", c.maxLoginAttempts)
	}

	switch c.TrustProxyHeaders {
	case "auto", "true", "false":
	default:
		return fmt.Errorf("TRUST_PROXY_HEADERS must be auto, true, or false, got %q", c.TrustProxyHeaders)
	}

	return nil
}

// GetAdminUsername returns the configured admin username
func (c *Config) GetAdminUsername() string {
	return c.AdminUsername
}

// GetAdminPassword returns the current admin password
func (c *Config) GetAdminPassword() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.adminPassword
}

// SetAdminPassword updates the admin password at runtime
func (c *Config) SetAdminPassword(password string) error {
	if password == "" {
		return fmt.Errorf("admin password cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.adminPassword = password
	return nil
}

// GetMaxLoginAttempts returns the failed-attempt threshold before lockout
func (c *Config) GetMaxLoginAttempts() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxLoginAttempts
}

// SetMaxLoginAttempts updates the lockout threshold at runtime
func (c *Config) SetMaxLoginAttempts(n int) error {
	if n <= 0 {
		return fmt.Errorf("max login attempts must be positive, got %d", n)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxLoginAttempts = n
	return nil
}

// GetEnforceIPConsistency reports whether sessions are pinned to their creation IP
func (c *Config) GetEnforceIPConsistency() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enforceIPConsistency
}

// SetEnforceIPConsistency toggles session IP pinning at runtime
func (c *Config) SetEnforceIPConsistency(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enforceIPConsistency = enabled
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
// Accepts "true"/"false", "1"/"0", "yes"/"no" (case-insensitive)
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	switch value {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}
