package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkwell-cms/inkwell/internal/audit"
	"github.com/inkwell-cms/inkwell/internal/config"
	"github.com/inkwell-cms/inkwell/internal/handlers"
	"github.com/inkwell-cms/inkwell/internal/metrics"
	"github.com/inkwell-cms/inkwell/internal/middleware"
	"github.com/inkwell-cms/inkwell/internal/security"
)

// securityStats adapts the coordinator to the metrics scrape collector
type securityStats struct {
	svc *security.Service
}

func (s securityStats) ActiveSessionCount() int { return s.svc.Stats().ActiveSessions }
func (s securityStats) BlockedKeyCount() int    { return s.svc.Stats().BlockedKeys }
func (s securityStats) FailedAttemptCount() int { return s.svc.Stats().TotalFailedAttempts }

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	adminEnabled := cfg.AdminUsername != "" && cfg.GetAdminPassword() != ""

	slog.Info("starting inkwell admin backend",
		"port", cfg.Port,
		"admin_enabled", adminEnabled,
		"session_ttl_hours", cfg.SessionTTLHours,
		"max_login_attempts", cfg.GetMaxLoginAttempts(),
		"enforce_ip_consistency", cfg.GetEnforceIPConsistency(),
	)

	if !adminEnabled {
		slog.Warn("admin credentials not configured - all login attempts will fail with CONFIG_ERROR")
	}

	// Open the security audit trail
	trail, err := audit.Open(cfg.AuditDBPath)
	if err != nil {
		slog.Error("failed to open audit database", "error", err)
		os.Exit(1)
	}
	defer trail.Close()

	slog.Info("audit database ready", "path", cfg.AuditDBPath)

	// Create the security coordinator
	svc := security.NewService(cfg, security.Options{
		SessionTTL:      time.Duration(cfg.SessionTTLHours) * time.Hour,
		CleanupInterval: time.Duration(cfg.CleanupIntervalMinutes) * time.Minute,
		Recorder:        trail,
	})
	defer svc.Destroy()

	// Register the security-state scrape collector
	prometheus.MustRegister(metrics.NewSecurityStateCollector(securityStats{svc: svc}))

	startTime := time.Now()

	// Setup HTTP router
	mux := http.NewServeMux()
	adminAuth := middleware.AdminAuth(svc, cfg)

	mux.HandleFunc("/health", handlers.HealthHandler(startTime))

	mux.HandleFunc("/admin/api/login", handlers.AdminLoginHandler(svc, cfg))

	mux.HandleFunc("/admin/api/logout", func(w http.ResponseWriter, r *http.Request) {
		adminAuth(http.HandlerFunc(handlers.AdminLogoutHandler(svc, cfg))).ServeHTTP(w, r)
	})

	mux.HandleFunc("/admin/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		adminAuth(http.HandlerFunc(handlers.AdminSessionsHandler(svc))).ServeHTTP(w, r)
	})

	mux.HandleFunc("/admin/api/sessions/invalidate", func(w http.ResponseWriter, r *http.Request) {
		adminAuth(http.HandlerFunc(handlers.AdminInvalidateSessionHandler(svc, cfg))).ServeHTTP(w, r)
	})

	mux.HandleFunc("/admin/api/security/stats", func(w http.ResponseWriter, r *http.Request) {
		adminAuth(http.HandlerFunc(handlers.AdminSecurityStatsHandler(svc))).ServeHTTP(w, r)
	})

	mux.HandleFunc("/admin/api/security/events", func(w http.ResponseWriter, r *http.Request) {
		adminAuth(http.HandlerFunc(handlers.AdminSecurityEventsHandler(trail))).ServeHTTP(w, r)
	})

	// The session cookie is scoped to /admin, so browsers never send it here.
	// /metrics is for scrapers that attach the admin_session cookie header
	// themselves in their scrape config.
	mux.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adminAuth(promhttp.Handler()).ServeHTTP(w, r)
	}))

	// Middleware chain: recovery -> security headers -> logging -> metrics
	var handler http.Handler = mux
	handler = metrics.Middleware(handler)
	handler = middleware.LoggingMiddleware(cfg)(handler)
	handler = middleware.SecurityHeadersMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine so shutdown signals can be handled
	go func() {
		slog.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}

	svc.Destroy()
	slog.Info("shutdown complete")
}
