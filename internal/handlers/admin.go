package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/inkwell-cms/inkwell/internal/audit"
	"github.com/inkwell-cms/inkwell/internal/config"
	"github.com/inkwell-cms/inkwell/internal/metrics"
	"github.com/inkwell-cms/inkwell/internal/middleware"
	"github.com/inkwell-cms/inkwell/internal/models"
	"github.com/inkwell-cms/inkwell/internal/security"
)

// AdminLoginHandler handles admin login. Accepts JSON or form credentials and
// issues a session cookie on success.
func AdminLoginHandler(svc *security.Service, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
			return
		}

		username, password, ok := parseCredentials(r)
		if !ok {
			sendError(w, "Bad request", "BAD_REQUEST", http.StatusBadRequest)
			return
		}

		clientIP := middleware.ClientIP(r, cfg)
		result := svc.ValidateAdminCredentials(username, password, clientIP)

		if !result.Valid {
			switch result.Code {
			case security.CodeConfigError:
				metrics.LoginAttemptsTotal.WithLabelValues("config_error").Inc()
				sendError(w, result.Error, result.Code, http.StatusInternalServerError)
			case security.CodeAccountLocked:
				metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
				metrics.LockoutsTotal.Inc()
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				sendJSON(w, http.StatusTooManyRequests, models.ErrorResponse{
					Error:      result.Error,
					Code:       result.Code,
					Blocked:    true,
					RetryAfter: result.RetryAfter,
				})
			default:
				metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
				sendError(w, result.Error, result.Code, http.StatusUnauthorized)
			}
			return
		}

		metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
		metrics.SessionsIssuedTotal.Inc()

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    result.SessionID,
			Path:     "/admin",
			HttpOnly: true,
			Secure:   cfg.HTTPSEnabled,
			SameSite: http.SameSiteStrictMode,
			Expires:  result.ExpiresAt,
		})

		sendJSON(w, http.StatusOK, result)
	}
}

// parseCredentials reads username/password from a JSON body or form fields.
// JSON bodies with non-string credential fields are rejected outright.
func parseCredentials(r *http.Request) (username, password string, ok bool) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		var req models.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("failed to decode login body", "error", err)
			return "", "", false
		}
		return req.Username, req.Password, true
	}

	if err := r.ParseForm(); err != nil {
		slog.Warn("failed to parse login form", "error", err)
		return "", "", false
	}
	return r.FormValue("username"), r.FormValue("password"), true
}

// AdminLogoutHandler invalidates the presented session and clears the cookie
func AdminLogoutHandler(svc *security.Service, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
			return
		}

		if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
			svc.InvalidateSession(cookie.Value)
			slog.Info("admin logout", "ip", middleware.ClientIP(r, cfg))
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    "",
			Path:     "/admin",
			HttpOnly: true,
			MaxAge:   -1, // Delete cookie
		})

		sendJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// AdminSessionsHandler returns the masked active-session list
func AdminSessionsHandler(svc *security.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
			return
		}

		sessions := svc.ActiveSessions()
		sendJSON(w, http.StatusOK, map[string]any{
			"sessions": sessions,
			"count":    len(sessions),
		})
	}
}

// AdminSecurityStatsHandler returns aggregate security-state counts
func AdminSecurityStatsHandler(svc *security.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
			return
		}

		sendJSON(w, http.StatusOK, svc.Stats())
	}
}

// AdminSecurityEventsHandler returns recent audit-trail events
func AdminSecurityEventsHandler(trail *audit.Trail) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		events, err := trail.RecentEvents(limit)
		if err != nil {
			slog.Error("failed to load security events", "error", err)
			sendError(w, "Internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
			return
		}

		if events == nil {
			events = []audit.Event{}
		}
		sendJSON(w, http.StatusOK, map[string]any{"events": events})
	}
}

// AdminInvalidateSessionHandler force-invalidates a session by its full id.
// Accepts the raw id only; masked ids from the listing cannot be replayed here.
func AdminInvalidateSessionHandler(svc *security.Service, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
			return
		}

		if err := r.ParseForm(); err != nil {
			sendError(w, "Bad request", "BAD_REQUEST", http.StatusBadRequest)
			return
		}

		sessionID := r.FormValue("session_id")
		if sessionID == "" {
			sendError(w, "Missing session_id parameter", "BAD_REQUEST", http.StatusBadRequest)
			return
		}

		svc.InvalidateSession(sessionID)
		slog.Info("admin invalidated session", "admin_ip", middleware.ClientIP(r, cfg))

		sendJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
