package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/inkwell-cms/inkwell/internal/config"
	"github.com/inkwell-cms/inkwell/internal/metrics"
	"github.com/inkwell-cms/inkwell/internal/security"
)

// SessionCookieName is the cookie carrying the admin session id
const SessionCookieName = "admin_session"

type contextKey string

// sessionContextKey stores the validated session on the request context
const sessionContextKey contextKey = "admin_session"

// AdminAuth middleware checks for a valid admin session and rejects the
// request with 401 otherwise. The validated session is placed on the request
// context for downstream handlers.
func AdminAuth(svc *security.Service, cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				slog.Warn("admin authentication failed - no session cookie",
					"path", r.URL.Path,
					"ip", ClientIP(r, cfg),
				)
				metrics.SessionValidationsTotal.WithLabelValues("rejected").Inc()
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			session := svc.ValidateSession(cookie.Value, ClientIP(r, cfg), r.UserAgent())
			if session == nil {
				slog.Warn("admin authentication failed - invalid session token",
					"path", r.URL.Path,
					"ip", ClientIP(r, cfg),
				)
				metrics.SessionValidationsTotal.WithLabelValues("rejected").Inc()
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			metrics.SessionValidationsTotal.WithLabelValues("valid").Inc()
			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the validated session stored by AdminAuth,
// or nil when the request did not pass through it
func SessionFromContext(ctx context.Context) *security.Session {
	session, _ := ctx.Value(sessionContextKey).(*security.Session)
	return session
}
