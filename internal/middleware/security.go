package middleware

import (
	"net/http"
)

// SecurityHeadersMiddleware adds security-related HTTP headers to all responses
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent clickjacking: don't allow this page to be embedded in iframes
		w.Header().Set("X-Frame-Options", "DENY")

		// Prevent MIME sniffing: browser must respect Content-Type header
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Strict policy: this surface serves JSON only
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Don't send referrer information to external sites
		w.Header().Set("Referrer-Policy", "same-origin")

		w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), interest-cohort=()")

		next.ServeHTTP(w, r)
	})
}
