package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/inkwell-cms/inkwell/internal/models"
)

// RecoveryMiddleware converts handler panics into a JSON 500 so one bad
// request cannot take the server down
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			slog.Error("panic while serving request",
				"panic", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			writeInternalError(w)
		}()

		next.ServeHTTP(w, r)
	})
}

// writeInternalError sends the generic 500 envelope. The panic value never
// reaches the response body.
func writeInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)

	err := json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: "Internal server error",
		Code:  "INTERNAL_ERROR",
	})
	if err != nil {
		slog.Error("failed to encode panic response", "error", err)
	}
}
