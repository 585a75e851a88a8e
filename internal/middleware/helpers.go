package middleware

import (
	"net/http"

	"github.com/inkwell-cms/inkwell/internal/config"
	"github.com/inkwell-cms/inkwell/internal/utils"
)

// ClientIP extracts the client IP for the request using the configured
// trusted-proxy policy
func ClientIP(r *http.Request, cfg *config.Config) string {
	return utils.GetClientIPWithTrust(r, cfg.TrustProxyHeaders, cfg.TrustedProxyIPs)
}
