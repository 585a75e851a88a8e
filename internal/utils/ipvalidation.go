package utils

import (
	"net"
	"net/http"
	"strings"
)

// IsTrustedProxyIP checks if the given IP address is in the trusted proxy list.
// trustedProxies is a comma-separated string of IPs and CIDR ranges.
// Examples: "127.0.0.1,192.168.1.0/24" or "10.0.0.0/8"
func IsTrustedProxyIP(ipStr string, trustedProxies string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}

	proxies := strings.Split(trustedProxies, ",")
	for _, proxy := range proxies {
		proxy = strings.TrimSpace(proxy)
		if proxy == "" {
			continue
		}

		// CIDR range or single IP
		if strings.Contains(proxy, "/") {
			if ipInCIDR(ip, proxy) {
				return true
			}
		} else {
			proxyIP := net.ParseIP(proxy)
			if proxyIP != nil && ip.Equal(proxyIP) {
				return true
			}
		}
	}

	return false
}

// ipInCIDR checks if an IP is within a CIDR range
func ipInCIDR(ip net.IP, cidr string) bool {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return false
	}
	return ipNet.Contains(ip)
}

// ExtractIP extracts the IP address from a "host:port" string.
// If no port is present, returns the input as-is.
func ExtractIP(addr string) string {
	// IPv6 with port: [::1]:8080
	if strings.HasPrefix(addr, "[") {
		if idx := strings.LastIndex(addr, "]:"); idx != -1 {
			return addr[1:idx]
		}
		return strings.Trim(addr, "[]")
	}

	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		// Multiple colons without brackets = IPv6 without port
		if strings.Count(addr, ":") > 1 {
			return addr
		}
		return addr[:idx]
	}

	return addr
}

// GetClientIPWithTrust extracts the client IP from the request with trusted
// proxy validation. A spoofed X-Forwarded-For from an untrusted peer must not
// let an attacker dodge brute-force tracking or IP-pinned sessions.
// trustProxyHeaders: "auto", "true", "false"
// trustedProxyIPs: comma-separated list of trusted proxy IPs/CIDR ranges
func GetClientIPWithTrust(r *http.Request, trustProxyHeaders string, trustedProxyIPs string) string {
	remoteIP := ExtractIP(r.RemoteAddr)

	shouldTrust := false
	switch trustProxyHeaders {
	case "true":
		shouldTrust = true
	case "false":
		shouldTrust = false
	default:
		// "auto": trust only if the request comes from a trusted proxy IP
		shouldTrust = IsTrustedProxyIP(remoteIP, trustedProxyIPs)
	}

	if !shouldTrust {
		return remoteIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First IP in the chain is the original client
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return remoteIP
}
