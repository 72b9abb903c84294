package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// TrustedCIDR only lets through clients inside cidr. The client address is
// X-Real-IP when present, the connection peer otherwise. An empty cidr
// allows everyone.
func TrustedCIDR(cidr string) (func(http.Handler) http.Handler, error) {
	var ipnet *net.IPNet
	if cidr != "" {
		_, n, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			return nil, fmt.Errorf("invalid trusted subnet: %w", err)
		}
		ipnet = n
	}

	return func(next http.Handler) http.Handler {
		if ipnet == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := net.ParseIP(clientIP(r))
			if ip == nil || !ipnet.Contains(ip) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

func clientIP(r *http.Request) string {
	if xrip := strings.TrimSpace(r.Header.Get("X-Real-IP")); xrip != "" {
		return xrip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
