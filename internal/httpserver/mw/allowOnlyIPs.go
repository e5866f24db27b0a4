package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/bookaimark/internal/logger"
	"github.com/MrSnakeDoc/bookaimark/internal/utils"
)

// AllowOnlyCIDRS allows only specific IPs/CIDRs. An empty list does not filter.
// trustProxy should be true when running behind a trusted reverse proxy/tunnel (e.g., cloudflared).
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Warn("rejected client outside allowed CIDRs",
					logger.String("ip", ip),
					logger.String("path", r.URL.Path),
					logger.Bool("trust_proxy", trustProxy))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
