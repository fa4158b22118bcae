// scribble/middlewares/ratelimit.go
package middlewares

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"scribble/scribble/services/ratelimit"
	"scribble/scribble/utils/types"
)

// RateLimit gates requests through a per-IP sliding window. Refusals get a
// 429 with a Retry-After header in seconds.
func RateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.Allow(ip) {
				w.Header().Set("Retry-After", strconv.Itoa(limiter.RetryAfter(ip)))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(types.ErrorResponse{Error: "Too many requests, give it a moment"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP trusts RemoteAddr, which chi's RealIP middleware has already
// rewritten from X-Forwarded-For / X-Real-IP when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
