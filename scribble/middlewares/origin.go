package middlewares

import (
	"encoding/json"
	"net/http"

	"scribble/scribble/utils/types"
)

// AllowOrigins rejects browser requests from unknown origins with a 403.
// Requests without an Origin header (curl, server-to-server) pass through.
// Allowed origins get the CORS headers a browser caller needs.
func AllowOrigins(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				ok := false
				for _, o := range allowed {
					if o == origin {
						ok = true
						break
					}
				}
				if !ok {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusForbidden)
					json.NewEncoder(w).Encode(types.ErrorResponse{Error: "Origin not allowed"})
					return
				}
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
