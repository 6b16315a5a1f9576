package middleware

import (
	"net/http"
	"slices"
	"strings"
)

var (
	corsAllowHeaders  = strings.Join([]string{"Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms", RequestIDHeader}, ", ")
	corsExposeHeaders = strings.Join([]string{"Connect-Protocol-Version", RequestIDHeader}, ", ")
)

// CORS lets browsers on the given origins call the Connect endpoints. A "*"
// entry allows any origin. Requests from other origins pass through without
// CORS headers, so the browser blocks them.
func CORS(origins []string) func(http.Handler) http.Handler {
	wildcard := slices.Contains(origins, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := origin != "" && (wildcard || slices.Contains(origins, origin))
			if allowed {
				h := w.Header()
				if wildcard {
					h.Set("Access-Control-Allow-Origin", "*")
				} else {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
				h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if allowed {
					w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
					w.Header().Set("Access-Control-Max-Age", "7200")
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
