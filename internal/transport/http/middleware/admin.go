package middleware

import (
	"crypto/subtle"
	"net/http"

	"snaps_engagement/internal/httputil"
)

const headerAdminToken = "X-Admin-Token"

// AdminMiddleware admits requests carrying the shared operator token.
func AdminMiddleware(adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(headerAdminToken)
			if adminToken == "" || subtle.ConstantTimeCompare([]byte(got), []byte(adminToken)) != 1 {
				httputil.WriteUnauthorized(w, "Admin token required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
