package middleware

import (
	"net/http"
)

// NoStore returns a middleware that forbids caching of responses. Token and
// account payloads must never land in shared or browser caches.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
