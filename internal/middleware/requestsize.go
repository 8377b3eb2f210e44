package middleware

import "net/http"

// DefaultMaxRequestSize is the default maximum request body size (10MB;
// media uploads pass through this service).
const DefaultMaxRequestSize int64 = 10 << 20

// MaxRequestSize limits request body sizes to prevent resource exhaustion.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
