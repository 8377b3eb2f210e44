package middleware

import (
	"net/http"
)

// ContentType requires a Content-Type header on requests that carry bodies.
// The sanitizer downstream decides per type whether it can rewrite the
// payload, so no type allow-list is enforced here.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
			if r.ContentLength > 0 && r.Header.Get("Content-Type") == "" {
				http.Error(w, "Content-Type header is required", http.StatusBadRequest)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
