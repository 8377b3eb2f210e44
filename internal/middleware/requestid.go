package middleware

import (
	"net/http"

	"github.com/socialsuit/Backend-Socialsuit/internal/request"
)

// RequestIDHeader is the response header echoing the generated request ID.
const RequestIDHeader = "X-Request-ID"

// RequestID stamps every request with a generated ID, available to all inner
// stages via the context and echoed to the client.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := request.WithRequestID(r.Context())
		w.Header().Set(RequestIDHeader, request.RequestID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
