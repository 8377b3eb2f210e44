package request

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const requestIDContextKey contextKey = "request_id"

// APIKeyHeader is the header carrying a client API key, when present.
const APIKeyHeader = "X-API-Key"

// ClientIP extracts the client IP from the request, respecting
// X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Identity derives the rate-limit identity for a request: a hashed API key
// when one is presented, otherwise the client IP. Raw API keys never appear
// in store keys or logs.
func Identity(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
		sum := sha256.Sum256([]byte(key))
		return "key:" + hex.EncodeToString(sum[:])[:16]
	}
	return "ip:" + ClientIP(r)
}

// WithRequestID returns a context carrying a freshly generated request ID.
func WithRequestID(ctx context.Context) context.Context {
	return context.WithValue(ctx, requestIDContextKey, uuid.NewString())
}

// RequestID returns the request ID from the context, or empty if absent.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
