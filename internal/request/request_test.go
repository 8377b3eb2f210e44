package request

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{
			name:     "X-Forwarded-For single",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.5"},
			remote:   "10.0.0.1:4321",
			expected: "203.0.113.5",
		},
		{
			name:     "X-Forwarded-For chain uses first",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"},
			remote:   "10.0.0.1:4321",
			expected: "203.0.113.5",
		},
		{
			name:     "X-Real-IP fallback",
			headers:  map[string]string{"X-Real-IP": " 198.51.100.7 "},
			remote:   "10.0.0.1:4321",
			expected: "198.51.100.7",
		},
		{
			name:     "RemoteAddr strips port",
			remote:   "192.0.2.9:9999",
			expected: "192.0.2.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.expected {
				t.Errorf("ClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIdentityPrefersAPIKey(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.9:9999"
	req.Header.Set(APIKeyHeader, "secret-key-123")

	id := Identity(req)
	if !strings.HasPrefix(id, "key:") {
		t.Fatalf("Expected key-based identity, got %q", id)
	}
	if strings.Contains(id, "secret-key-123") {
		t.Error("Identity must not contain the raw API key")
	}

	// Same key yields the same identity.
	if got := Identity(req); got != id {
		t.Errorf("Identity is not stable: %q vs %q", got, id)
	}
}

func TestIdentityFallsBackToIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.9:9999"

	if got := Identity(req); got != "ip:192.0.2.9" {
		t.Errorf("Identity() = %q, want ip:192.0.2.9", got)
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := RequestID(ctx); got != "" {
		t.Errorf("Expected empty request ID, got %q", got)
	}

	ctx = WithRequestID(ctx)
	if got := RequestID(ctx); got == "" {
		t.Error("Expected request ID to be set")
	}
}
