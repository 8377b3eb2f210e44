package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/socialsuit/Backend-Socialsuit/internal/audit"
	"github.com/socialsuit/Backend-Socialsuit/internal/ratelimit"
	"github.com/socialsuit/Backend-Socialsuit/internal/sanitize"
)

func newTestSecurity(t *testing.T, maxRequests int) *Security {
	t.Helper()
	cfg := ratelimit.NewConfig(ratelimit.Rule{Window: time.Minute, MaxRequests: maxRequests}, nil)
	return &Security{
		Limiter:   ratelimit.NewLimiter(ratelimit.NewMemoryStore(), cfg, zap.NewNop()),
		Sanitizer: sanitize.New([]string{"/docs"}),
		Auditor:   audit.NewRecorder(zap.NewNop(), nil, nil),
		Log:       zap.NewNop(),
		SkipPaths: []string{"/health", "/metrics"},
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func TestSecurityAllowsWithinQuota(t *testing.T) {
	t.Parallel()

	handler := newTestSecurity(t, 5).Handler(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/api/v1/social-suit/content", nil)
		req.RemoteAddr = "203.0.113.5:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i+1, w.Code)
		}
	}
}

func TestSecurityDeniesOverQuota(t *testing.T) {
	t.Parallel()

	handler := newTestSecurity(t, 2).Handler(okHandler())

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/v1/social-suit/content", nil)
		req.RemoteAddr = "203.0.113.5:1234"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", last.Code)
	}

	retryAfter, err := strconv.Atoi(last.Header().Get("Retry-After"))
	if err != nil || retryAfter < 1 || retryAfter > 60 {
		t.Errorf("Expected Retry-After header in [1, 60], got %q", last.Header().Get("Retry-After"))
	}

	var body rateLimitResponse
	if err := json.NewDecoder(last.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode 429 body: %v", err)
	}
	if body.Success {
		t.Error("Expected success=false in deny body")
	}
	if body.RetryAfterSeconds < 1 {
		t.Errorf("Expected retry_after_seconds >= 1, got %d", body.RetryAfterSeconds)
	}
}

func TestSecurityRateCheckPrecedesSanitize(t *testing.T) {
	t.Parallel()

	// Quota of 1; the second request is both over quota and carries a
	// malformed JSON body. The rate-limit reason must win.
	handler := newTestSecurity(t, 1).Handler(okHandler())

	first := httptest.NewRequest("GET", "/api/v1/social-suit/content", nil)
	first.RemoteAddr = "203.0.113.5:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, first)
	if w.Code != http.StatusOK {
		t.Fatalf("First request: expected 200, got %d", w.Code)
	}

	second := httptest.NewRequest("POST", "/api/v1/social-suit/content", strings.NewReader(`{"broken": `))
	second.RemoteAddr = "203.0.113.5:1234"
	second.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, second)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429 (rate check first), got %d", w.Code)
	}
}

func TestSecurityRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	handler := newTestSecurity(t, 100).Handler(okHandler())

	req := httptest.NewRequest("POST", "/api/v1/social-suit/content", strings.NewReader(`{"broken": `))
	req.RemoteAddr = "203.0.113.5:1234"
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}

	var body sanitizationResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode 400 body: %v", err)
	}
	if body.Field != "body" {
		t.Errorf("Expected field 'body', got %q", body.Field)
	}
	if strings.Contains(body.Message, "broken") {
		t.Error("Rejection body must not echo the raw payload")
	}
}

func TestSecuritySetsResponseHeaders(t *testing.T) {
	t.Parallel()

	handler := newTestSecurity(t, 100).Handler(okHandler())

	req := httptest.NewRequest("GET", "/api/v1/social-suit/content", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Expected nosniff header, got %q", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("Expected frame deny header, got %q", got)
	}
	if got := w.Header().Get("Content-Security-Policy"); got == "" {
		t.Error("Expected CSP header to be set")
	}
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Error("HSTS must not be set without TLS")
	}
}

func TestSecuritySkipPathsBypassRateCheck(t *testing.T) {
	t.Parallel()

	handler := newTestSecurity(t, 1).Handler(okHandler())

	// Far more requests than the quota allows; skip paths never count.
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("GET", "/health", nil)
		req.RemoteAddr = "203.0.113.5:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Health request %d: expected 200, got %d", i+1, w.Code)
		}
	}
}

// countingReader tracks how much of the request body the server consumed.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func TestBodyCapPrecedesSanitizerBuffering(t *testing.T) {
	t.Parallel()

	// The size limit wraps the security stage, as in the server chain, so
	// the sanitizer can never buffer more than the cap into memory.
	const limit = 64
	s := newTestSecurity(t, 100)
	handler := Chain(okHandler(),
		Stage{Name: "max_request_size", Enabled: true, Wrap: MaxRequestSize(limit)},
		Stage{Name: "security", Enabled: true, Wrap: s.Handler},
	)

	oversized := `{"caption": "` + strings.Repeat("a", 4096) + `"}`

	t.Run("declared length", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("POST", "/api/v1/social-suit/content", strings.NewReader(oversized))
		req.RemoteAddr = "203.0.113.5:1234"
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("Expected 413 for over-limit declared length, got %d", w.Code)
		}
	})

	t.Run("chunked body", func(t *testing.T) {
		t.Parallel()

		// A plain io.Reader leaves ContentLength at -1, so only the body
		// cap can stop the read.
		body := &countingReader{r: strings.NewReader(oversized)}
		req := httptest.NewRequest("POST", "/api/v1/social-suit/content", body)
		req.RemoteAddr = "203.0.113.5:1234"
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest && w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("Expected over-limit chunked body to be rejected, got %d", w.Code)
		}
		if body.n > limit+1 {
			t.Errorf("Server buffered %d bytes, cap is %d", body.n, limit)
		}
	})
}

func TestSecuritySkipPathsGetResponseHeaders(t *testing.T) {
	t.Parallel()

	handler := newTestSecurity(t, 100).Handler(okHandler())

	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "203.0.113.5:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Expected nosniff header on skipped path, got %q", got)
	}
}

func TestSecurityFailsOpenWhenLimiterDisabled(t *testing.T) {
	t.Parallel()

	cfg := ratelimit.NewConfig(ratelimit.Rule{Window: time.Minute, MaxRequests: 1}, nil)
	s := &Security{
		Limiter:   ratelimit.NewLimiter(nil, cfg, zap.NewNop()),
		Sanitizer: sanitize.New(nil),
		Auditor:   audit.NewRecorder(zap.NewNop(), nil, nil),
		Log:       zap.NewNop(),
	}
	handler := s.Handler(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("GET", "/api/v1/social-suit/content", nil)
		req.RemoteAddr = "203.0.113.5:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Request %d: expected fail-open 200, got %d", i+1, w.Code)
		}
	}
}
