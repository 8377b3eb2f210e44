package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/socialsuit/Backend-Socialsuit/internal/audit"
	"github.com/socialsuit/Backend-Socialsuit/internal/ratelimit"
	"github.com/socialsuit/Backend-Socialsuit/internal/request"
	"github.com/socialsuit/Backend-Socialsuit/internal/sanitize"
)

// SecurityMetrics counts security decisions. Implemented by the metrics
// package; nil disables counting.
type SecurityMetrics interface {
	IncRateLimitDenied()
	IncSanitizationRejected()
}

// Security orchestrates the security pipeline for each request:
//
//	RECEIVED -> RATE_CHECK -> {DENIED | SANITIZE} -> {REJECTED | FORWARDED} -> RESPONSE
//
// A deny short-circuits with 429 plus a retry-after hint; a sanitization
// reject short-circuits with 400. Forwarded requests get security response
// headers attached on the way back.
type Security struct {
	Limiter    *ratelimit.Limiter
	Sanitizer  *sanitize.Sanitizer
	Auditor    *audit.Recorder
	Metrics    SecurityMetrics
	Log        *zap.Logger
	EnableHSTS bool

	// SkipPaths are excluded from rate checking (liveness probes, metrics).
	// Sanitization exemptions are the sanitizer's own concern.
	SkipPaths []string
}

// rateLimitResponse is the structured 429 body.
type rateLimitResponse struct {
	Success           bool   `json:"success"`
	Error             string `json:"error"`
	Message           string `json:"message"`
	RetryAfterSeconds int64  `json:"retry_after_seconds"`
}

// sanitizationResponse is the structured 400 body. It names the invalid
// field but never echoes the raw payload.
type sanitizationResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Handler wraps next with the security pipeline.
func (s *Security) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.skip(r.URL.Path) {
			identity := request.Identity(r)

			decision := s.Limiter.Check(r.Context(), identity, r.URL.Path)
			if !decision.Allowed {
				s.deny(w, r, identity, decision)
				return
			}

			if rejection := s.Sanitizer.Request(r); rejection != nil {
				s.reject(w, r, identity, rejection)
				return
			}
		}

		setSecurityHeaders(w, s.EnableHSTS && r.TLS != nil)
		next.ServeHTTP(w, r)
	})
}

func (s *Security) skip(path string) bool {
	for _, p := range s.SkipPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func (s *Security) deny(w http.ResponseWriter, r *http.Request, identity string, d ratelimit.Decision) {
	if s.Metrics != nil {
		s.Metrics.IncRateLimitDenied()
	}

	e := audit.NewEvent(audit.KindRateLimitDeny, identity, r.Method, r.URL.Path, d.Reason)
	retryAfter := int64(d.RetryAfter / time.Second)
	if retryAfter < 1 {
		retryAfter = 1
	}
	e.RetryAfter = retryAfter
	s.Auditor.Record(e)

	setSecurityHeaders(w, s.EnableHSTS && r.TLS != nil)
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	resp := rateLimitResponse{
		Success:           false,
		Error:             "Too Many Requests",
		Message:           "Request quota exceeded; retry after the indicated delay",
		RetryAfterSeconds: retryAfter,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.Log.Error("failed_to_encode_rate_limit_response", zap.Error(err))
	}
}

func (s *Security) reject(w http.ResponseWriter, r *http.Request, identity string, rej *sanitize.Rejection) {
	if s.Metrics != nil {
		s.Metrics.IncSanitizationRejected()
	}

	s.Auditor.Record(audit.NewEvent(audit.KindSanitizationReject, identity, r.Method, r.URL.Path, rej.Reason))

	setSecurityHeaders(w, s.EnableHSTS && r.TLS != nil)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)

	resp := sanitizationResponse{
		Success: false,
		Error:   "Bad Request",
		Field:   rej.Field,
		Message: rej.Reason,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.Log.Error("failed_to_encode_sanitization_response", zap.Error(err))
	}
}
