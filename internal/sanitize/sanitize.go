// Package sanitize neutralizes injection payloads in inbound requests before
// they reach feature handlers. It rewrites structured data it can parse and
// passes everything else through untouched rather than risk corrupting opaque
// payloads.
package sanitize

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// Patterns associated with script and command injection. Matches are removed,
// not escaped, so scrubbing a clean string is the identity function.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?i)<\s*/?\s*(script|iframe|object|embed)[^>]*>`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)\bon[a-z]+\s*=`),
	regexp.MustCompile(`(?i)\bunion\s+select\b`),
	regexp.MustCompile(`(?i);\s*(drop|delete|truncate)\s+(table|from)\b`),
	regexp.MustCompile(`(?i)\$where\b`),
}

// maxScrubPasses bounds the fixpoint loop. Every pass only removes bytes, so
// the loop terminates regardless; the bound guards pathological inputs.
const maxScrubPasses = 10

// headers that are never rewritten: credentials and transport metadata.
var skipHeaders = map[string]struct{}{
	"Authorization":  {},
	"Cookie":         {},
	"Content-Type":   {},
	"Content-Length": {},
	"Host":           {},
}

// Rejection describes input the sanitizer refused to process. It names the
// offending part but never echoes the raw payload.
type Rejection struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Scrub removes injection patterns and control characters from s. Removal is
// applied to a fixpoint so the result contains no pattern occurrences, which
// makes Scrub idempotent: Scrub(Scrub(s)) == Scrub(s).
func Scrub(s string) string {
	s = stripControlBytes(s)
	for i := 0; i < maxScrubPasses; i++ {
		prev := s
		for _, p := range injectionPatterns {
			s = p.ReplaceAllString(s, "")
		}
		if s == prev {
			break
		}
	}
	return s
}

func stripControlBytes(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 || (r < 0x20 && r != '\t' && r != '\n' && r != '\r') {
			return -1
		}
		return r
	}, s)
}

// Sanitizer applies Scrub to request headers, query parameters and JSON body
// fields, skipping configured exempt paths.
type Sanitizer struct {
	exemptPaths []string
}

// New creates a Sanitizer. exemptPaths are path prefixes (documentation and
// schema endpoints, typically) that bypass sanitization entirely.
func New(exemptPaths []string) *Sanitizer {
	return &Sanitizer{exemptPaths: exemptPaths}
}

// Exempt reports whether the path bypasses sanitization.
func (s *Sanitizer) Exempt(path string) bool {
	for _, prefix := range s.exemptPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Request sanitizes r in place and returns a rejection for input it cannot
// safely process. Exempt paths pass through untouched, as do request bodies
// with content types the sanitizer does not understand. Request never panics
// on malformed input; at worst it rejects.
func (s *Sanitizer) Request(r *http.Request) *Rejection {
	if s.Exempt(r.URL.Path) {
		return nil
	}

	s.scrubHeaders(r)
	s.scrubQuery(r)
	return s.scrubBody(r)
}

func (s *Sanitizer) scrubHeaders(r *http.Request) {
	for name, values := range r.Header {
		if _, skip := skipHeaders[name]; skip {
			continue
		}
		for i, v := range values {
			if cleaned := Scrub(v); cleaned != v {
				values[i] = cleaned
			}
		}
	}
}

func (s *Sanitizer) scrubQuery(r *http.Request) {
	if r.URL.RawQuery == "" {
		return
	}
	query := r.URL.Query()
	changed := false
	for key, values := range query {
		cleanKey := Scrub(key)
		for i, v := range values {
			if cleaned := Scrub(v); cleaned != v {
				values[i] = cleaned
				changed = true
			}
		}
		if cleanKey != key {
			delete(query, key)
			query[cleanKey] = values
			changed = true
		}
	}
	// Only re-encode when something changed: Encode reorders parameters, and
	// clean requests must pass through byte-identical.
	if changed {
		r.URL.RawQuery = query.Encode()
	}
}

func (s *Sanitizer) scrubBody(r *http.Request) *Rejection {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	contentType := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "application/json") {
		// Unrecognized or binary payload: pass through unchanged.
		return nil
	}

	raw, err := io.ReadAll(r.Body)
	closeErr := r.Body.Close()
	if err != nil || closeErr != nil {
		return &Rejection{Field: "body", Reason: "request body could not be read"}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		r.Body = io.NopCloser(bytes.NewReader(raw))
		return nil
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return &Rejection{Field: "body", Reason: "request body is not valid JSON"}
	}

	cleaned, changed := scrubValue(payload)
	if !changed {
		r.Body = io.NopCloser(bytes.NewReader(raw))
		return nil
	}

	encoded, err := json.Marshal(cleaned)
	if err != nil {
		return &Rejection{Field: "body", Reason: "request body could not be sanitized"}
	}
	r.Body = io.NopCloser(bytes.NewReader(encoded))
	r.ContentLength = int64(len(encoded))
	return nil
}

// scrubValue walks decoded JSON, scrubbing every string and object key. Keys
// beginning with an operator prefix ($) are defanged to block document-store
// operator injection.
func scrubValue(v any) (any, bool) {
	switch val := v.(type) {
	case string:
		cleaned := Scrub(val)
		return cleaned, cleaned != val
	case map[string]any:
		changed := false
		out := make(map[string]any, len(val))
		for k, inner := range val {
			cleanKey := Scrub(strings.TrimLeft(k, "$"))
			cleanInner, innerChanged := scrubValue(inner)
			if cleanKey != k || innerChanged {
				changed = true
			}
			out[cleanKey] = cleanInner
		}
		return out, changed
	case []any:
		changed := false
		out := make([]any, len(val))
		for i, inner := range val {
			cleanInner, innerChanged := scrubValue(inner)
			if innerChanged {
				changed = true
			}
			out[i] = cleanInner
		}
		return out, changed
	default:
		return v, false
	}
}
