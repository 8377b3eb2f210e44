package sanitize

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestScrub(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "clean text unchanged",
			input:    "hello world, post scheduled for 9am",
			expected: "hello world, post scheduled for 9am",
		},
		{
			name:     "script tag removed",
			input:    `before<script>alert(1)</script>after`,
			expected: "beforeafter",
		},
		{
			name:     "javascript url removed",
			input:    `click javascript:alert(1) here`,
			expected: "click alert(1) here",
		},
		{
			name:     "event handler removed",
			input:    `<img src=x onerror=alert(1)>`,
			expected: `<img src=x alert(1)>`,
		},
		{
			name:     "union select removed",
			input:    `name' UNION SELECT password FROM users`,
			expected: `name'  password FROM users`,
		},
		{
			name:     "null bytes stripped",
			input:    "ab\x00cd\x01ef",
			expected: "abcdef",
		},
		{
			name:     "nested pattern removed to fixpoint",
			input:    `<scr<script></script>ipt>alert(1)</scr</script>ipt>`,
			expected: `alert(1)`,
		},
		{
			name:     "season is not an event handler",
			input:    "season=summer",
			expected: "season=summer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Scrub(tt.input); got != tt.expected {
				t.Errorf("Scrub(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestScrubIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"plain text",
		`<script>alert(1)</script>`,
		`a<iframe src="x">b`,
		`javascript:void(0)`,
		"mixed <script>bad</script> and ' UNION SELECT",
	}
	for _, in := range inputs {
		once := Scrub(in)
		twice := Scrub(once)
		if once != twice {
			t.Errorf("Scrub not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestRequestExemptPathPassThrough(t *testing.T) {
	t.Parallel()

	s := New([]string{"/docs", "/openapi.json"})
	body := `{"anything": "<script>alert(1)</script>"}`
	req := httptest.NewRequest("POST", "/docs/swagger?q=<script>x</script>", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if rej := s.Request(req); rej != nil {
		t.Fatalf("Expected no rejection on exempt path, got %+v", rej)
	}
	if req.URL.RawQuery != "q=<script>x</script>" {
		t.Errorf("Exempt path query was modified: %q", req.URL.RawQuery)
	}
	got, _ := io.ReadAll(req.Body)
	if string(got) != body {
		t.Errorf("Exempt path body was modified: %q", got)
	}
}

func TestRequestScrubsJSONBody(t *testing.T) {
	t.Parallel()

	s := New(nil)
	body := `{"caption": "new post <script>steal()</script>", "tags": ["a", "javascript:x"]}`
	req := httptest.NewRequest("POST", "/api/v1/social-suit/content", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if rej := s.Request(req); rej != nil {
		t.Fatalf("Expected no rejection, got %+v", rej)
	}

	var decoded struct {
		Caption string   `json:"caption"`
		Tags    []string `json:"tags"`
	}
	if err := json.NewDecoder(req.Body).Decode(&decoded); err != nil {
		t.Fatalf("Failed to decode sanitized body: %v", err)
	}
	if decoded.Caption != "new post " {
		t.Errorf("Expected scrubbed caption, got %q", decoded.Caption)
	}
	if decoded.Tags[1] != "x" {
		t.Errorf("Expected scrubbed tag, got %q", decoded.Tags[1])
	}
}

func TestRequestDefangsOperatorKeys(t *testing.T) {
	t.Parallel()

	s := New(nil)
	body := `{"$where": "this.a == 1", "filter": {"$gt": ""}}`
	req := httptest.NewRequest("POST", "/api/v1/social-suit/analytics", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if rej := s.Request(req); rej != nil {
		t.Fatalf("Expected no rejection, got %+v", rej)
	}

	var decoded map[string]any
	if err := json.NewDecoder(req.Body).Decode(&decoded); err != nil {
		t.Fatalf("Failed to decode sanitized body: %v", err)
	}
	for key := range decoded {
		if strings.HasPrefix(key, "$") {
			t.Errorf("Operator key survived sanitization: %q", key)
		}
	}
	if inner, ok := decoded["filter"].(map[string]any); ok {
		if _, exists := inner["$gt"]; exists {
			t.Error("Nested operator key survived sanitization")
		}
	} else {
		t.Error("Expected filter object in sanitized body")
	}
}

func TestRequestCleanBodyByteIdentical(t *testing.T) {
	t.Parallel()

	s := New(nil)
	body := `{"caption":"morning post","count":3}`
	req := httptest.NewRequest("POST", "/api/v1/social-suit/content?page=2&limit=10", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if rej := s.Request(req); rej != nil {
		t.Fatalf("Expected no rejection, got %+v", rej)
	}
	got, _ := io.ReadAll(req.Body)
	if string(got) != body {
		t.Errorf("Clean body was not passed through byte-identical:\n got %q\nwant %q", got, body)
	}
	if req.URL.RawQuery != "page=2&limit=10" {
		t.Errorf("Clean query was re-encoded: %q", req.URL.RawQuery)
	}
}

func TestRequestRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	s := New(nil)
	req := httptest.NewRequest("POST", "/api/v1/social-suit/content", strings.NewReader(`{"broken": `))
	req.Header.Set("Content-Type", "application/json")

	rej := s.Request(req)
	if rej == nil {
		t.Fatal("Expected rejection for malformed JSON")
	}
	if rej.Field != "body" {
		t.Errorf("Expected field 'body', got %q", rej.Field)
	}
	if strings.Contains(rej.Reason, "broken") {
		t.Error("Rejection must not echo the raw payload")
	}
}

func TestRequestPassesThroughBinaryPayload(t *testing.T) {
	t.Parallel()

	s := New(nil)
	payload := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x1a, 0xff, 0xfe}
	req := httptest.NewRequest("POST", "/api/v1/social-suit/media", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "image/png")

	if rej := s.Request(req); rej != nil {
		t.Fatalf("Expected no rejection for binary payload, got %+v", rej)
	}
	got, _ := io.ReadAll(req.Body)
	if !bytes.Equal(got, payload) {
		t.Error("Binary payload was modified")
	}
}

func TestRequestScrubsQueryAndHeaders(t *testing.T) {
	t.Parallel()

	s := New(nil)
	req := httptest.NewRequest("GET", "/api/v1/social-suit/analytics?q=%3Cscript%3Ealert(1)%3C/script%3E", nil)
	req.Header.Set("User-Agent", "agent<script>bad</script>")
	req.Header.Set("Authorization", "Bearer <script>untouched</script>")

	if rej := s.Request(req); rej != nil {
		t.Fatalf("Expected no rejection, got %+v", rej)
	}
	if got := req.URL.Query().Get("q"); got != "" {
		t.Errorf("Expected script payload removed from query, got %q", got)
	}
	if got := req.Header.Get("User-Agent"); got != "agent" {
		t.Errorf("Expected scrubbed User-Agent, got %q", got)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer <script>untouched</script>" {
		t.Errorf("Authorization header must not be rewritten, got %q", got)
	}
}
