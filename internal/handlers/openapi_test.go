package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const testSpec = `openapi: 3.0.3
info:
  title: Social Suit API
  version: 1.0.0
paths: {}
`

func writeTestSpec(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	if err := os.WriteFile(path, []byte(testSpec), 0o600); err != nil {
		t.Fatalf("Failed to write spec file: %v", err)
	}
	return path
}

func TestOpenAPIServeYAML(t *testing.T) {
	t.Parallel()

	h := NewOpenAPIHandler(writeTestSpec(t))

	w := httptest.NewRecorder()
	h.ServeYAML(w, httptest.NewRequest("GET", "/openapi.yaml", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-yaml" {
		t.Errorf("Expected YAML content type, got %q", ct)
	}
}

func TestOpenAPIServeJSON(t *testing.T) {
	t.Parallel()

	h := NewOpenAPIHandler(writeTestSpec(t))

	w := httptest.NewRecorder()
	h.ServeJSON(w, httptest.NewRequest("GET", "/openapi.json", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var spec map[string]any
	if err := json.NewDecoder(w.Body).Decode(&spec); err != nil {
		t.Fatalf("Failed to decode JSON spec: %v", err)
	}
	if spec["openapi"] != "3.0.3" {
		t.Errorf("Expected openapi version in converted spec, got %v", spec["openapi"])
	}
}

func TestOpenAPIMissingSpec(t *testing.T) {
	t.Parallel()

	h := NewOpenAPIHandler(filepath.Join(t.TempDir(), "missing.yaml"))

	w := httptest.NewRecorder()
	h.ServeYAML(w, httptest.NewRequest("GET", "/openapi.yaml", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing spec, got %d", w.Code)
	}
}
