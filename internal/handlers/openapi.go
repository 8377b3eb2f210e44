package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// OpenAPIHandler serves the API specification. The router only mounts it
// when config.DocsEnabled reports documentation is allowed.
type OpenAPIHandler struct {
	specPath string
	baseDir  string
}

// NewOpenAPIHandler creates an OpenAPI handler rooted at specPath.
func NewOpenAPIHandler(specPath string) *OpenAPIHandler {
	absPath, _ := filepath.Abs(specPath)
	baseDir, _ := filepath.Abs(filepath.Dir(specPath))
	return &OpenAPIHandler{specPath: absPath, baseDir: baseDir}
}

// RegisterRoutes mounts the spec endpoints.
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/openapi.json", h.ServeJSON).Methods("GET")
}

// validatePath rejects spec paths that escape the base directory.
func (h *OpenAPIHandler) validatePath() error {
	absPath, err := filepath.Abs(filepath.Clean(h.specPath))
	if err != nil {
		return err
	}
	relPath, err := filepath.Rel(h.baseDir, absPath)
	if err != nil {
		return err
	}
	if filepath.IsAbs(relPath) || relPath == ".." || (len(relPath) > 2 && relPath[:3] == "../") {
		return os.ErrPermission
	}
	return nil
}

// ServeYAML returns the spec as YAML.
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	data, err := h.readSpec()
	if err != nil {
		http.Error(w, "OpenAPI specification not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	_, _ = w.Write(data)
}

// ServeJSON returns the spec converted to JSON.
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	data, err := h.readSpec()
	if err != nil {
		http.Error(w, "OpenAPI specification not found", http.StatusNotFound)
		return
	}

	var spec map[string]any
	if err := yaml.Unmarshal(data, &spec); err != nil {
		http.Error(w, "Failed to parse OpenAPI specification", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(spec); err != nil {
		http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
	}
}

func (h *OpenAPIHandler) readSpec() ([]byte, error) {
	if err := h.validatePath(); err != nil {
		return nil, err
	}
	return os.ReadFile(h.specPath)
}
