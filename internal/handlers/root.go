package handlers

import (
	"net/http"

	"github.com/socialsuit/Backend-Socialsuit/internal/config"
)

// ServiceVersion is the API version reported at the root endpoint.
const ServiceVersion = "1.0.0"

// Root serves service metadata at GET /. The docs URL is only advertised
// when documentation endpoints are enabled.
type Root struct {
	cfg     *config.Config
	mounted []string
}

// NewRoot creates the root metadata handler. mounted lists the route-group
// prefixes registered under the API prefix.
func NewRoot(cfg *config.Config, mounted []string) *Root {
	return &Root{cfg: cfg, mounted: mounted}
}

// ServeHTTP implements http.Handler.
func (h *Root) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondJSONError(w, http.StatusNotFound, "Not Found", "unknown path")
		return
	}

	meta := map[string]any{
		"service":    "Social Suit",
		"version":    ServiceVersion,
		"api_prefix": h.cfg.APIPrefix,
		"routes":     h.mounted,
		"health":     "/health",
	}
	if h.cfg.DocsEnabled() {
		meta["docs"] = "/docs"
		meta["openapi"] = "/openapi.json"
	}

	respondJSON(w, http.StatusOK, meta)
}
