package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// PipelineStatus is a point-in-time view of the security pipeline, assembled
// at startup.
type PipelineStatus struct {
	RateLimiterEnabled bool     `json:"rate_limiter_enabled"`
	AuditPersistence   bool     `json:"audit_persistence"`
	AuditPublishing    bool     `json:"audit_publishing"`
	DegradedResources  []string `json:"degraded_resources,omitempty"`
}

// StatusHandler reports pipeline state to operators.
type StatusHandler struct {
	status PipelineStatus
}

// NewStatusHandler creates a status handler for the given pipeline state.
func NewStatusHandler(status PipelineStatus) *StatusHandler {
	return &StatusHandler{status: status}
}

// Group exposes the handler as a mountable route group.
func (h *StatusHandler) Group() Group {
	return Group{
		Name:   "status",
		Prefix: "/status",
		Register: func(r *mux.Router) {
			r.HandleFunc("", h.Get).Methods("GET")
			r.HandleFunc("/", h.Get).Methods("GET")
		},
	}
}

// Get handles GET {prefix}/status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.status)
}
