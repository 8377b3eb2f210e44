package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Pinger is any backing resource the extended health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthCheckTimeout = 5 * time.Second

// HealthChecker reports liveness and, in extended mode, per-resource health.
type HealthChecker struct {
	checks map[string]Pinger
	log    *zap.Logger
}

// NewHealthChecker creates a health checker. checks maps a resource name
// (postgres, mongo, redis, rabbitmq) to its pinger; nil entries are skipped
// so a degraded deployment still reports the resources it has.
func NewHealthChecker(checks map[string]Pinger, log *zap.Logger) *HealthChecker {
	filtered := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			filtered[name] = p
		}
	}
	return &HealthChecker{checks: filtered, log: log}
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles GET /health. Basic mode only confirms the process is
// serving; ?mode=extended pings every attached resource.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if r.URL.Query().Get("mode") != "extended" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
		return
	}

	response.Checks = make(map[string]string, len(h.checks))
	for _, name := range h.checkNames() {
		if err := h.pingResource(r.Context(), h.checks[name]); err != nil {
			response.Status = "unhealthy"
			response.Checks[name] = "unhealthy: " + sanitizeErrorMessage(err.Error())
			h.log.Warn("health_check_failed", zap.String("resource", name), zap.Error(err))
		} else {
			response.Checks[name] = "healthy"
		}
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// checkNames returns resource names in stable order.
func (h *HealthChecker) checkNames() []string {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *HealthChecker) pingResource(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return p.Ping(ctx)
}
