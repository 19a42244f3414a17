package handler

import (
	"context"
	"net/http"
	"time"

	"poll-be/pkg/logger"
)

// HealthChecker reports the status of each backing dependency by name
type HealthChecker interface {
	HealthCheck(ctx context.Context) map[string]error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	base
	checker HealthChecker
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker HealthChecker, version string, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		base:    base{logger: logger},
		checker: checker,
		version: version,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Version    string            `json:"version"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components,omitempty"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Service:   "poll-be",
	}
	status := http.StatusOK

	if h.checker != nil {
		resp.Components = make(map[string]string)
		for name, err := range h.checker.HealthCheck(ctx) {
			if err != nil {
				h.logger.WithError(err).WithField("component", name).Warn("Health check failed")
				resp.Components[name] = "unhealthy"
				resp.Status = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Components[name] = "healthy"
		}
	}

	h.respondJSON(w, status, resp)
}
