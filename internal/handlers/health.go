package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/lingua-drome/internal/kv"
)

// HealthChecker handles health check requests
type HealthChecker struct {
	store kv.Store
}

// NewHealthChecker creates a health checker that probes the durable store
func NewHealthChecker(store kv.Store) *HealthChecker {
	return &HealthChecker{store: store}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles /healthz. With ?mode=extended the durable store is pinged
// and an unreachable store answers 503.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	statusCode := http.StatusOK

	if r.URL.Query().Get("mode") == "extended" {
		response.Checks = map[string]string{}
		if err := h.checkStore(r.Context()); err != nil {
			response.Status = "unhealthy"
			response.Checks["store"] = "unhealthy"
			statusCode = http.StatusServiceUnavailable
		} else {
			response.Checks["store"] = "healthy"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func (h *HealthChecker) checkStore(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return h.store.Ping(ctx)
}
