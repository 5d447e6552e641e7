package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	infmongo "github.com/yourorg/campusbus/internal/infrastructure/mongo"
	infredis "github.com/yourorg/campusbus/internal/infrastructure/redis"
)

// HealthHandler handles health check endpoints. Both the remote store and
// the relay are optional: an unconfigured dependency reports "not configured"
// and does not fail readiness, since the service is designed to run on the
// local mirror alone.
type HealthHandler struct {
	mongoClient *infmongo.Client
	redisClient *infredis.Client
	logger      *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(mongoClient *infmongo.Client, redisClient *infredis.Client, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		mongoClient: mongoClient,
		redisClient: redisClient,
		logger:      logger,
	}
}

// HealthResponse represents the health status response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /healthz - simple liveness check
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /readyz - readiness check for orchestrators. Configured
// dependencies must answer a ping; unconfigured ones are skipped.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	if h.mongoClient != nil {
		if err := h.mongoClient.Ping(ctx); err != nil {
			checks["mongo"] = "error: " + err.Error()
			healthy = false
		} else {
			checks["mongo"] = "ok"
		}
	} else {
		checks["mongo"] = "not configured"
	}

	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx); err != nil {
			checks["redis"] = "error: " + err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "not configured"
	}

	status := "ready"
	statusCode := http.StatusOK
	if !healthy {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, ReadinessResponse{Status: status, Checks: checks})

	h.logger.Info("readiness check",
		slog.String("status", status),
		slog.String("mongo", checks["mongo"]),
		slog.String("redis", checks["redis"]),
	)
}
