package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/campusbus/internal/service"
)

// ActivityHandler serves the recent activity feed.
type ActivityHandler struct {
	activities *service.ActivityService
	logger     *slog.Logger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activities *service.ActivityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{activities: activities, logger: logger}
}

// List handles GET /api/activities
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.activities.Load(r.Context()))
}
