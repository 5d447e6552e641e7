package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/campusbus/internal/domain"
	"github.com/yourorg/campusbus/internal/service"
)

// SettingsHandler serves the system settings singleton.
type SettingsHandler struct {
	settings *service.SettingsService
	logger   *slog.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings *service.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

// Get handles GET /api/settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Get(r.Context()))
}

// Update handles PUT /api/settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.SystemSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode settings request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	settings, outcome, err := h.settings.Update(r.Context(), req, actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings, "syncStatus": outcome})
}
