package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/campusbus/internal/service"
)

// RouteHandler handles the route endpoints. There is deliberately no delete:
// routes are retired by updating status to inactive so historical bookings
// keep a resolvable reference.
type RouteHandler struct {
	routes *service.RouteService
	logger *slog.Logger
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(routes *service.RouteService, logger *slog.Logger) *RouteHandler {
	return &RouteHandler{routes: routes, logger: logger}
}

// List handles GET /api/routes
func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.routes.GetAll(r.Context()))
}

// Create handles POST /api/routes
func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateRouteInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode route request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	route, outcome, err := h.routes.Create(r.Context(), req, actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"route": route, "syncStatus": outcome})
}

// Update handles PATCH /api/routes/{id}
func (h *RouteHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateRouteInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	route, outcome, err := h.routes.Update(r.Context(), r.PathValue("id"), req, actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"route": route, "syncStatus": outcome})
}
