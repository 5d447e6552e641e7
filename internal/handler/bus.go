package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/campusbus/internal/security/middleware"
	"github.com/yourorg/campusbus/internal/service"
)

// BusHandler handles the fleet endpoints.
type BusHandler struct {
	buses    *service.BusService
	bookings *service.BookingService
	logger   *slog.Logger
}

// NewBusHandler creates a new bus handler
func NewBusHandler(buses *service.BusService, bookings *service.BookingService, logger *slog.Logger) *BusHandler {
	return &BusHandler{
		buses:    buses,
		bookings: bookings,
		logger:   logger,
	}
}

// List handles GET /api/buses
func (h *BusHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.buses.GetAll(r.Context()))
}

// Get handles GET /api/buses/{id}
func (h *BusHandler) Get(w http.ResponseWriter, r *http.Request) {
	bus, err := h.buses.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bus)
}

// Create handles POST /api/buses
func (h *BusHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBusInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode bus request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	bus, outcome, err := h.buses.Create(r.Context(), req, actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"bus": bus, "syncStatus": outcome})
}

// Update handles PATCH /api/buses/{id}
func (h *BusHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateBusInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	bus, outcome, err := h.buses.Update(r.Context(), r.PathValue("id"), req, actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bus": bus, "syncStatus": outcome})
}

// Delete handles DELETE /api/buses/{id}
func (h *BusHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.buses.Delete(r.Context(), r.PathValue("id"), actorID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Availability handles GET /api/buses/{id}/availability
func (h *BusHandler) Availability(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.bookings.GetSeatAvailability(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// Bookings handles GET /api/buses/{id}/bookings
func (h *BusHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.bookings.GetByBus(r.Context(), r.PathValue("id")))
}

// Summary handles GET /api/buses/{id}/summary
func (h *BusHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.bookings.BusSummary(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// actorID is the authenticated user for activity attribution, "" for
// anonymous callers.
func actorID(r *http.Request) string {
	if claims := middleware.GetClaimsFromContext(r.Context()); claims != nil {
		return claims.UserID
	}
	return ""
}
