package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/campusbus/internal/service"
)

// BookingHandler handles booking creation, cancellation and the derived
// per-bus summaries. Bookings have no delete endpoint; cancellation is the
// only way out of a confirmed booking.
type BookingHandler struct {
	bookings *service.BookingService
	logger   *slog.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings *service.BookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// List handles GET /api/bookings. A passenger query filter narrows the set
// to one account's bookings.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if passenger := r.URL.Query().Get("passenger"); passenger != "" {
		writeJSON(w, http.StatusOK, h.bookings.GetByPassenger(r.Context(), passenger))
		return
	}
	writeJSON(w, http.StatusOK, h.bookings.GetAll(r.Context()))
}

// Create handles POST /api/bookings
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBookingInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode booking request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	booking, outcome, err := h.bookings.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("booking created",
		slog.String("booking_id", booking.ID),
		slog.String("bus_id", booking.BusID),
		slog.String("seat", booking.SeatNumber),
	)
	writeJSON(w, http.StatusCreated, map[string]any{"booking": booking, "syncStatus": outcome})
}

// Cancel handles POST /api/bookings/{id}/cancel
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	booking, outcome, err := h.bookings.Cancel(r.Context(), r.PathValue("id"), actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": booking, "syncStatus": outcome})
}

// Summaries handles GET /api/bookings/summaries
func (h *BookingHandler) Summaries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.bookings.AllBusSummaries(r.Context()))
}
