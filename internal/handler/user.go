package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/campusbus/internal/domain"
	"github.com/yourorg/campusbus/internal/security/middleware"
	"github.com/yourorg/campusbus/internal/service"
)

// UserHandler handles account administration.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts := h.users.GetAll(r.Context())
	out := make([]UserDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toUserDTO(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// Update handles PATCH /api/users/{id}. Accounts may edit themselves;
// anything else requires the admin role.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil || (claims.UserID != r.PathValue("id") && claims.Role != string(domain.RoleAdmin)) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}

	var req service.UpdateUserInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	account, outcome, err := h.users.Update(r.Context(), r.PathValue("id"), req, actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserDTO(*account), "syncStatus": outcome})
}

// Delete handles DELETE /api/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), r.PathValue("id"), actorID(r)); err != nil {
		writeError(w, err)
		return
	}
	h.logger.Info("user deleted", slog.String("user_id", r.PathValue("id")))
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
