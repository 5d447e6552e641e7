package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/campusbus/internal/domain"
	"github.com/yourorg/campusbus/internal/security/auth"
	"github.com/yourorg/campusbus/internal/security/middleware"
	"github.com/yourorg/campusbus/internal/security/ratelimit"
	"github.com/yourorg/campusbus/internal/service"
)

// UserDTO is the account shape returned to clients. The credential hash
// never leaves the service boundary.
type UserDTO struct {
	ID            string      `json:"id"`
	Role          domain.Role `json:"role"`
	Identifier    string      `json:"identifier"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Course        string      `json:"course,omitempty"`
	AdmissionYear string      `json:"admissionYear,omitempty"`
	Department    string      `json:"department,omitempty"`
	CreatedAt     string      `json:"createdAt"`
	UpdatedAt     string      `json:"updatedAt"`
}

func toUserDTO(a domain.UserAccount) UserDTO {
	return UserDTO{
		ID:            a.ID,
		Role:          a.Role,
		Identifier:    a.Identifier,
		Name:          a.Name,
		Email:         a.Email,
		Course:        a.Course,
		AdmissionYear: a.AdmissionYear,
		Department:    a.Department,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResponse contains the JWT token
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserDTO   `json:"user"`
}

// AuthHandler handles registration, login and the password-reset flow.
type AuthHandler struct {
	users        *service.UserService
	reset        *service.PasswordResetService
	tokenManager *auth.TokenManager
	limiter      *ratelimit.Limiter
	tokenTTL     time.Duration
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	users *service.UserService,
	reset *service.PasswordResetService,
	tm *auth.TokenManager,
	limiter *ratelimit.Limiter,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		users:        users,
		reset:        reset,
		tokenManager: tm,
		limiter:      limiter,
		tokenTTL:     tokenTTL,
		logger:       logger,
	}
}

// Register handles POST /api/auth/register requests
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode register request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}

	account, outcome, err := h.users.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("user registered",
		slog.String("user_id", account.ID),
		slog.String("role", string(account.Role)),
	)
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":       toUserDTO(*account),
		"syncStatus": outcome,
	})
}

// Login handles POST /api/auth/login requests
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode login request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	if req.Identifier == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "identifier and password required"})
		return
	}

	// Tighter window on login attempts than the general limit.
	if !h.limiter.AllowStrict("login:"+middleware.ClientKey(r), 10, time.Minute) {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many login attempts"})
		return
	}

	account, err := h.users.Authenticate(r.Context(), req.Identifier, req.Password)
	if err != nil {
		h.logger.Warn("authentication failed", slog.String("identifier", req.Identifier))
		// Generic error to prevent user enumeration
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	token, err := h.tokenManager.GenerateToken(string(account.Role), account.ID, account.Identifier, account.Email, h.tokenTTL)
	if err != nil {
		h.logger.Error("failed to generate token",
			slog.String("user_id", account.ID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "token generation failed"})
		return
	}

	h.logger.Info("user logged in",
		slog.String("user_id", account.ID),
		slog.String("role", string(account.Role)),
	)
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.tokenTTL),
		User:      toUserDTO(*account),
	})
}

// ResetRequestBody carries the email asking for a reset code.
type ResetRequestBody struct {
	Email string `json:"email"`
}

// RequestReset handles POST /api/auth/password-reset/request
func (h *AuthHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email required"})
		return
	}

	if !h.limiter.AllowStrict("reset:"+middleware.ClientKey(r), 5, 10*time.Minute) {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many reset requests"})
		return
	}

	result := h.reset.RequestPasswordReset(r.Context(), req.Email)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, result)
}

// ResetConfirmBody carries a code redemption.
type ResetConfirmBody struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// ConfirmReset handles POST /api/auth/password-reset/confirm
func (h *AuthHandler) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req ResetConfirmBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	if req.Email == "" || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and code required"})
		return
	}

	if !h.limiter.AllowStrict("reset-confirm:"+middleware.ClientKey(r), 10, 10*time.Minute) {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many attempts"})
		return
	}

	if err := h.reset.ResetPasswordWithOTP(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password has been reset. You can sign in with the new password.",
	})
}
