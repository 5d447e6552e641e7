package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yourorg/campusbus/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. OTP failures
// carry their reason so clients can distinguish expired from exhausted codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case domain.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case domain.IsConflict(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case domain.OTPReasonOf(err) != "":
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "code rejected",
			"reason": string(domain.OTPReasonOf(err)),
		})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
