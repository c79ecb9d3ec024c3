package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/authgate/authgate"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError maps the engine's error taxonomy onto status codes. Anything
// outside the taxonomy is an infrastructure failure and surfaces as a
// generic 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authgate.ErrAccountExists):
		writeMessage(w, http.StatusBadRequest, "user already exists")
	case errors.Is(err, authgate.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, authgate.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, "user not found")
	case errors.Is(err, authgate.ErrChallengeInvalid):
		writeMessage(w, http.StatusBadRequest, "invalid otp")
	case errors.Is(err, authgate.ErrSecretPolicy):
		writeMessage(w, http.StatusBadRequest, "password required")
	case errors.Is(err, authgate.ErrLoginRateLimited):
		writeMessage(w, http.StatusTooManyRequests, "too many attempts")
	case errors.Is(err, authgate.ErrDeliveryFailed):
		writeMessage(w, http.StatusInternalServerError, "failed to send otp")
	default:
		writeMessage(w, http.StatusInternalServerError, "server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad request")
		return false
	}
	return true
}
