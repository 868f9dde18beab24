package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/faerion/keygate/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}

// writeAuthError maps the auth flow error taxonomy onto stable statuses and
// machine-readable codes.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrAppNotFound):
		writeError(w, http.StatusNotFound, "APP_NOT_FOUND", "application not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
	case errors.Is(err, service.ErrBanned):
		writeError(w, http.StatusForbidden, "BANNED", err.Error())
	case errors.Is(err, service.ErrHWIDMismatch):
		writeError(w, http.StatusForbidden, "HWID_MISMATCH", "hwid mismatch")
	case errors.Is(err, service.ErrLicenseNotFound):
		writeError(w, http.StatusNotFound, "LICENSE_NOT_FOUND", "invalid license key")
	case errors.Is(err, service.ErrLicenseExpired):
		writeError(w, http.StatusForbidden, "LICENSE_EXPIRED", "license has expired")
	case errors.Is(err, service.ErrLicenseClaimed):
		writeError(w, http.StatusConflict, "CONFLICT", "license already in use")
	case errors.Is(err, service.ErrSubscriptionExpired):
		writeError(w, http.StatusForbidden, "SUBSCRIPTION_EXPIRED", "subscription expired")
	case errors.Is(err, service.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "CONFLICT", "username already exists")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "temporarily unavailable, retry")
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

// clientIP prefers the address resolved by chi's RealIP middleware.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
