package handlers

import (
	"net/http"

	"github.com/faerion/keygate/internal/api/middleware"
	"github.com/faerion/keygate/internal/service"
)

// SessionHandler serves the token-authenticated endpoints. The session
// middleware has already validated the token and loaded the user.
type SessionHandler struct {
	svc *service.AuthService
}

func NewSessionHandler(svc *service.AuthService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) Validate(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "TOKEN_INVALID", "unauthorized")
		return
	}

	if err := h.svc.Validate(r.Context(), user); err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "message": "Token is valid"})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "TOKEN_INVALID", "unauthorized")
		return
	}

	h.svc.Logout(r.Context(), user)

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out successfully"})
}

func (h *SessionHandler) UserInfo(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "TOKEN_INVALID", "unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, user)
}
