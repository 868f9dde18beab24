package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuthEvent is a durable audit record of an authentication-related action.
type AuthEvent struct {
	ID        uuid.UUID  `json:"id"`
	AppID     uuid.UUID  `json:"app_id"`
	Kind      string     `json:"kind"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	IP        string     `json:"ip,omitempty"`
	UserAgent string     `json:"user_agent,omitempty"`
	Details   string     `json:"details,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Well-known audit event kinds. The audit filter's denylist never covers
// these; login_failed in particular must always reach storage.
const (
	EventLoginSuccess = "login_success"
	EventLoginFailed  = "login_failed"
	EventRegister     = "register"
	EventLicenseLogin = "license_login"
	EventLogout       = "logout"
)

// Polling event kinds, emitted by the flows but suppressed by the default
// audit denylist.
const (
	EventValidate = "validate"
	EventInit     = "init"
)
