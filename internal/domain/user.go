package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an end-user account scoped to one App. Accounts provisioned by
// license login have no password hash and carry the license key they were
// created from.
type User struct {
	ID           uuid.UUID  `json:"id"`
	AppID        uuid.UUID  `json:"app_id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Email        string     `json:"email,omitempty"`
	// HWID holds the hashed hardware id the account is pinned to, empty
	// until the first login that supplies one.
	HWID         string     `json:"-"`
	Banned       bool       `json:"banned"`
	BanReason    string     `json:"ban_reason,omitempty"`
	Subscription string     `json:"subscription,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	LastIP       string     `json:"last_ip,omitempty"`
	LicenseKey   string     `json:"license_key,omitempty"`
	PCName       string     `json:"pc_name,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SubscriptionExpired reports whether the account's subscription has lapsed.
// A missing expiry means the subscription never expires.
func (u *User) SubscriptionExpired(now time.Time) bool {
	return u.ExpiresAt != nil && !now.Before(*u.ExpiresAt)
}
