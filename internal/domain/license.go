package domain

import (
	"time"

	"github.com/google/uuid"
)

// License is a redeemable entitlement key scoped to one App. A license may be
// claimed by at most one user and pinned to at most one hardware id.
//
// HWID is stored both raw and hashed: rows bound before hashing was introduced
// carry only the raw value, and the hash is backfilled on their next login.
type License struct {
	ID          uuid.UUID  `json:"id"`
	AppID       uuid.UUID  `json:"app_id"`
	Key         string     `json:"key"`
	Active      bool       `json:"active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	HWID        string     `json:"-"`
	HWIDHash    string     `json:"-"`
	HWIDBoundAt *time.Time `json:"hwid_bound_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Expired reports whether the license has lapsed. Expiry wins over the active
// flag: an expired license is unusable even while still marked active.
func (l *License) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}
