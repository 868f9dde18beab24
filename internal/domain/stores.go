package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AppStore interface {
	GetBySecret(ctx context.Context, secret string) (*App, error)
}

type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID, appID uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string, appID uuid.UUID) (*User, error)

	// BindHWIDIfUnset pins the hardware id hash to the user only if no hash
	// is recorded yet. Returns true when this call performed the bind; false
	// means another value was already in place (possibly set concurrently).
	BindHWIDIfUnset(ctx context.Context, id uuid.UUID, hwidHash string) (bool, error)

	RecordLogin(ctx context.Context, id uuid.UUID, ip string, at time.Time) error
	UpdateProfile(ctx context.Context, id uuid.UUID, username, pcName string) error
}

type LicenseStore interface {
	GetActiveByKey(ctx context.Context, key string, appID uuid.UUID) (*License, error)

	// BindHWIDIfUnset pins raw hardware id and hash to the license only if
	// none is bound yet. First writer wins; callers losing the race must
	// re-read and compare.
	BindHWIDIfUnset(ctx context.Context, id uuid.UUID, hwid, hwidHash string, at time.Time) (bool, error)

	// SetHWIDHash backfills the hash on rows bound before hashed storage.
	SetHWIDHash(ctx context.Context, id uuid.UUID, hwidHash string) error

	// BindUserIfUnset claims the license for a user only if unclaimed.
	BindUserIfUnset(ctx context.Context, id uuid.UUID, userID uuid.UUID) (bool, error)
}

type AuthEventStore interface {
	Create(ctx context.Context, e *AuthEvent) error
}

// WebhookClient delivers tenant-configured event notifications. Delivery is
// best effort; implementations must never block the calling auth flow.
type WebhookClient interface {
	Notify(ctx context.Context, endpoint, event string, payload map[string]any)
}
