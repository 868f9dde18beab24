package domain

import (
	"time"

	"github.com/google/uuid"
)

// App is a tenant: an isolated namespace of users and licenses,
// identified by an opaque secret that client builds embed.
type App struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Secret      string    `json:"-"`
	Version     string    `json:"version"`
	ForceUpdate bool      `json:"force_update"`
	WebhookURL  string    `json:"webhook_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
