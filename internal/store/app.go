package store

import (
	"context"
	"errors"

	"github.com/faerion/keygate/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AppStore struct {
	db *pgxpool.Pool
}

func NewAppStore(db *pgxpool.Pool) *AppStore {
	return &AppStore{db: db}
}

func (s *AppStore) GetBySecret(ctx context.Context, secret string) (*domain.App, error) {
	a := &domain.App{}
	var webhookURL *string
	err := s.db.QueryRow(ctx,
		`SELECT id, name, secret, version, force_update, webhook_url, created_at, updated_at
		 FROM apps WHERE secret = $1`,
		secret,
	).Scan(&a.ID, &a.Name, &a.Secret, &a.Version, &a.ForceUpdate, &webhookURL, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if webhookURL != nil {
		a.WebhookURL = *webhookURL
	}
	return a, nil
}
