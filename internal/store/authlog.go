package store

import (
	"context"

	"github.com/faerion/keygate/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuthEventStore struct {
	db *pgxpool.Pool
}

func NewAuthEventStore(db *pgxpool.Pool) *AuthEventStore {
	return &AuthEventStore{db: db}
}

func (s *AuthEventStore) Create(ctx context.Context, e *domain.AuthEvent) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO auth_logs (app_id, kind, user_id, ip, user_agent, details)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))
		 RETURNING id, created_at`,
		e.AppID, e.Kind, e.UserID, e.IP, e.UserAgent, e.Details,
	).Scan(&e.ID, &e.CreatedAt)
}
