package store

import (
	"context"
	"errors"
	"time"

	"github.com/faerion/keygate/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LicenseStore struct {
	db *pgxpool.Pool
}

func NewLicenseStore(db *pgxpool.Pool) *LicenseStore {
	return &LicenseStore{db: db}
}

func (s *LicenseStore) GetActiveByKey(ctx context.Context, key string, appID uuid.UUID) (*domain.License, error) {
	l := &domain.License{}
	err := s.db.QueryRow(ctx,
		`SELECT id, app_id, key, active, expires_at, user_id,
		        COALESCE(hwid, ''), COALESCE(hwid_hash, ''), hwid_bound_at, created_at
		 FROM licenses WHERE key = $1 AND app_id = $2 AND active`,
		key, appID,
	).Scan(&l.ID, &l.AppID, &l.Key, &l.Active, &l.ExpiresAt, &l.UserID,
		&l.HWID, &l.HWIDHash, &l.HWIDBoundAt, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

// BindHWIDIfUnset is the first-writer-wins gate for concurrent first binds:
// the WHERE clause only matches while no hwid is recorded, so exactly one of
// two racing logins gets RowsAffected == 1.
func (s *LicenseStore) BindHWIDIfUnset(ctx context.Context, id uuid.UUID, hwid, hwidHash string, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE licenses SET hwid = $2, hwid_hash = $3, hwid_bound_at = $4
		 WHERE id = $1 AND hwid IS NULL AND hwid_hash IS NULL`,
		id, hwid, hwidHash, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *LicenseStore) SetHWIDHash(ctx context.Context, id uuid.UUID, hwidHash string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE licenses SET hwid_hash = $2 WHERE id = $1 AND hwid_hash IS NULL`,
		id, hwidHash)
	return err
}

func (s *LicenseStore) BindUserIfUnset(ctx context.Context, id uuid.UUID, userID uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE licenses SET user_id = $2 WHERE id = $1 AND user_id IS NULL`,
		id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
