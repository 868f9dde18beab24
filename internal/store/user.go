package store

import (
	"context"
	"errors"
	"time"

	"github.com/faerion/keygate/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserStore struct {
	db *pgxpool.Pool
}

func NewUserStore(db *pgxpool.Pool) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (app_id, username, password_hash, email, hwid, subscription, expires_at, last_ip, license_key, pc_name)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''))
		 RETURNING id, created_at, updated_at`,
		u.AppID, u.Username, u.PasswordHash, u.Email, u.HWID, u.Subscription, u.ExpiresAt, u.LastIP, u.LicenseKey, u.PCName,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID, appID uuid.UUID) (*domain.User, error) {
	return s.scanOne(s.db.QueryRow(ctx,
		userSelect+` WHERE id = $1 AND app_id = $2`, id, appID))
}

func (s *UserStore) GetByUsername(ctx context.Context, username string, appID uuid.UUID) (*domain.User, error) {
	return s.scanOne(s.db.QueryRow(ctx,
		userSelect+` WHERE username = $1 AND app_id = $2`, username, appID))
}

func (s *UserStore) BindHWIDIfUnset(ctx context.Context, id uuid.UUID, hwidHash string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET hwid = $2, updated_at = NOW() WHERE id = $1 AND hwid IS NULL`,
		id, hwidHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *UserStore) RecordLogin(ctx context.Context, id uuid.UUID, ip string, at time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET last_login_at = $2, last_ip = NULLIF($3, ''), updated_at = NOW() WHERE id = $1`,
		id, at, ip)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, id uuid.UUID, username, pcName string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users
		 SET username = COALESCE(NULLIF($2, ''), username),
		     pc_name = COALESCE(NULLIF($3, ''), pc_name),
		     updated_at = NOW()
		 WHERE id = $1`,
		id, username, pcName)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const userSelect = `SELECT id, app_id, username, COALESCE(password_hash, ''), COALESCE(email, ''),
	COALESCE(hwid, ''), banned, COALESCE(ban_reason, ''), COALESCE(subscription, ''),
	expires_at, last_login_at, COALESCE(last_ip, ''), COALESCE(license_key, ''),
	COALESCE(pc_name, ''), created_at, updated_at FROM users`

func (s *UserStore) scanOne(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.AppID, &u.Username, &u.PasswordHash, &u.Email,
		&u.HWID, &u.Banned, &u.BanReason, &u.Subscription,
		&u.ExpiresAt, &u.LastLoginAt, &u.LastIP, &u.LicenseKey,
		&u.PCName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}
