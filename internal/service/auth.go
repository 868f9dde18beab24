package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/faerion/keygate/internal/auth"
	"github.com/faerion/keygate/internal/domain"
	"github.com/faerion/keygate/internal/store"
	"go.uber.org/zap"
)

var (
	ErrAppNotFound         = errors.New("application not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrBanned              = errors.New("account banned")
	ErrHWIDMismatch        = errors.New("hwid mismatch")
	ErrLicenseNotFound     = errors.New("invalid license key")
	ErrLicenseExpired      = errors.New("license has expired")
	ErrLicenseClaimed      = errors.New("license already in use")
	ErrSubscriptionExpired = errors.New("subscription expired")
	ErrUsernameTaken       = errors.New("username already exists")
)

// AuthService orchestrates the per-request authentication flows: password
// login, registration, license-key login, validation, and logout. Each flow
// is a short linear sequence with early-exit failure branches; every outcome
// passes through the audit filter.
type AuthService struct {
	apps     domain.AppStore
	users    domain.UserStore
	licenses domain.LicenseStore
	audit    *AuditService
	webhooks domain.WebhookClient
	tokens   *auth.TokenIssuer
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(
	apps domain.AppStore,
	users domain.UserStore,
	licenses domain.LicenseStore,
	audit *AuditService,
	webhooks domain.WebhookClient,
	tokens *auth.TokenIssuer,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		apps:     apps,
		users:    users,
		licenses: licenses,
		audit:    audit,
		webhooks: webhooks,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// RequestMeta carries per-request client attributes into the flows.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Session is the result of any successful auth flow.
type Session struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiry"`
}

type LoginInput struct {
	AppSecret string
	Username  string
	Password  string
	HWID      string
	Meta      RequestMeta
}

// Login authenticates a user by password. A missing user and a wrong
// password produce the same error so usernames cannot be enumerated.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	app, err := s.resolveApp(ctx, in.AppSecret)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, in.Username, app.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil || !auth.VerifyPassword(in.Password, user.PasswordHash) {
		s.audit.Record(ctx, &domain.AuthEvent{
			AppID:     app.ID,
			Kind:      domain.EventLoginFailed,
			IP:        in.Meta.IP,
			UserAgent: in.Meta.UserAgent,
			Details:   fmt.Sprintf("failed login attempt for username: %s", in.Username),
		})
		return nil, ErrInvalidCredentials
	}

	if user.Banned {
		return nil, banErr(user.BanReason)
	}

	if in.HWID != "" {
		if err := s.bindUserHWID(ctx, user, in.HWID); err != nil {
			return nil, err
		}
	}

	if err := s.users.RecordLogin(ctx, user.ID, in.Meta.IP, s.now()); err != nil {
		return nil, fmt.Errorf("recording login: %w", err)
	}

	session, err := s.issue(app, user)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &domain.AuthEvent{
		AppID:     app.ID,
		Kind:      domain.EventLoginSuccess,
		UserID:    &user.ID,
		IP:        in.Meta.IP,
		UserAgent: in.Meta.UserAgent,
		Details:   fmt.Sprintf("user %s logged in", user.Username),
	})
	s.notify(app, "login", map[string]any{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"ip":       in.Meta.IP,
	})

	return session, nil
}

type RegisterInput struct {
	AppSecret  string
	Username   string
	Password   string
	Email      string
	HWID       string
	LicenseKey string
	Meta       RequestMeta
}

// Register creates a user account, optionally claiming a license key whose
// expiry becomes the account's subscription expiry. A license already claimed
// by another account, or pinned to a different hardware id, aborts the
// registration.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	app, err := s.resolveApp(ctx, in.AppSecret)
	if err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		AppID:        app.ID,
		Username:     in.Username,
		PasswordHash: passwordHash,
		Email:        in.Email,
		LastIP:       in.Meta.IP,
	}
	if in.HWID != "" {
		user.HWID = auth.HashHWID(in.HWID)
	}

	var lic *domain.License
	if in.LicenseKey != "" {
		lic, err = s.licenses.GetActiveByKey(ctx, in.LicenseKey, app.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("looking up license: %w", err)
		}
		if lic != nil {
			if lic.UserID != nil {
				return nil, ErrLicenseClaimed
			}
			if bound := licenseHWIDHash(lic); bound != "" && bound != user.HWID {
				return nil, ErrHWIDMismatch
			}
			user.ExpiresAt = lic.ExpiresAt
			user.Subscription = "Premium"
			user.LicenseKey = lic.Key
		}
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	if lic != nil {
		claimed, err := s.licenses.BindUserIfUnset(ctx, lic.ID, user.ID)
		if err != nil {
			return nil, fmt.Errorf("binding license: %w", err)
		}
		if !claimed {
			// Lost the claim race to a concurrent flow. The license stays with
			// its first claimant; this registration does not get the entitlement.
			return nil, ErrLicenseClaimed
		}
		if user.HWID != "" && lic.HWIDHash == "" {
			if _, err := s.licenses.BindHWIDIfUnset(ctx, lic.ID, auth.NormalizeHWID(in.HWID), user.HWID, s.now()); err != nil {
				return nil, fmt.Errorf("binding license hwid: %w", err)
			}
		}
	}

	session, err := s.issue(app, user)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &domain.AuthEvent{
		AppID:     app.ID,
		Kind:      domain.EventRegister,
		UserID:    &user.ID,
		IP:        in.Meta.IP,
		UserAgent: in.Meta.UserAgent,
		Details:   fmt.Sprintf("user %s registered", user.Username),
	})
	s.notify(app, "register", map[string]any{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"ip":       in.Meta.IP,
	})

	return session, nil
}

type LicenseLoginInput struct {
	AppSecret  string
	LicenseKey string
	HWID       string
	Username   string // client-supplied label, optional
	PCName     string
	Meta       RequestMeta
}

// LicenseLogin authenticates by license key. The license is the unit of
// entitlement; a user row is provisioned on first use to carry session and
// audit state, and the license is claimed by exactly one such user.
func (s *AuthService) LicenseLogin(ctx context.Context, in LicenseLoginInput) (*Session, error) {
	app, err := s.resolveApp(ctx, in.AppSecret)
	if err != nil {
		return nil, err
	}

	lic, err := s.licenses.GetActiveByKey(ctx, in.LicenseKey, app.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrLicenseNotFound
		}
		return nil, fmt.Errorf("looking up license: %w", err)
	}
	if lic.Expired(s.now()) {
		return nil, ErrLicenseExpired
	}

	// Load the bound user before touching the HWID slot: a banned account
	// must not be able to consume a license's first bind.
	var user *domain.User
	if lic.UserID != nil {
		user, err = s.users.GetByID(ctx, *lic.UserID, app.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("loading license user: %w", err)
		}
		if user != nil && user.Banned {
			return nil, banErr(user.BanReason)
		}
	}

	if in.HWID != "" {
		if err := s.bindLicenseHWID(ctx, lic, in.HWID); err != nil {
			return nil, err
		}
	}

	if user != nil {
		s.refreshLicenseUser(ctx, user, in)
	} else {
		user, err = s.provisionLicenseUser(ctx, app, lic, in)
		if err != nil {
			return nil, err
		}
	}

	session, err := s.issue(app, user)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &domain.AuthEvent{
		AppID:     app.ID,
		Kind:      domain.EventLicenseLogin,
		UserID:    &user.ID,
		IP:        in.Meta.IP,
		UserAgent: in.Meta.UserAgent,
		Details:   fmt.Sprintf("license login: %s", lic.Key),
	})

	return session, nil
}

// Validate re-checks the subscription of an already-authenticated user: a
// token can outlive the subscription it was issued under.
func (s *AuthService) Validate(ctx context.Context, user *domain.User) error {
	s.audit.Record(ctx, &domain.AuthEvent{AppID: user.AppID, Kind: domain.EventValidate, UserID: &user.ID})
	if user.SubscriptionExpired(s.now()) {
		return ErrSubscriptionExpired
	}
	return nil
}

// Logout is stateless on the server; it only leaves an audit trail.
func (s *AuthService) Logout(ctx context.Context, user *domain.User) {
	s.audit.Record(ctx, &domain.AuthEvent{
		AppID:   user.AppID,
		Kind:    domain.EventLogout,
		UserID:  &user.ID,
		Details: fmt.Sprintf("user %s logged out", user.Username),
	})
}

// InitResult is the client handshake response.
type InitResult struct {
	Version        string `json:"version"`
	UpdateRequired bool   `json:"update_required"`
}

// Init is the client's startup handshake: it resolves the tenant and tells
// the client whether it must update before authenticating.
func (s *AuthService) Init(ctx context.Context, appSecret string) (*InitResult, error) {
	app, err := s.resolveApp(ctx, appSecret)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, &domain.AuthEvent{AppID: app.ID, Kind: domain.EventInit})
	return &InitResult{Version: app.Version, UpdateRequired: app.ForceUpdate}, nil
}

func (s *AuthService) resolveApp(ctx context.Context, secret string) (*domain.App, error) {
	app, err := s.apps.GetBySecret(ctx, secret)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAppNotFound
		}
		return nil, fmt.Errorf("resolving app: %w", err)
	}
	return app, nil
}

// bindUserHWID enforces first-bind-wins on the user's hardware id. The
// atomic update-if-unset resolves concurrent first binds; the loser re-reads
// and is rejected on mismatch.
func (s *AuthService) bindUserHWID(ctx context.Context, user *domain.User, hwid string) error {
	hash := auth.HashHWID(hwid)

	if user.HWID == "" {
		bound, err := s.users.BindHWIDIfUnset(ctx, user.ID, hash)
		if err != nil {
			return fmt.Errorf("binding hwid: %w", err)
		}
		if bound {
			user.HWID = hash
			return nil
		}
		current, err := s.users.GetByID(ctx, user.ID, user.AppID)
		if err != nil {
			return fmt.Errorf("re-reading user: %w", err)
		}
		user.HWID = current.HWID
	}

	if user.HWID != hash {
		return ErrHWIDMismatch
	}
	return nil
}

// bindLicenseHWID applies the three-step binding policy to the license:
// fresh licenses bind the supplied value, hash-bound licenses reject on
// mismatch, and raw-only legacy rows get their hash backfilled from the
// stored raw value without rejecting the request that triggered it.
func (s *AuthService) bindLicenseHWID(ctx context.Context, lic *domain.License, hwid string) error {
	raw := auth.NormalizeHWID(hwid)
	hash := auth.HashHWID(hwid)

	switch {
	case lic.HWIDHash != "":
		if lic.HWIDHash != hash {
			return ErrHWIDMismatch
		}

	case lic.HWID != "":
		backfill := auth.HashHWID(lic.HWID)
		if err := s.licenses.SetHWIDHash(ctx, lic.ID, backfill); err != nil {
			return fmt.Errorf("backfilling hwid hash: %w", err)
		}
		lic.HWIDHash = backfill

	default:
		bound, err := s.licenses.BindHWIDIfUnset(ctx, lic.ID, raw, hash, s.now())
		if err != nil {
			return fmt.Errorf("binding license hwid: %w", err)
		}
		if bound {
			lic.HWID = raw
			lic.HWIDHash = hash
			return nil
		}
		current, err := s.licenses.GetActiveByKey(ctx, lic.Key, lic.AppID)
		if err != nil {
			return fmt.Errorf("re-reading license: %w", err)
		}
		lic.HWID = current.HWID
		lic.HWIDHash = current.HWIDHash
		if lic.HWIDHash != hash {
			return ErrHWIDMismatch
		}
	}
	return nil
}

// refreshLicenseUser updates mutable presentation fields on an existing
// license-bound user. Renames via the client label are only honored while
// the account still carries its generated placeholder name, so a license
// holder cannot rename an established account on every login.
func (s *AuthService) refreshLicenseUser(ctx context.Context, user *domain.User, in LicenseLoginInput) {
	username := ""
	if in.Username != "" && in.Username != user.Username && strings.HasPrefix(user.Username, "license_") {
		username = in.Username
	}
	if username != "" || (in.PCName != "" && in.PCName != user.PCName) {
		if err := s.users.UpdateProfile(ctx, user.ID, username, in.PCName); err != nil {
			s.logger.Warn("profile refresh failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		} else if username != "" {
			user.Username = username
		}
	}
	if err := s.users.RecordLogin(ctx, user.ID, in.Meta.IP, s.now()); err != nil {
		s.logger.Warn("login stamp failed", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}

// provisionLicenseUser synthesizes the user row that carries session state
// for an unclaimed license.
func (s *AuthService) provisionLicenseUser(ctx context.Context, app *domain.App, lic *domain.License, in LicenseLoginInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = fallbackUsername(lic.Key)
	}

	user := &domain.User{
		AppID:        app.ID,
		Username:     username,
		Subscription: "Premium",
		ExpiresAt:    lic.ExpiresAt,
		LicenseKey:   lic.Key,
		PCName:       in.PCName,
		LastIP:       in.Meta.IP,
	}
	if in.HWID != "" {
		user.HWID = auth.HashHWID(in.HWID)
	}

	err := s.users.Create(ctx, user)
	if errors.Is(err, store.ErrConflict) && username != fallbackUsername(lic.Key) {
		// Client label collided with an existing account; fall back to the
		// key-derived placeholder.
		user.Username = fallbackUsername(lic.Key)
		err = s.users.Create(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("creating license user: %w", err)
	}

	if _, err := s.licenses.BindUserIfUnset(ctx, lic.ID, user.ID); err != nil {
		return nil, fmt.Errorf("claiming license: %w", err)
	}
	return user, nil
}

func (s *AuthService) issue(app *domain.App, user *domain.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(app.ID, user.ID, auth.SubjectUser)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

// notify fires the tenant webhook without blocking or failing the flow.
func (s *AuthService) notify(app *domain.App, event string, payload map[string]any) {
	if app.WebhookURL == "" || s.webhooks == nil {
		return
	}
	go s.webhooks.Notify(context.Background(), app.WebhookURL, event, payload)
}

func banErr(reason string) error {
	if reason == "" {
		return ErrBanned
	}
	return fmt.Errorf("%w: %s", ErrBanned, reason)
}

// licenseHWIDHash returns the effective bound hash, deriving it from the raw
// legacy value when the hash column was never backfilled.
func licenseHWIDHash(l *domain.License) string {
	if l.HWIDHash != "" {
		return l.HWIDHash
	}
	if l.HWID != "" {
		return auth.HashHWID(l.HWID)
	}
	return ""
}

func fallbackUsername(licenseKey string) string {
	key := licenseKey
	if len(key) > 8 {
		key = key[:8]
	}
	return "license_" + key
}
