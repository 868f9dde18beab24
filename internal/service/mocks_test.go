package service

import (
	"context"
	"sync"
	"time"

	"github.com/faerion/keygate/internal/domain"
	"github.com/faerion/keygate/internal/store"
	"github.com/google/uuid"
)

// mockAppStore implements domain.AppStore for testing.
type mockAppStore struct {
	apps map[string]*domain.App
}

func newMockAppStore() *mockAppStore {
	return &mockAppStore{apps: make(map[string]*domain.App)}
}

func (m *mockAppStore) add(a *domain.App) *domain.App {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.apps[a.Secret] = a
	return a
}

func (m *mockAppStore) GetBySecret(ctx context.Context, secret string) (*domain.App, error) {
	a, ok := m.apps[secret]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a, nil
}

// mockUserStore implements domain.UserStore for testing.
type mockUserStore struct {
	users map[uuid.UUID]*domain.User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (m *mockUserStore) Create(ctx context.Context, u *domain.User) error {
	for _, existing := range m.users {
		if existing.Username == u.Username && existing.AppID == u.AppID {
			return store.ErrConflict
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID, appID uuid.UUID) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok || u.AppID != appID {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserStore) GetByUsername(ctx context.Context, username string, appID uuid.UUID) (*domain.User, error) {
	for _, u := range m.users {
		if u.Username == username && u.AppID == appID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockUserStore) BindHWIDIfUnset(ctx context.Context, id uuid.UUID, hwidHash string) (bool, error) {
	u, ok := m.users[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if u.HWID != "" {
		return false, nil
	}
	u.HWID = hwidHash
	return true, nil
}

func (m *mockUserStore) RecordLogin(ctx context.Context, id uuid.UUID, ip string, at time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.LastLoginAt = &at
	u.LastIP = ip
	return nil
}

func (m *mockUserStore) UpdateProfile(ctx context.Context, id uuid.UUID, username, pcName string) error {
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if username != "" {
		for _, other := range m.users {
			if other.ID != id && other.AppID == u.AppID && other.Username == username {
				return store.ErrConflict
			}
		}
		u.Username = username
	}
	if pcName != "" {
		u.PCName = pcName
	}
	return nil
}

// mockLicenseStore implements domain.LicenseStore for testing.
type mockLicenseStore struct {
	licenses map[uuid.UUID]*domain.License
}

func newMockLicenseStore() *mockLicenseStore {
	return &mockLicenseStore{licenses: make(map[uuid.UUID]*domain.License)}
}

func (m *mockLicenseStore) add(l *domain.License) *domain.License {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	m.licenses[l.ID] = l
	return l
}

func (m *mockLicenseStore) GetActiveByKey(ctx context.Context, key string, appID uuid.UUID) (*domain.License, error) {
	for _, l := range m.licenses {
		if l.Key == key && l.AppID == appID && l.Active {
			cp := *l
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockLicenseStore) BindHWIDIfUnset(ctx context.Context, id uuid.UUID, hwid, hwidHash string, at time.Time) (bool, error) {
	l, ok := m.licenses[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if l.HWID != "" || l.HWIDHash != "" {
		return false, nil
	}
	l.HWID = hwid
	l.HWIDHash = hwidHash
	l.HWIDBoundAt = &at
	return true, nil
}

func (m *mockLicenseStore) SetHWIDHash(ctx context.Context, id uuid.UUID, hwidHash string) error {
	l, ok := m.licenses[id]
	if !ok {
		return store.ErrNotFound
	}
	if l.HWIDHash == "" {
		l.HWIDHash = hwidHash
	}
	return nil
}

func (m *mockLicenseStore) BindUserIfUnset(ctx context.Context, id uuid.UUID, userID uuid.UUID) (bool, error) {
	l, ok := m.licenses[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if l.UserID != nil {
		return false, nil
	}
	l.UserID = &userID
	return true, nil
}

// mockEventStore implements domain.AuthEventStore for testing.
type mockEventStore struct {
	mu     sync.Mutex
	events []*domain.AuthEvent
}

func newMockEventStore() *mockEventStore {
	return &mockEventStore{}
}

func (m *mockEventStore) Create(ctx context.Context, e *domain.AuthEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	m.events = append(m.events, e)
	return nil
}

func (m *mockEventStore) kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Kind)
	}
	return out
}

// mockWebhookClient records notifications instead of delivering them.
type mockWebhookClient struct {
	mu     sync.Mutex
	events []string
}

func (m *mockWebhookClient) Notify(ctx context.Context, endpoint, event string, payload map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}
