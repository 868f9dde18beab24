package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/faerion/keygate/internal/auth"
	"github.com/faerion/keygate/internal/domain"
	"github.com/faerion/keygate/internal/store"
	"github.com/google/uuid"
)

type stubUserStore struct {
	user *domain.User
}

func (s *stubUserStore) Create(ctx context.Context, u *domain.User) error { return nil }

func (s *stubUserStore) GetByID(ctx context.Context, id, appID uuid.UUID) (*domain.User, error) {
	if s.user != nil && s.user.ID == id && s.user.AppID == appID {
		return s.user, nil
	}
	return nil, store.ErrNotFound
}

func (s *stubUserStore) GetByUsername(ctx context.Context, username string, appID uuid.UUID) (*domain.User, error) {
	return nil, store.ErrNotFound
}

func (s *stubUserStore) BindHWIDIfUnset(ctx context.Context, id uuid.UUID, hwidHash string) (bool, error) {
	return false, nil
}

func (s *stubUserStore) RecordLogin(ctx context.Context, id uuid.UUID, ip string, at time.Time) error {
	return nil
}

func (s *stubUserStore) UpdateProfile(ctx context.Context, id uuid.UUID, username, pcName string) error {
	return nil
}

func newSessionAuthFixture(t *testing.T) (*auth.TokenIssuer, *stubUserStore, http.Handler, *domain.User) {
	t.Helper()

	tokens := auth.NewTokenIssuer("test-secret", time.Hour, time.Hour)
	user := &domain.User{ID: uuid.New(), AppID: uuid.New(), Username: "alice"}
	users := &stubUserStore{user: user}

	handler := SessionAuth(tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			t.Error("expected user in request context")
		}
		if ClaimsFromContext(r.Context()) == nil {
			t.Error("expected claims in request context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	return tokens, users, handler, user
}

func doAuth(handler http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/validate", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSessionAuth_ValidToken(t *testing.T) {
	tokens, _, handler, user := newSessionAuthFixture(t)

	token, _, err := tokens.Issue(user.AppID, user.ID, auth.SubjectUser)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if rec := doAuth(handler, "Bearer "+token); rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestSessionAuth_MissingAndMalformedHeaders(t *testing.T) {
	_, _, handler, _ := newSessionAuthFixture(t)

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer not-a-token"} {
		if rec := doAuth(handler, header); rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: got %d, want 401", header, rec.Code)
		}
	}
}

func TestSessionAuth_ExpiredToken(t *testing.T) {
	expired := auth.NewTokenIssuer("test-secret", -time.Hour, time.Hour)
	_, _, handler, user := newSessionAuthFixture(t)

	token, _, err := expired.Issue(user.AppID, user.ID, auth.SubjectUser)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	rec := doAuth(handler, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "TOKEN_EXPIRED") {
		t.Fatalf("expected TOKEN_EXPIRED code in %s", body)
	}
}

func TestSessionAuth_AdminTokenRefused(t *testing.T) {
	tokens, _, handler, user := newSessionAuthFixture(t)

	token, _, err := tokens.Issue(user.AppID, user.ID, auth.SubjectAdmin)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if rec := doAuth(handler, "Bearer "+token); rec.Code != http.StatusForbidden {
		t.Fatalf("got %d, want 403", rec.Code)
	}
}

func TestSessionAuth_UnknownSubject(t *testing.T) {
	tokens, _, handler, user := newSessionAuthFixture(t)

	// Token for a user the store no longer knows.
	token, _, err := tokens.Issue(user.AppID, uuid.New(), auth.SubjectUser)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if rec := doAuth(handler, "Bearer "+token); rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", rec.Code)
	}
}
