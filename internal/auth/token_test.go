package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenIssuer_IssueAndValidate(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour, 30*time.Minute)
	appID := uuid.New()
	userID := uuid.New()

	token, expiresAt, err := ti.Issue(appID, userID, SubjectUser)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	wantExp := time.Now().Add(time.Hour).Unix()
	if expiresAt < wantExp-5 || expiresAt > wantExp+5 {
		t.Fatalf("expiry %d not near %d", expiresAt, wantExp)
	}

	claims, err := ti.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.AppID != appID || claims.SubjectID != userID {
		t.Fatal("claims do not round-trip")
	}
	if claims.SubjectType != SubjectUser {
		t.Fatalf("expected user subject, got %q", claims.SubjectType)
	}
}

func TestTokenIssuer_AdminTTL(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour, 30*time.Minute)

	_, expiresAt, err := ti.Issue(uuid.New(), uuid.New(), SubjectAdmin)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	wantExp := time.Now().Add(30 * time.Minute).Unix()
	if expiresAt < wantExp-5 || expiresAt > wantExp+5 {
		t.Fatalf("admin expiry %d not near %d", expiresAt, wantExp)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour, time.Hour)

	token, _, err := ti.Issue(uuid.New(), uuid.New(), SubjectUser)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	ti.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := ti.Validate(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour, time.Hour)
	verifier := NewTokenIssuer("secret-b", time.Hour, time.Hour)

	token, _, err := issuer.Issue(uuid.New(), uuid.New(), SubjectUser)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := verifier.Validate(token); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("expected ErrTokenSignature, got %v", err)
	}
}

func TestTokenIssuer_Malformed(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour, time.Hour)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := ti.Validate(token); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("Validate(%q): expected ErrTokenMalformed, got %v", token, err)
		}
	}
}
