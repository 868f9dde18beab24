package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("Secret123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}
	if !VerifyPassword("Secret123", hash) {
		t.Fatal("correct password must verify")
	}
	if VerifyPassword("Secret124", hash) {
		t.Fatal("wrong password must not verify")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h1, err := HashPassword("same")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashPassword("same")
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyPassword_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"empty hash", ""},
		{"not phc", "plaintext"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{"bad params", "$argon2id$v=19$m=abc$c2FsdA$aGFzaA"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA"},
		{"truncated", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if VerifyPassword("anything", tc.encoded) {
				t.Fatalf("must not verify against %q", tc.encoded)
			}
		})
	}
}
