package domain

import (
	"testing"
	"time"
)

func TestUserSubscriptionExpired(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"no expiry", nil, false},
		{"future expiry", &future, false},
		{"past expiry", &past, true},
		{"exactly now", &now, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := &User{ExpiresAt: tc.expiresAt}
			if got := u.SubscriptionExpired(now); got != tc.want {
				t.Errorf("SubscriptionExpired = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLicenseExpired(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	if (&License{}).Expired(now) {
		t.Error("license without expiry must never expire")
	}
	if (&License{ExpiresAt: &future}).Expired(now) {
		t.Error("future expiry is not expired")
	}
	if !(&License{ExpiresAt: &past, Active: true}).Expired(now) {
		t.Error("expiry wins over the active flag")
	}
	if !(&License{ExpiresAt: &now}).Expired(now) {
		t.Error("expiry boundary counts as expired")
	}
}
