package services

import (
	"errors"
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret-key")
	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

	token, expiresAt, err := BuildSessionToken(secret, "user-1", time.Hour, now)
	if err != nil {
		t.Fatalf("build session token: %v", err)
	}
	if !expiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %s", expiresAt)
	}

	claims, err := ParseSessionToken(secret, token, now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("parse session token: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("expected user-1, got %q", claims.UserID)
	}
}

func TestParseSessionTokenFailures(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret-key")
	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	token, _, err := BuildSessionToken(secret, "user-1", time.Hour, now)
	if err != nil {
		t.Fatalf("build session token: %v", err)
	}

	tests := []struct {
		name   string
		secret []byte
		token  string
		at     time.Time
		want   error
	}{
		{name: "missing", secret: secret, token: " ", at: now, want: ErrSessionTokenMissing},
		{name: "wrong secret", secret: []byte("other"), token: token, at: now, want: ErrSessionTokenInvalid},
		{name: "garbage", secret: secret, token: "not-a-token", at: now, want: ErrSessionTokenInvalid},
		{name: "expired", secret: secret, token: token, at: now.Add(2 * time.Hour), want: ErrSessionTokenExpired},
	}

	for _, tt := range tests {
		if _, err := ParseSessionToken(tt.secret, tt.token, tt.at); !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}
