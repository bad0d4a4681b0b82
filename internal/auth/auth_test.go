package auth

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "secret123" {
		t.Fatal("hash must not equal plaintext")
	}
	if err := VerifyPassword(hash, "secret123"); err != nil {
		t.Fatalf("expected match: %v", err)
	}
	if err := VerifyPassword(hash, "secret124"); err == nil {
		t.Fatal("expected mismatch for wrong password")
	}
	if err := VerifyPassword(hash, ""); err == nil {
		t.Fatal("expected mismatch for empty password")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestRandomPasswordIsUsableAndUnique(t *testing.T) {
	a, err := RandomPassword()
	if err != nil {
		t.Fatalf("RandomPassword: %v", err)
	}
	b, err := RandomPassword()
	if err != nil {
		t.Fatalf("RandomPassword: %v", err)
	}
	if a == b {
		t.Fatal("two random passwords collided")
	}
	if len(a) < 16 {
		t.Fatalf("password too short: %d", len(a))
	}
}

func TestTokenIssueAndVerify(t *testing.T) {
	codec, err := NewTokenCodec("test-secret")
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}

	token, expiresAt, err := codec.Issue("user-42", 3)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiration, got %v", expiresAt)
	}

	id, version, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id != "user-42" {
		t.Fatalf("unexpected subject: %s", id)
	}
	if version != 3 {
		t.Fatalf("unexpected version: %d", version)
	}
}

func TestTokenExpiry(t *testing.T) {
	now := time.Now()
	codec, err := NewTokenCodec("test-secret", WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}

	token, _, err := codec.Issue("user-42", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, _, err := codec.Verify(token); err != nil {
		t.Fatalf("fresh token should verify: %v", err)
	}

	now = now.Add(15*24*time.Hour + time.Minute)
	if _, _, err := codec.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestTokenRejectsTamperingAndWrongSecret(t *testing.T) {
	codec, _ := NewTokenCodec("test-secret")
	token, _, err := codec.Issue("user-42", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other, _ := NewTokenCodec("another-secret")
	if _, _, err := other.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected rejection with wrong secret, got %v", err)
	}

	parts := strings.Split(token, ".")
	forged := parts[0] + "." + parts[1] + ".AAAA"
	if _, _, err := codec.Verify(forged); err != ErrInvalidToken {
		t.Fatalf("expected rejection of forged signature, got %v", err)
	}

	for _, bad := range []string{"", "not-a-token", "a.b"} {
		if _, _, err := codec.Verify(bad); err != ErrInvalidToken {
			t.Fatalf("expected rejection of %q, got %v", bad, err)
		}
	}
}

func TestResetTokenHashing(t *testing.T) {
	now := time.Now()
	raw, stored, expiresAt, err := NewResetToken(now)
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	if raw == stored {
		t.Fatal("stored hash must differ from raw token")
	}
	if HashResetToken(raw) != stored {
		t.Fatal("hashing the raw token must reproduce the stored hash")
	}
	if got := expiresAt.Sub(now.UTC()); got != ResetTokenTTL {
		t.Fatalf("unexpected expiry window: %v", got)
	}

	raw2, stored2, _, err := NewResetToken(now)
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	if raw == raw2 || stored == stored2 {
		t.Fatal("reset tokens must be unique")
	}
}

func TestSessionContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := SessionFromContext(ctx); ok {
		t.Fatal("empty context must not carry a session")
	}
	ctx = ContextWithSession(ctx, Session{IdentityID: "user-7", Username: "alice", Admin: true})
	s, ok := SessionFromContext(ctx)
	if !ok || s.IdentityID != "user-7" || s.Username != "alice" || !s.Admin {
		t.Fatalf("unexpected session: %+v ok=%v", s, ok)
	}
}
