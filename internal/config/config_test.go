package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.Addr != ":8080" {
		t.Fatalf("addr default: %q", cfg.Addr)
	}
	if cfg.SessionTTL != 15*24*time.Hour {
		t.Fatalf("session ttl default: %v", cfg.SessionTTL)
	}
	if cfg.ResetBaseURL != "http://localhost:3000" {
		t.Fatalf("reset base url default: %q", cfg.ResetBaseURL)
	}
	if cfg.MediaConfigured() {
		t.Fatal("media should not be configured by default")
	}
	if cfg.MailConfigured() {
		t.Fatal("mail should not be configured by default")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("TASKDECK_ADDR", ":9090")
	t.Setenv("TASKDECK_SESSION_TTL", "2h")
	t.Setenv("TASKDECK_COOKIE_SECURE", "true")
	t.Setenv("TASKDECK_RATE_BURST", "5")
	t.Setenv("TASKDECK_RESEND_API_KEY", "re_test")
	t.Setenv("TASKDECK_S3_BUCKET", "media")
	t.Setenv("TASKDECK_S3_ACCESS_KEY", "key")
	t.Setenv("TASKDECK_S3_SECRET_KEY", "secret")

	cfg := FromEnv()
	if cfg.Addr != ":9090" {
		t.Fatalf("addr: %q", cfg.Addr)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("session ttl: %v", cfg.SessionTTL)
	}
	if !cfg.CookieSecure {
		t.Fatal("cookie secure not applied")
	}
	if cfg.RateBurst != 5 {
		t.Fatalf("rate burst: %d", cfg.RateBurst)
	}
	if !cfg.MailConfigured() {
		t.Fatal("resend key should configure mail")
	}
	if !cfg.MediaConfigured() {
		t.Fatal("s3 triple should configure media")
	}
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("TASKDECK_SESSION_TTL", "soon")
	t.Setenv("TASKDECK_RATE_BURST", "many")
	t.Setenv("TASKDECK_DEV_MODE", "yep")

	cfg := FromEnv()
	if cfg.SessionTTL != 15*24*time.Hour {
		t.Fatalf("session ttl fallback: %v", cfg.SessionTTL)
	}
	if cfg.RateBurst != 50 {
		t.Fatalf("rate burst fallback: %d", cfg.RateBurst)
	}
	if cfg.DevMode {
		t.Fatal("dev mode fallback should be false")
	}
}
