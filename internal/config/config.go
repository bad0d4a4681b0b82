// Package config centralizes environment-driven settings for the API binary
// so that business packages receive values instead of reading the process
// environment themselves.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds runtime settings for the taskdeck server.
//
// Fields:
//   - Addr: HTTP bind address.
//   - PGDSN: PostgreSQL DSN (pgx); empty selects the in-memory stores.
//   - TokenSecret: HMAC secret for signing session JWTs (HS256).
//   - SessionTTL: session token lifetime.
//   - ResetBaseURL: frontend origin for password-reset links; the
//     /reset-password/{token} path is appended.
type Config struct {
	Addr         string
	PGDSN        string
	TokenSecret  string
	SessionTTL   time.Duration
	CookieSecure bool
	DevMode      bool
	ResetBaseURL string

	MaxBodyBytes  int64
	RateBurst     int
	RatePerSecond int

	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3PublicBaseURL string

	MailFrom     string
	ResendAPIKey string
	SMTPEnabled  bool
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPass     string
}

// FromEnv builds a Config from TASKDECK_* environment variables with
// development defaults. The defaults are insecure and must be overridden in
// production.
func FromEnv() Config {
	return Config{
		Addr:         getenv("TASKDECK_ADDR", ":8080"),
		PGDSN:        os.Getenv("TASKDECK_PG_DSN"),
		TokenSecret:  getenv("TASKDECK_TOKEN_SECRET", "dev-secret-change-me"),
		SessionTTL:   getduration("TASKDECK_SESSION_TTL", 15*24*time.Hour),
		CookieSecure: getbool("TASKDECK_COOKIE_SECURE", false),
		DevMode:      getbool("TASKDECK_DEV_MODE", false),
		ResetBaseURL: getenv("TASKDECK_RESET_BASE_URL", "http://localhost:3000"),

		MaxBodyBytes:  getint64("TASKDECK_MAX_BODY_BYTES", 10<<20),
		RateBurst:     getint("TASKDECK_RATE_BURST", 50),
		RatePerSecond: getint("TASKDECK_RATE_PER_SECOND", 25),

		S3Region:        getenv("TASKDECK_S3_REGION", "us-east-1"),
		S3Endpoint:      os.Getenv("TASKDECK_S3_ENDPOINT"),
		S3AccessKey:     os.Getenv("TASKDECK_S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("TASKDECK_S3_SECRET_KEY"),
		S3Bucket:        os.Getenv("TASKDECK_S3_BUCKET"),
		S3PublicBaseURL: os.Getenv("TASKDECK_S3_PUBLIC_BASE_URL"),

		MailFrom:     getenv("TASKDECK_MAIL_FROM", "no-reply@taskdeck.org"),
		ResendAPIKey: os.Getenv("TASKDECK_RESEND_API_KEY"),
		SMTPEnabled:  getbool("TASKDECK_SMTP_ENABLED", false),
		SMTPHost:     os.Getenv("TASKDECK_SMTP_HOST"),
		SMTPPort:     getenv("TASKDECK_SMTP_PORT", "587"),
		SMTPUser:     os.Getenv("TASKDECK_SMTP_USER"),
		SMTPPass:     os.Getenv("TASKDECK_SMTP_PASS"),
	}
}

// MediaConfigured reports whether enough S3 settings are present to build the
// object store.
func (c Config) MediaConfigured() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// MailConfigured reports whether a real delivery path is configured.
func (c Config) MailConfigured() bool {
	return c.ResendAPIKey != "" || (c.SMTPEnabled && c.SMTPHost != "")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getint64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
