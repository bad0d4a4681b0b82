// Package mail delivers transactional email through the Resend HTTP API,
// with a plain SMTP fallback for self-hosted deployments.
package mail

import (
	"context"

	"taskdeck.org/internal/obs"
)

// Mailer is the outbound-email surface the account lifecycle depends on.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// LogMailer writes the reset link to the service log instead of sending it.
// Used in development when no relay is configured.
type LogMailer struct{}

var _ Mailer = LogMailer{}

func (LogMailer) SendPasswordReset(_ context.Context, to, resetURL string) error {
	obs.LogRequest(map[string]any{
		"level":     "info",
		"msg":       "password reset email (log relay)",
		"to":        to,
		"reset_url": resetURL,
	})
	return nil
}
