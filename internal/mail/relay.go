package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
)

const resendEndpoint = "https://api.resend.com/emails"

// RelayConfig selects and configures the delivery path.
type RelayConfig struct {
	FromEmail    string
	ResendAPIKey string

	SMTPEnabled bool
	SMTPHost    string
	SMTPPort    string
	SMTPUser    string
	SMTPPass    string
}

// Relay sends templated mail over Resend, or SMTP when enabled.
type Relay struct {
	cfg    RelayConfig
	client *http.Client
}

var _ Mailer = (*Relay)(nil)

// NewRelay constructs a relay. client may be nil, in which case
// http.DefaultClient is used.
func NewRelay(cfg RelayConfig, client *http.Client) *Relay {
	if client == nil {
		client = http.DefaultClient
	}
	return &Relay{cfg: cfg, client: client}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html"`
}

// SendPasswordReset delivers the reset link. The raw token inside resetURL is
// the only copy that ever leaves the system.
func (m *Relay) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	subject := "Password Reset Request"
	text := fmt.Sprintf(`You are receiving this email because you (or someone else) have requested to reset the password for your account.

Please click on the following link to reset your password:
%s

If you did not request this, please ignore this email and your password will remain unchanged.`, resetURL)
	html := fmt.Sprintf(`<p>You are receiving this email because you (or someone else) have requested to reset the password for your account.</p>
<p>Please click on the following link to reset your password:</p>
<p><a href="%s">%s</a></p>
<p>If you did not request this, please ignore this email and your password will remain unchanged.</p>`, resetURL, resetURL)

	if m.cfg.SMTPEnabled {
		return m.sendViaSMTP(to, subject, html)
	}
	return m.sendViaResend(ctx, to, subject, text, html)
}

func (m *Relay) sendViaResend(ctx context.Context, to, subject, text, html string) error {
	body := resendRequest{
		From:    m.cfg.FromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    text,
		HTML:    html,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.ResendAPIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("resend API error: status %d", resp.StatusCode)
	}
	return nil
}

func (m *Relay) sendViaSMTP(to, subject, html string) error {
	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort

	msg := "From: " + m.cfg.FromEmail + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		html

	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.FromEmail, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
