// Package mail delivers one-time verification codes over SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/ppiankov/verisense/internal/model"
)

const subject = "VeriSense: Your Verification Code"

type sendFunc func(ctx context.Context, msg *gomail.Msg) error

// Mailer sends verification codes, or logs them in simulation mode
type Mailer struct {
	cfg       model.SMTPConfig
	simulated bool
	send      sendFunc
}

// New creates a mailer. Without a server, user and password it runs in simulation mode.
func New(cfg model.SMTPConfig) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}

	m := &Mailer{cfg: cfg, simulated: !cfg.Configured()}
	m.send = m.dialAndSend
	if m.simulated {
		slog.Warn("[Mail] SMTP credentials not found, running in simulation mode")
	}
	return m
}

// Simulated reports whether codes are logged instead of delivered
func (m *Mailer) Simulated() bool {
	return m.simulated
}

// SendOTP emails a verification code. On delivery failure the code is
// logged as in simulation mode and the error is returned.
func (m *Mailer) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	if m.simulated {
		m.logSimulated(to, code)
		return nil
	}

	msg, err := m.buildMessage(to, code, ttl)
	if err != nil {
		return err
	}
	if err := m.send(ctx, msg); err != nil {
		slog.Error("[Mail] Failed to send email via SMTP", "to", to, "error", err)
		m.logSimulated(to, code)
		return fmt.Errorf("send verification email: %w", err)
	}

	slog.Info("[Mail] OTP sent", "to", to)
	return nil
}

func (m *Mailer) buildMessage(to, code string, ttl time.Duration) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, plainBody(code, ttl))
	msg.AddAlternativeString(gomail.TypeTextHTML, htmlBody(code, ttl))
	return msg, nil
}

func (m *Mailer) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	client, err := gomail.NewClient(m.cfg.Server,
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.User),
		gomail.WithPassword(m.cfg.Password),
		gomail.WithTimeout(m.cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func (m *Mailer) logSimulated(to, code string) {
	slog.Warn("[Mail] Simulated email", "to", to, "subject", subject, "code", code)
}

func plainBody(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your VeriSense verification code is %s.\n\n"+
		"This code will expire in %s. If you did not request this code, please ignore this email.\n",
		code, minutes(ttl))
}

func htmlBody(code string, ttl time.Duration) string {
	return fmt.Sprintf(`<html>
<body style="font-family: sans-serif; color: #334155;">
  <div style="max-width: 600px; margin: 40px auto; padding: 20px; border: 1px solid #E2E8F0; border-radius: 8px;">
    <h2 style="color: #2563EB;">Verification Required</h2>
    <p>Use the following one-time code to sign in to VeriSense:</p>
    <div style="background-color: #F8FAFC; padding: 20px; text-align: center; border-radius: 6px;">
      <span style="font-size: 2rem; font-weight: 800; letter-spacing: 0.2em; color: #0F172A;">%s</span>
    </div>
    <p style="font-size: 0.875rem; color: #64748B;">This code will expire in %s. If you did not request this code, please ignore this email.</p>
  </div>
</body>
</html>`, code, minutes(ttl))
}

func minutes(ttl time.Duration) string {
	n := int(ttl.Round(time.Minute) / time.Minute)
	if n == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", n)
}
