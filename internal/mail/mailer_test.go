package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/ppiankov/verisense/internal/model"
)

func configured() model.SMTPConfig {
	return model.SMTPConfig{Server: "smtp.example.com", User: "noreply@example.com", Password: "secret"}
}

func TestMailer_SimulationMode(t *testing.T) {
	tests := []struct {
		cfg  model.SMTPConfig
		desc string
		want bool
	}{
		{model.SMTPConfig{}, "Nothing configured", true},
		{model.SMTPConfig{Server: "smtp.example.com", User: "u"}, "Missing password", true},
		{configured(), "Fully configured", false},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := New(tt.cfg).Simulated(); got != tt.want {
				t.Errorf("Expected simulated=%v, got %v", tt.want, got)
			}
		})
	}
}

func TestMailer_SimulatedSendSucceeds(t *testing.T) {
	m := New(model.SMTPConfig{})
	m.send = func(context.Context, *gomail.Msg) error {
		t.Error("Expected no SMTP delivery in simulation mode")
		return nil
	}
	if err := m.SendOTP(context.Background(), "user@example.com", "123456", 5*time.Minute); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

func TestMailer_SendOTP(t *testing.T) {
	m := New(configured())

	var sent *gomail.Msg
	m.send = func(_ context.Context, msg *gomail.Msg) error {
		sent = msg
		return nil
	}

	if err := m.SendOTP(context.Background(), "user@example.com", "654321", 5*time.Minute); err != nil {
		t.Fatalf("SendOTP failed: %v", err)
	}
	if sent == nil {
		t.Fatal("Expected a message to be sent")
	}

	rcpts, err := sent.GetRecipients()
	if err != nil || len(rcpts) != 1 || rcpts[0] != "user@example.com" {
		t.Errorf("Unexpected recipients: %v, %v", rcpts, err)
	}
	if got := sent.GetGenHeader(gomail.HeaderSubject); len(got) != 1 || got[0] != subject {
		t.Errorf("Unexpected subject: %v", got)
	}
	if from := sent.GetFromString(); len(from) != 1 || !strings.Contains(from[0], "noreply@example.com") {
		t.Errorf("Expected sender to default to the SMTP user, got %v", from)
	}
}

func TestMailer_SendFailureReturnsError(t *testing.T) {
	m := New(configured())
	m.send = func(context.Context, *gomail.Msg) error {
		return errors.New("connection refused")
	}

	err := m.SendOTP(context.Background(), "user@example.com", "111111", 5*time.Minute)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Expected wrapped delivery error, got %v", err)
	}
}

func TestMailer_InvalidRecipient(t *testing.T) {
	m := New(configured())
	m.send = func(context.Context, *gomail.Msg) error { return nil }

	if err := m.SendOTP(context.Background(), "not an address", "111111", time.Minute); err == nil {
		t.Error("Expected error for invalid recipient")
	}
}

func TestBodies(t *testing.T) {
	if got := plainBody("123456", 5*time.Minute); !strings.Contains(got, "123456") || !strings.Contains(got, "5 minutes") {
		t.Errorf("Unexpected plain body: %q", got)
	}
	if got := htmlBody("123456", time.Minute); !strings.Contains(got, "123456") || !strings.Contains(got, "1 minute.") {
		t.Errorf("Unexpected html body: %q", got)
	}
}
