// Package auth implements registration, password login with emailed
// one-time codes, and JWT sessions.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/store"
)

var (
	ErrInvalidName        = errors.New("name must be at least 2 characters long")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWeakPassword       = errors.New("weak password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOTPNotFound        = errors.New("OTP not found for this email")
	ErrOTPExpired         = errors.New("OTP has expired")
	ErrOTPMismatch        = errors.New("invalid verification code")
	ErrInvalidToken       = errors.New("invalid token")
)

// Mailer delivers verification codes
type Mailer interface {
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) error
	Simulated() bool
}

// Service handles accounts and sessions
type Service struct {
	users    store.UserStore
	otps     OTPStore
	mailer   Mailer
	cfg      model.AuthConfig
	secret   []byte
	now      func() time.Time
	generate func() (string, error)
}

// NewService creates the auth service. Without a configured JWT secret a
// random one is generated and sessions do not survive a restart.
func NewService(users store.UserStore, otps OTPStore, mailer Mailer, cfg model.AuthConfig) (*Service, error) {
	defaults := model.DefaultConfig().Auth
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = defaults.SessionTimeout
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = defaults.OTPTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaults.BcryptCost
	}
	if otps == nil {
		otps = NewMemoryOTPStore()
	}

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		slog.Warn("[Auth] JWT_SECRET not set, using an ephemeral signing key")
	}

	return &Service{
		users:    users,
		otps:     otps,
		mailer:   mailer,
		cfg:      cfg,
		secret:   secret,
		now:      time.Now,
		generate: GenerateOTP,
	}, nil
}

// RegisterRequest is the sign-up form
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginResult is returned after the password check; the session is issued by VerifyOTP
type LoginResult struct {
	UserID      string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	OTPRequired bool      `json:"otp_required"`
	ExpiresAt   time.Time `json:"otp_expires_at"`
	// Set only when mail runs in simulation mode
	PreviewCode string `json:"otp_preview,omitempty"`
}

// Session is an authenticated login
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// Register validates the form and creates the account
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	if len([]rune(name)) < 2 {
		return nil, ErrInvalidName
	}
	email, err := NormalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	u := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		LastLogin:    now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.Info("[Auth] Account created", "user_id", u.ID)
	return u, nil
}

// Login checks the password and emails a one-time code
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	code, err := s.generate()
	if err != nil {
		return nil, err
	}
	entry := OTPEntry{Code: code, ExpiresAt: s.now().Add(s.cfg.OTPTTL)}
	if err := s.otps.Save(ctx, email, entry); err != nil {
		return nil, fmt.Errorf("save otp: %w", err)
	}

	result := &LoginResult{
		UserID:      u.ID,
		Name:        u.Name,
		Email:       u.Email,
		OTPRequired: true,
		ExpiresAt:   entry.ExpiresAt,
	}
	if s.mailer == nil || s.mailer.Simulated() {
		result.PreviewCode = code
	}
	if s.mailer != nil {
		if err := s.mailer.SendOTP(ctx, email, code, s.cfg.OTPTTL); err != nil {
			slog.Warn("[Auth] Verification email not delivered", "error", err)
		}
	}
	return result, nil
}

// VerifyOTP consumes the pending code and issues a session
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, ErrOTPNotFound
	}

	entry, err := s.otps.Load(ctx, email)
	if err != nil {
		return nil, err
	}
	if s.now().After(entry.ExpiresAt) {
		_ = s.otps.Delete(ctx, email)
		return nil, ErrOTPExpired
	}
	if strings.TrimSpace(code) != entry.Code {
		return nil, ErrOTPMismatch
	}
	if err := s.otps.Delete(ctx, email); err != nil {
		return nil, fmt.Errorf("consume otp: %w", err)
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := s.users.UpdateLastLogin(ctx, u.ID); err != nil {
		slog.Warn("[Auth] Failed to update last login", "user_id", u.ID, "error", err)
	}

	token, expires, err := s.IssueToken(u)
	if err != nil {
		return nil, err
	}
	slog.Info("[Auth] Session issued", "user_id", u.ID)
	return &Session{Token: token, ExpiresAt: expires, User: u}, nil
}

// NormalizeEmail validates a bare address and lowercases it
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	at := strings.LastIndex(email, "@")
	if at < 1 || !strings.Contains(email[at+1:], ".") {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(email), nil
}

// ValidatePassword requires 8 characters with an upper, a lower and a digit
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: must be at least 8 characters long", ErrWeakPassword)
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	switch {
	case !upper:
		return fmt.Errorf("%w: must contain at least one uppercase letter", ErrWeakPassword)
	case !lower:
		return fmt.Errorf("%w: must contain at least one lowercase letter", ErrWeakPassword)
	case !digit:
		return fmt.Errorf("%w: must contain at least one number", ErrWeakPassword)
	}
	return nil
}
