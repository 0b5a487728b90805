package auth

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/store"
)

type fakeMailer struct {
	mu        sync.Mutex
	simulated bool
	fail      bool
	codes     map[string]string
}

func (m *fakeMailer) SendOTP(_ context.Context, to, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = map[string]string{}
	}
	m.codes[to] = code
	if m.fail {
		return errors.New("smtp down")
	}
	return nil
}

func (m *fakeMailer) Simulated() bool { return m.simulated }

func (m *fakeMailer) code(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[to]
}

func newTestService(t *testing.T, mailer Mailer) (*Service, *store.SQLiteStore) {
	t.Helper()
	users, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = users.Close() })

	cfg := model.DefaultConfig().Auth
	cfg.JWTSecret = "test-secret"
	cfg.BcryptCost = bcrypt.MinCost

	svc, err := NewService(users, NewMemoryOTPStore(), mailer, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return svc, users
}

func validRequest() RegisterRequest {
	return RegisterRequest{
		Name:            "Ada Lovelace",
		Email:           "Ada@Example.com",
		Password:        "Secure123",
		ConfirmPassword: "Secure123",
	}
}

func TestService_Register(t *testing.T) {
	svc, users := newTestService(t, &fakeMailer{})

	u, err := svc.Register(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if u.Email != "ada@example.com" {
		t.Errorf("Expected normalized email, got %s", u.Email)
	}
	if u.PasswordHash == "Secure123" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("Secure123")) != nil {
		t.Error("Expected bcrypt password hash")
	}

	stored, err := users.GetUserByEmail(context.Background(), "ada@example.com")
	if err != nil || stored.ID != u.ID {
		t.Errorf("Expected user persisted, got %+v, %v", stored, err)
	}

	if _, err := svc.Register(context.Background(), validRequest()); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	svc, _ := newTestService(t, &fakeMailer{})

	tests := []struct {
		mutate  func(r *RegisterRequest)
		desc    string
		wantErr error
	}{
		{func(r *RegisterRequest) { r.Name = " A " }, "Short name", ErrInvalidName},
		{func(r *RegisterRequest) { r.Email = "not-an-email" }, "Bad email", ErrInvalidEmail},
		{func(r *RegisterRequest) { r.Email = "Ada <ada@example.com>" }, "Display name", ErrInvalidEmail},
		{func(r *RegisterRequest) { r.ConfirmPassword = "Different1" }, "Mismatch", ErrPasswordMismatch},
		{func(r *RegisterRequest) { r.Password, r.ConfirmPassword = "Sh0rt", "Sh0rt" }, "Too short", ErrWeakPassword},
		{func(r *RegisterRequest) { r.Password, r.ConfirmPassword = "alllower1", "alllower1" }, "No uppercase", ErrWeakPassword},
		{func(r *RegisterRequest) { r.Password, r.ConfirmPassword = "ALLUPPER1", "ALLUPPER1" }, "No lowercase", ErrWeakPassword},
		{func(r *RegisterRequest) { r.Password, r.ConfirmPassword = "NoDigitsHere", "NoDigitsHere" }, "No digit", ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			if _, err := svc.Register(context.Background(), req); !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestService_LoginAndVerify(t *testing.T) {
	mailer := &fakeMailer{}
	svc, users := newTestService(t, mailer)
	ctx := context.Background()

	u, err := svc.Register(ctx, validRequest())
	if err != nil {
		t.Fatal(err)
	}

	res, err := svc.Login(ctx, "ADA@example.com", "Secure123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !res.OTPRequired || res.UserID != u.ID {
		t.Errorf("Unexpected login result: %+v", res)
	}
	if res.PreviewCode != "" {
		t.Error("Expected no code preview when mail is delivered")
	}

	code := mailer.code("ada@example.com")
	if len(code) != 6 {
		t.Fatalf("Expected 6-digit code mailed, got %q", code)
	}

	session, err := svc.VerifyOTP(ctx, "ada@example.com", code)
	if err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	if session.User.ID != u.ID || session.Token == "" {
		t.Errorf("Unexpected session: %+v", session)
	}

	claims, err := svc.ParseToken(session.Token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.Subject != u.ID || claims.Email != "ada@example.com" || claims.Name != "Ada Lovelace" {
		t.Errorf("Unexpected claims: %+v", claims)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Errorf("Expected 1h session, got %v", got)
	}

	stored, _ := users.GetUserByID(ctx, u.ID)
	if stored.LastLogin.Before(u.LastLogin) {
		t.Error("Expected last login updated")
	}

	if _, err := svc.VerifyOTP(ctx, "ada@example.com", code); !errors.Is(err, ErrOTPNotFound) {
		t.Errorf("Expected code to be single use, got %v", err)
	}
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	svc, _ := newTestService(t, &fakeMailer{})
	ctx := context.Background()
	if _, err := svc.Register(ctx, validRequest()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		email    string
		password string
		desc     string
	}{
		{"ada@example.com", "Wrong1234", "Wrong password"},
		{"nobody@example.com", "Secure123", "Unknown user"},
		{"garbage", "Secure123", "Malformed email"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if _, err := svc.Login(ctx, tt.email, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestService_LoginSimulatedMailPreviewsCode(t *testing.T) {
	mailer := &fakeMailer{simulated: true}
	svc, _ := newTestService(t, mailer)
	ctx := context.Background()
	if _, err := svc.Register(ctx, validRequest()); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Login(ctx, "ada@example.com", "Secure123")
	if err != nil {
		t.Fatal(err)
	}
	if res.PreviewCode == "" || res.PreviewCode != mailer.code("ada@example.com") {
		t.Errorf("Expected preview code in simulation mode, got %q", res.PreviewCode)
	}
}

func TestService_LoginMailFailureStillIssuesCode(t *testing.T) {
	mailer := &fakeMailer{fail: true}
	svc, _ := newTestService(t, mailer)
	ctx := context.Background()
	if _, err := svc.Register(ctx, validRequest()); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(ctx, "ada@example.com", "Secure123"); err != nil {
		t.Fatalf("Expected login to proceed when delivery fails, got %v", err)
	}
	if _, err := svc.VerifyOTP(ctx, "ada@example.com", mailer.code("ada@example.com")); err != nil {
		t.Errorf("Expected code still valid, got %v", err)
	}
}

func TestService_VerifyOTPErrors(t *testing.T) {
	mailer := &fakeMailer{}
	svc, _ := newTestService(t, mailer)
	ctx := context.Background()
	if _, err := svc.Register(ctx, validRequest()); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.VerifyOTP(ctx, "ada@example.com", "123456"); !errors.Is(err, ErrOTPNotFound) {
		t.Errorf("Expected ErrOTPNotFound before login, got %v", err)
	}

	svc.generate = func() (string, error) { return "111111", nil }
	if _, err := svc.Login(ctx, "ada@example.com", "Secure123"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.VerifyOTP(ctx, "ada@example.com", "222222"); !errors.Is(err, ErrOTPMismatch) {
		t.Errorf("Expected ErrOTPMismatch, got %v", err)
	}

	start := time.Now()
	svc.now = func() time.Time { return start.Add(6 * time.Minute) }
	if _, err := svc.VerifyOTP(ctx, "ada@example.com", "111111"); !errors.Is(err, ErrOTPExpired) {
		t.Errorf("Expected ErrOTPExpired, got %v", err)
	}
	if _, err := svc.VerifyOTP(ctx, "ada@example.com", "111111"); !errors.Is(err, ErrOTPNotFound) {
		t.Errorf("Expected expired code removed, got %v", err)
	}
}

func TestService_ParseTokenRejects(t *testing.T) {
	svc, _ := newTestService(t, &fakeMailer{})
	u := &model.User{ID: "user-1", Email: "a@example.com", Name: "A"}

	token, _, err := svc.IssueToken(u)
	if err != nil {
		t.Fatal(err)
	}

	other, _ := newTestService(t, &fakeMailer{})
	other.secret = []byte("another-secret")

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		svc   *Service
		token string
		desc  string
	}{
		{other, token, "Wrong secret"},
		{svc, token[:len(token)-2], "Tampered signature"},
		{svc, none, "Unsigned token"},
		{svc, "not.a.jwt", "Garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if _, err := tt.svc.ParseToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Expected ErrInvalidToken, got %v", err)
			}
		})
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.ParseToken(token); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Errorf("Expected expired session, got %v", err)
	}
}

func TestNewService_EphemeralSecret(t *testing.T) {
	svc, err := NewService(nil, nil, nil, model.AuthConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if len(svc.secret) != 32 {
		t.Errorf("Expected random 32-byte secret, got %d bytes", len(svc.secret))
	}
	if svc.cfg.SessionTimeout != time.Hour || svc.cfg.OTPTTL != 5*time.Minute {
		t.Errorf("Expected defaults applied, got %+v", svc.cfg)
	}
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != 6 || code[0] == '0' {
			t.Fatalf("Expected 6-digit code, got %q", code)
		}
	}
}

func TestNewOTPStore_FallsBackToMemory(t *testing.T) {
	if _, ok := NewOTPStore("").(*MemoryOTPStore); !ok {
		t.Error("Expected memory store without a Redis URL")
	}
	if _, ok := NewOTPStore("redis://127.0.0.1:1/0").(*MemoryOTPStore); !ok {
		t.Error("Expected memory store when Redis is unreachable")
	}
	if _, ok := NewOTPStore("://bad").(*MemoryOTPStore); !ok {
		t.Error("Expected memory store for an invalid URL")
	}
}
