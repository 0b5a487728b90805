package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ppiankov/verisense/internal/auth"
	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/pipeline"
	"github.com/ppiankov/verisense/internal/store"
)

type fakeAnalyzer struct {
	err   error
	delay time.Duration
	got   pipeline.Input
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, in pipeline.Input) (*model.AnalysisResult, error) {
	a.got = in
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.err != nil {
		return nil, a.err
	}
	return &model.AnalysisResult{
		ID:        "analysis-" + strings.ToLower(strings.Fields(in.Text + " x")[0]),
		CreatedAt: time.Now().UTC(),
		Article:   model.Article{Text: in.Text, SourceURL: in.URL, SourceType: model.SourceTypeText},
		Summary:   model.Summary{Text: "summary"},
		Score:     model.Score{Value: 72.5, Rating: model.RatingReliable},
	}, nil
}

func (a *fakeAnalyzer) Models() map[string]string { return map[string]string{"classifier": "fake"} }

func (a *fakeAnalyzer) FactCheckEnabled() bool { return false }

func newTestServer(t *testing.T, analyzer Analyzer) *Server {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })

	authCfg := model.DefaultConfig().Auth
	authCfg.JWTSecret = "test-secret"
	authCfg.BcryptCost = bcrypt.MinCost
	svc, err := auth.NewService(st, auth.NewMemoryOTPStore(), nil, authCfg)
	if err != nil {
		t.Fatal(err)
	}

	cfg := model.DefaultConfig().Server
	cfg.Mode = "test"
	cfg.AnalysisTimeout = time.Second
	cfg.MaxRequestBytes = 4096
	return New(cfg, analyzer, svc, st, 50)
}

func doJSON(t *testing.T, s *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("Failed to decode %q: %v", w.Body.String(), err)
	}
}

// signIn registers, logs in and verifies the emailed code
func signIn(t *testing.T, s *Server, email string) string {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/v1/auth/register", "", auth.RegisterRequest{
		Name: "Grace Hopper", Email: email, Password: "Compiler1952", ConfirmPassword: "Compiler1952",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 from register, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodPost, "/api/v1/auth/login", "", form{"email": email, "password": "Compiler1952"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from login, got %d: %s", w.Code, w.Body.String())
	}
	var login auth.LoginResult
	decode(t, w, &login)
	if !login.OTPRequired || len(login.PreviewCode) != 6 {
		t.Fatalf("Expected OTP preview in simulation mode, got %+v", login)
	}

	w = doJSON(t, s, http.MethodPost, "/api/v1/auth/verify", "", form{"email": email, "code": login.PreviewCode})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from verify, got %d: %s", w.Code, w.Body.String())
	}
	var session auth.Session
	decode(t, w, &session)
	if session.Token == "" {
		t.Fatal("Expected session token")
	}
	return session.Token
}

// form is a shorthand for request bodies
type form map[string]string

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{})

	w := doJSON(t, s, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body struct {
		Status           string            `json:"status"`
		Store            string            `json:"store"`
		FactCheckEnabled bool              `json:"fact_check_enabled"`
		Models           map[string]string `json:"models"`
	}
	decode(t, w, &body)
	if body.Status != "ok" || body.Store != store.BackendSQLite || body.FactCheckEnabled {
		t.Errorf("Unexpected health body: %+v", body)
	}
	if body.Models["classifier"] != "fake" {
		t.Errorf("Expected models reported, got %v", body.Models)
	}
}

func TestAuthFlowAndHistory(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	s := newTestServer(t, analyzer)
	token := signIn(t, s, "grace@example.com")

	w := doJSON(t, s, http.MethodGet, "/api/v1/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /me, got %d", w.Code)
	}
	var me model.User
	decode(t, w, &me)
	if me.Email != "grace@example.com" || me.Name != "Grace Hopper" {
		t.Errorf("Unexpected user: %+v", me)
	}

	w = doJSON(t, s, http.MethodPost, "/api/v1/analyze", token, pipeline.Input{Text: "Officials confirmed the budget.", URL: "https://apnews.com/x"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from analyze, got %d: %s", w.Code, w.Body.String())
	}
	var result model.AnalysisResult
	decode(t, w, &result)
	if result.ID != "analysis-officials" || result.Score.Value != 72.5 {
		t.Errorf("Unexpected analysis: %+v", result)
	}
	if analyzer.got.URL != "https://apnews.com/x" {
		t.Errorf("Expected URL passed to analyzer, got %+v", analyzer.got)
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/history", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from history, got %d", w.Code)
	}
	var list struct {
		Records []model.HistoryRecord `json:"records"`
		Count   int                   `json:"count"`
	}
	decode(t, w, &list)
	if list.Count != 1 || list.Records[0].ID != result.ID {
		t.Fatalf("Expected saved analysis in history, got %+v", list)
	}
	if list.Records[0].Analysis != nil {
		t.Error("Expected list entries without the full analysis")
	}
	if list.Records[0].Classification != model.RatingReliable || list.Records[0].Summary != "summary" {
		t.Errorf("Unexpected record: %+v", list.Records[0])
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/history/"+result.ID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from history item, got %d", w.Code)
	}
	var rec model.HistoryRecord
	decode(t, w, &rec)
	if rec.Analysis == nil || rec.Analysis.ID != result.ID {
		t.Errorf("Expected full analysis on the record, got %+v", rec.Analysis)
	}

	if w = doJSON(t, s, http.MethodDelete, "/api/v1/history/"+result.ID, token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204 from delete, got %d", w.Code)
	}
	if w = doJSON(t, s, http.MethodGet, "/api/v1/history/"+result.ID, token, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
	if w = doJSON(t, s, http.MethodDelete, "/api/v1/history/"+result.ID, token, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 deleting twice, got %d", w.Code)
	}
}

func TestHistoryIsScopedToOwner(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{})
	alice := signIn(t, s, "alice@example.com")
	bob := signIn(t, s, "bob@example.com")

	w := doJSON(t, s, http.MethodPost, "/api/v1/analyze", alice, pipeline.Input{Text: "Private note"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var result model.AnalysisResult
	decode(t, w, &result)

	if w = doJSON(t, s, http.MethodGet, "/api/v1/history/"+result.ID, bob, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for another user's analysis, got %d", w.Code)
	}
	if w = doJSON(t, s, http.MethodDelete, "/api/v1/history/"+result.ID, bob, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 deleting another user's analysis, got %d", w.Code)
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/history", bob, nil)
	var list struct {
		Count int `json:"count"`
	}
	decode(t, w, &list)
	if list.Count != 0 {
		t.Errorf("Expected empty history for bob, got %d", list.Count)
	}
}

func TestAuthErrors(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{})
	signIn(t, s, "taken@example.com")

	tests := []struct {
		path string
		body interface{}
		desc string
		want int
	}{
		{"/api/v1/auth/register", auth.RegisterRequest{Name: "Someone", Email: "taken@example.com", Password: "Secure123", ConfirmPassword: "Secure123"}, "Duplicate email", http.StatusConflict},
		{"/api/v1/auth/register", auth.RegisterRequest{Name: "Someone", Email: "new@example.com", Password: "weak", ConfirmPassword: "weak"}, "Weak password", http.StatusUnprocessableEntity},
		{"/api/v1/auth/register", auth.RegisterRequest{Name: "Someone", Email: "not-an-email", Password: "Secure123", ConfirmPassword: "Secure123"}, "Invalid email", http.StatusUnprocessableEntity},
		{"/api/v1/auth/login", form{"email": "taken@example.com", "password": "Wrong1234"}, "Wrong password", http.StatusUnauthorized},
		{"/api/v1/auth/login", form{"email": "taken@example.com"}, "Missing password", http.StatusBadRequest},
		{"/api/v1/auth/verify", form{"email": "nobody@example.com", "code": "123456"}, "No pending code", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, tt.path, "", tt.body)
			if w.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			var body map[string]string
			decode(t, w, &body)
			if body["err"] == "" {
				t.Errorf("Expected err field, got %s", w.Body.String())
			}
		})
	}
}

func TestSecuredRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{})

	tests := []struct {
		method string
		path   string
		token  string
		desc   string
	}{
		{http.MethodGet, "/api/v1/me", "", "No token"},
		{http.MethodPost, "/api/v1/analyze", "garbage", "Malformed token"},
		{http.MethodGet, "/api/v1/history", "", "History without token"},
		{http.MethodDelete, "/api/v1/history/x", "", "Delete without token"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if w := doJSON(t, s, tt.method, tt.path, tt.token, nil); w.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", w.Code)
			}
		})
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		analyzer *fakeAnalyzer
		desc     string
		want     int
	}{
		{&fakeAnalyzer{err: pipeline.ErrEmptyInput}, "Empty input", http.StatusUnprocessableEntity},
		{&fakeAnalyzer{err: pipeline.ErrInvalidURL}, "Invalid URL", http.StatusBadRequest},
		{&fakeAnalyzer{delay: 5 * time.Second}, "Timeout", http.StatusGatewayTimeout},
		{&fakeAnalyzer{err: context.Canceled}, "Fetch failure", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			s := newTestServer(t, tt.analyzer)
			token := signIn(t, s, "user@example.com")
			if w := doJSON(t, s, http.MethodPost, "/api/v1/analyze", token, pipeline.Input{Text: "x"}); w.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestHistoryLimitValidation(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{})
	token := signIn(t, s, "limit@example.com")

	for _, limit := range []string{"0", "-1", "abc"} {
		if w := doJSON(t, s, http.MethodGet, "/api/v1/history?limit="+limit, token, nil); w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for limit=%s, got %d", limit, w.Code)
		}
	}
	if w := doJSON(t, s, http.MethodGet, "/api/v1/history?limit=5", token, nil); w.Code != http.StatusOK {
		t.Errorf("Expected 200 for valid limit, got %d", w.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{})
	big := pipeline.Input{Text: strings.Repeat("a", 8192)}
	if w := doJSON(t, s, http.MethodPost, "/api/v1/auth/register", "", big); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", w.Code)
	}
}

func TestCORSConfig(t *testing.T) {
	if cfg := corsConfig(nil); !cfg.AllowAllOrigins || cfg.AllowCredentials {
		t.Errorf("Expected all origins without credentials, got %+v", cfg)
	}
	if cfg := corsConfig([]string{"https://a.example", "*"}); !cfg.AllowAllOrigins {
		t.Errorf("Expected wildcard to allow all origins, got %+v", cfg)
	}
	cfg := corsConfig([]string{"https://a.example"})
	if cfg.AllowAllOrigins || !cfg.AllowCredentials || len(cfg.AllowOrigins) != 1 {
		t.Errorf("Expected explicit origin with credentials, got %+v", cfg)
	}
}
