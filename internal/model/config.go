package model

import "time"

// Classifier model variants
const (
	DefaultClassifierModel = "microsoft/deberta-v3-base"
	LightClassifierModel   = "distilbert-base-uncased"
)

// Config is the complete VeriSense configuration
type Config struct {
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Server       ServerConfig      `yaml:"server" mapstructure:"server"`
	Database     DatabaseConfig    `yaml:"database" mapstructure:"database"`
	Auth         AuthConfig        `yaml:"auth" mapstructure:"auth"`
	SMTP         SMTPConfig        `yaml:"smtp" mapstructure:"smtp"`
	FactCheck    FactCheckConfig   `yaml:"fact_check" mapstructure:"fact_check"`
	Models       ModelsConfig      `yaml:"models" mapstructure:"models"`
	Verify       VerifyConfig      `yaml:"verify" mapstructure:"verify"`
	Source       SourceConfig      `yaml:"source" mapstructure:"source"`
	Scoring      ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Explain      ExplainConfig     `yaml:"explain" mapstructure:"explain"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
	Logging      LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// HTTPConfig controls outbound article fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	Mode            string        `yaml:"mode" mapstructure:"mode"` // gin mode: debug, release, test
	AllowedOrigins  []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AnalysisTimeout time.Duration `yaml:"analysis_timeout" mapstructure:"analysis_timeout"`
	MaxRequestBytes int64         `yaml:"max_request_bytes" mapstructure:"max_request_bytes"`
}

// DatabaseConfig selects the history store
type DatabaseConfig struct {
	URI               string        `yaml:"uri" mapstructure:"uri"` // MONGODB_URI
	Name              string        `yaml:"name" mapstructure:"name"`
	UsersCollection   string        `yaml:"users_collection" mapstructure:"users_collection"`
	HistoryCollection string        `yaml:"history_collection" mapstructure:"history_collection"`
	SQLitePath        string        `yaml:"sqlite_path" mapstructure:"sqlite_path"` // local fallback store
	ConnectTimeout    time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`
	HistoryLimit      int           `yaml:"history_limit" mapstructure:"history_limit"`
}

// AuthConfig controls accounts, one-time codes and sessions
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	SessionTimeout time.Duration `yaml:"session_timeout" mapstructure:"session_timeout"`
	OTPTTL         time.Duration `yaml:"otp_ttl" mapstructure:"otp_ttl"`
	BcryptCost     int           `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost"`
	RedisURL       string        `yaml:"redis_url,omitempty" mapstructure:"redis_url"` // OTP store; in-memory when empty
}

// SMTPConfig configures outbound mail
type SMTPConfig struct {
	Server   string        `yaml:"server" mapstructure:"server"`
	Port     int           `yaml:"port" mapstructure:"port"`
	User     string        `yaml:"user" mapstructure:"user"`
	Password string        `yaml:"password" mapstructure:"password"`
	From     string        `yaml:"from,omitempty" mapstructure:"from"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Configured reports whether real delivery is possible
func (c SMTPConfig) Configured() bool {
	return c.Server != "" && c.User != "" && c.Password != ""
}

// FactCheckConfig configures the external fact-check lookup
type FactCheckConfig struct {
	APIKey            string        `yaml:"api_key" mapstructure:"api_key"` // GOOGLE_FACTCHECK_API_KEY; disabled when empty
	Endpoint          string        `yaml:"endpoint" mapstructure:"endpoint"`
	Language          string        `yaml:"language" mapstructure:"language"`
	PageSize          int           `yaml:"page_size" mapstructure:"page_size"`
	MaxQueries        int           `yaml:"max_queries" mapstructure:"max_queries"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// ModelsConfig configures all model backends
type ModelsConfig struct {
	HFToken    string           `yaml:"hf_token" mapstructure:"hf_token"`
	HFBaseURL  string           `yaml:"hf_base_url" mapstructure:"hf_base_url"`
	CacheDir   string           `yaml:"cache_dir" mapstructure:"cache_dir"` // downloaded ONNX models
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Embedding  EmbeddingConfig  `yaml:"embedding" mapstructure:"embedding"`
	Summarizer SummarizerConfig `yaml:"summarizer" mapstructure:"summarizer"`
}

// ClassifierConfig selects the fake/real classifier
type ClassifierConfig struct {
	Backend    string        `yaml:"backend" mapstructure:"backend"` // huggingface, onnx
	Variant    string        `yaml:"variant" mapstructure:"variant"` // base, light
	Model      string        `yaml:"model,omitempty" mapstructure:"model"`
	ModelPath  string        `yaml:"model_path,omitempty" mapstructure:"model_path"`
	FakeLabels []string      `yaml:"fake_labels" mapstructure:"fake_labels"`
	RealLabels []string      `yaml:"real_labels" mapstructure:"real_labels"`
	MaxChars   int           `yaml:"max_chars" mapstructure:"max_chars"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ResolvedModel returns the explicit model or the one implied by the variant
func (c ClassifierConfig) ResolvedModel() string {
	if c.Model != "" {
		return c.Model
	}
	if c.Variant == "light" {
		return LightClassifierModel
	}
	return DefaultClassifierModel
}

// EmbeddingConfig selects the sentence embedding engine
type EmbeddingConfig struct {
	Backend     string        `yaml:"backend" mapstructure:"backend"` // huggingface, onnx, ollama, genai
	Model       string        `yaml:"model" mapstructure:"model"`
	ModelPath   string        `yaml:"model_path,omitempty" mapstructure:"model_path"`
	OllamaURL   string        `yaml:"ollama_url" mapstructure:"ollama_url"`
	GenAIAPIKey string        `yaml:"genai_api_key,omitempty" mapstructure:"genai_api_key"`
	TaskType    string        `yaml:"task_type" mapstructure:"task_type"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SummarizerConfig selects the summarization provider
type SummarizerConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"` // huggingface, openai, anthropic, ollama, "" (disabled)
	Model         string `yaml:"model" mapstructure:"model"`
	APIKey        string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL       string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout       int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxLength     int    `yaml:"max_length" mapstructure:"max_length"`
	MinLength     int    `yaml:"min_length" mapstructure:"min_length"`
	MaxInputChars int    `yaml:"max_input_chars" mapstructure:"max_input_chars"`
	MinWords      int    `yaml:"min_words" mapstructure:"min_words"` // shorter texts are returned unchanged
}

// VerifyConfig controls semantic claim verification
type VerifyConfig struct {
	CorpusFile        string  `yaml:"corpus_file,omitempty" mapstructure:"corpus_file"`
	VerifiedThreshold float64 `yaml:"verified_threshold" mapstructure:"verified_threshold"`
	RelatedThreshold  float64 `yaml:"related_threshold" mapstructure:"related_threshold"`
	MaxClaims         int     `yaml:"max_claims" mapstructure:"max_claims"`
}

// SourceConfig defines domain reputation lists
type SourceConfig struct {
	TrustedDomains    []string          `yaml:"trusted_domains" mapstructure:"trusted_domains"`
	SuspiciousDomains []string          `yaml:"suspicious_domains" mapstructure:"suspicious_domains"`
	PrimaryDomains    []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains  []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	DomainMap         map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"` // explicit host -> tier
}

// ScoringConfig controls the credibility score synthesis
type ScoringConfig struct {
	Weights            WeightsConfig `yaml:"weights" mapstructure:"weights"`
	ReliableThreshold  float64       `yaml:"reliable_threshold" mapstructure:"reliable_threshold"`
	UncertainThreshold float64       `yaml:"uncertain_threshold" mapstructure:"uncertain_threshold"`
}

// WeightsConfig are the relative signal weights; they are renormalized over available signals
type WeightsConfig struct {
	Classifier float64 `yaml:"classifier" mapstructure:"classifier"`
	Semantic   float64 `yaml:"semantic" mapstructure:"semantic"`
	FactCheck  float64 `yaml:"fact_check" mapstructure:"fact_check"`
	Linguistic float64 `yaml:"linguistic" mapstructure:"linguistic"`
	Sentiment  float64 `yaml:"sentiment" mapstructure:"sentiment"`
	Source     float64 `yaml:"source" mapstructure:"source"`
	Entity     float64 `yaml:"entity" mapstructure:"entity"`
}

// ExplainConfig controls token attribution
type ExplainConfig struct {
	Enabled   bool `yaml:"enabled" mapstructure:"enabled"`
	MaxChars  int  `yaml:"max_chars" mapstructure:"max_chars"`
	MaxTokens int  `yaml:"max_tokens" mapstructure:"max_tokens"`
	TopK      int  `yaml:"top_k" mapstructure:"top_k"`
	Workers   int  `yaml:"workers" mapstructure:"workers"`
}

// CacheConfig selects the response cache
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend        string        `yaml:"backend" mapstructure:"backend"` // memory, disk, layered, valkey
	Dir            string        `yaml:"dir" mapstructure:"dir"`
	TTL            time.Duration `yaml:"ttl" mapstructure:"ttl"`
	ValkeyAddress  string        `yaml:"valkey_address,omitempty" mapstructure:"valkey_address"`
	ValkeyPassword string        `yaml:"valkey_password,omitempty" mapstructure:"valkey_password"`
}

// ConcurrencyConfig controls worker counts
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig is the per-host outbound rate limit
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls CLI report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// LoggingConfig controls the slog handler
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       10 * time.Second,
			UserAgent:     "VeriSense/1.0 (+https://github.com/ppiankov/verisense)",
			MaxBodyBytes:  2_000_000,
			MaxRetries:    3,
			RespectRobots: true,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			Mode:            "release",
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:8501"},
			AnalysisTimeout: 2 * time.Minute,
			MaxRequestBytes: 1 << 20,
		},
		Database: DatabaseConfig{
			Name:              "verisense",
			UsersCollection:   "users",
			HistoryCollection: "news_logs",
			SQLitePath:        "~/.verisense/verisense.db",
			ConnectTimeout:    5 * time.Second,
			HistoryLimit:      50,
		},
		Auth: AuthConfig{
			SessionTimeout: time.Hour,
			OTPTTL:         5 * time.Minute,
			BcryptCost:     12,
		},
		SMTP: SMTPConfig{
			Port:    587,
			Timeout: 15 * time.Second,
		},
		FactCheck: FactCheckConfig{
			Endpoint:          "https://factchecktools.googleapis.com/v1alpha1/claims:search",
			Language:          "en",
			PageSize:          3,
			MaxQueries:        3,
			Timeout:           10 * time.Second,
			RequestsPerSecond: 5,
		},
		Models: ModelsConfig{
			HFBaseURL: "https://router.huggingface.co/hf-inference/models",
			CacheDir:  "~/.verisense/models",
			Classifier: ClassifierConfig{
				Backend:    "huggingface",
				Variant:    "base",
				FakeLabels: []string{"LABEL_0", "FAKE", "fake"},
				RealLabels: []string{"LABEL_1", "REAL", "real"},
				MaxChars:   2000,
				Timeout:    30 * time.Second,
			},
			Embedding: EmbeddingConfig{
				Backend:   "huggingface",
				Model:     "sentence-transformers/all-MiniLM-L6-v2",
				OllamaURL: "http://localhost:11434",
				TaskType:  "SEMANTIC_SIMILARITY",
				Timeout:   30 * time.Second,
			},
			Summarizer: SummarizerConfig{
				Provider:      "huggingface",
				Model:         "sshleifer/distilbart-cnn-6-6",
				Timeout:       60,
				MaxLength:     150,
				MinLength:     50,
				MaxInputChars: 4000,
				MinWords:      30,
			},
		},
		Verify: VerifyConfig{
			VerifiedThreshold: 0.75,
			RelatedThreshold:  0.5,
			MaxClaims:         10,
		},
		Source: SourceConfig{
			TrustedDomains: []string{
				"reuters.com", "apnews.com", "bbc.com", "bbc.co.uk", "npr.org", "pbs.org",
				"nytimes.com", "washingtonpost.com", "wsj.com", "ft.com", "economist.com",
				"bloomberg.com", "theguardian.com", "snopes.com", "factcheck.org",
				"politifact.com", "nasa.gov", "who.int", "cdc.gov", "nih.gov", "un.org",
			},
			SuspiciousDomains: []string{
				"theonion.com", "babylonbee.com", "infowars.com", "naturalnews.com",
				"zerohedge.com", "breitbart.com", "sputniknews.com", "rt.com",
				"dailymail.co.uk", "newspunch.com", "beforeitsnews.com",
			},
			PrimaryDomains: []string{
				"reuters.com", "apnews.com", "who.int", "un.org", "nasa.gov", "cdc.gov", "nih.gov",
			},
			SecondaryDomains: []string{
				"bbc.com", "bbc.co.uk", "npr.org", "pbs.org", "nytimes.com", "washingtonpost.com",
				"wsj.com", "ft.com", "economist.com", "bloomberg.com", "theguardian.com",
				"snopes.com", "factcheck.org", "politifact.com",
			},
		},
		Scoring: ScoringConfig{
			Weights: WeightsConfig{
				Classifier: 0.40,
				Semantic:   0.15,
				FactCheck:  0.10,
				Linguistic: 0.10,
				Sentiment:  0.05,
				Source:     0.10,
				Entity:     0.10,
			},
			ReliableThreshold:  70,
			UncertainThreshold: 40,
		},
		Explain: ExplainConfig{
			Enabled:   true,
			MaxChars:  1000,
			MaxTokens: 64,
			TopK:      10,
			Workers:   4,
		},
		Cache: CacheConfig{
			Enabled: true,
			Backend: "layered",
			Dir:     "~/.verisense/cache",
			TTL:     24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Redacted returns a copy with secrets masked, for display
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Database.URI = mask(c.Database.URI)
	c.Auth.JWTSecret = mask(c.Auth.JWTSecret)
	c.Auth.RedisURL = mask(c.Auth.RedisURL)
	c.SMTP.Password = mask(c.SMTP.Password)
	c.FactCheck.APIKey = mask(c.FactCheck.APIKey)
	c.Models.HFToken = mask(c.Models.HFToken)
	c.Models.Embedding.GenAIAPIKey = mask(c.Models.Embedding.GenAIAPIKey)
	c.Models.Summarizer.APIKey = mask(c.Models.Summarizer.APIKey)
	c.Cache.ValkeyPassword = mask(c.Cache.ValkeyPassword)
	return c
}
