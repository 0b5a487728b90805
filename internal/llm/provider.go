package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/verisense/internal/model"
)

// Provider defines the interface for summarization backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize condenses the article text in the request
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for summarization
type SummarizeRequest struct {
	// Text is the article body, already truncated to the input limit
	Text string

	// MaxLength and MinLength bound the summary length in tokens
	MaxLength int
	MinLength int

	// Prompt is an optional custom prompt for chat models (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string
}

// SummarizeResponse contains the generated summary
type SummarizeResponse struct {
	Summary    string
	Model      string
	TokensUsed int
}

// Config holds summarizer provider configuration
type Config struct {
	// Provider name: "huggingface", "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic, or the HF token
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, HF router)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	MaxLength     int
	MinLength     int
	MaxInputChars int
	MinWords      int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:      "", // Disabled by default
		Timeout:       30,
		MaxLength:     150,
		MinLength:     50,
		MaxInputChars: 4000,
		MinWords:      30,
	}
}

// ConfigFromModel converts the application config into a provider config.
// The HF token doubles as the API key for the huggingface provider.
func ConfigFromModel(models model.ModelsConfig, httpCfg model.HTTPConfig) Config {
	s := models.Summarizer
	cfg := Config{
		Provider:      s.Provider,
		Model:         s.Model,
		APIKey:        s.APIKey,
		BaseURL:       s.BaseURL,
		Timeout:       s.Timeout,
		MaxLength:     s.MaxLength,
		MinLength:     s.MinLength,
		MaxInputChars: s.MaxInputChars,
		MinWords:      s.MinWords,
		HTTPProxy:     httpCfg.HTTPProxy,
		HTTPSProxy:    httpCfg.HTTPSProxy,
		NoProxy:       httpCfg.NoProxy,
	}
	if isHuggingFace(cfg.Provider) {
		if cfg.APIKey == "" {
			cfg.APIKey = models.HFToken
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = models.HFBaseURL
		}
	}
	return cfg
}

const systemPrompt = "You summarize news articles neutrally and faithfully. Never add facts, opinions or sources that are not in the article."

// BuildPrompt constructs the default chat prompt for article summarization
func BuildPrompt(text string, minLength, maxLength int) string {
	if maxLength <= 0 {
		maxLength = 150
	}
	if minLength <= 0 || minLength > maxLength {
		minLength = maxLength / 3
	}
	return fmt.Sprintf(`Summarize the following news article in plain prose.

RULES:
1. Use between %d and %d words.
2. Only restate what the article says. Do not judge whether it is true.
3. Keep names, numbers and dates exactly as written.
4. Do not use bullet points or headings.

Article:
"""
%s
"""`, minLength, maxLength, text)
}
