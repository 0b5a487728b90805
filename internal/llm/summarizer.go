// Package llm produces article summaries through hosted or local language models.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/verisense/internal/model"
)

// Unavailable is the summary text used when no summary could be produced
const Unavailable = "Summary unavailable."

// Summarizer applies input limits around a Provider
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer for the configured provider.
// An empty provider disables summarization.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create summarizer provider: %w", err)
	}
	return NewSummarizerWithProvider(provider, config), nil
}

// NewSummarizerWithProvider wraps an existing provider
func NewSummarizerWithProvider(provider Provider, config Config) *Summarizer {
	defaults := DefaultConfig()
	if config.MaxLength <= 0 {
		config.MaxLength = defaults.MaxLength
	}
	if config.MinLength <= 0 {
		config.MinLength = defaults.MinLength
	}
	if config.MaxInputChars <= 0 {
		config.MaxInputChars = defaults.MaxInputChars
	}
	if config.MinWords <= 0 {
		config.MinWords = defaults.MinWords
	}
	return &Summarizer{provider: provider, config: config}
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the provider name, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// CheckAvailability probes the provider once, typically at startup
func (s *Summarizer) CheckAvailability(ctx context.Context) bool {
	if !s.IsEnabled() {
		return false
	}
	ok := s.provider.IsAvailable(ctx)
	if !ok {
		slog.Warn("[Summarizer] Provider not available; summaries will fall back",
			slog.String("provider", s.provider.Name()))
	}
	return ok
}

// Summarize returns a summary of text. Texts shorter than the word minimum
// are returned unchanged. On provider failure the returned summary carries
// the Unavailable text together with the error.
func (s *Summarizer) Summarize(ctx context.Context, text string) (model.Summary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Summary{Text: Unavailable}, nil
	}

	if len(strings.Fields(text)) < s.config.MinWords {
		return model.Summary{Text: text}, nil
	}

	if !s.IsEnabled() {
		return model.Summary{Text: Unavailable}, nil
	}

	req := SummarizeRequest{
		Text:      truncateRunes(text, s.config.MaxInputChars),
		MaxLength: s.config.MaxLength,
		MinLength: s.config.MinLength,
	}

	slog.Debug("[Summarizer] Generating summary",
		slog.String("provider", s.provider.Name()),
		slog.Int("input_chars", len(req.Text)))

	resp, err := s.provider.Summarize(ctx, req)
	fallback := model.Summary{Text: Unavailable, Provider: s.provider.Name()}
	if err != nil {
		slog.Error("[Summarizer] Summarization error",
			slog.String("provider", s.provider.Name()),
			slog.String("error", err.Error()))
		return fallback, fmt.Errorf("summarization failed: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Summary) == "" {
		return fallback, fmt.Errorf("summarization failed: empty summary from %s", s.provider.Name())
	}

	return model.Summary{
		Text:      strings.TrimSpace(resp.Summary),
		Provider:  s.provider.Name(),
		Model:     resp.Model,
		Generated: true,
	}, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
