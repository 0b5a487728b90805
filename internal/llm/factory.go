package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates a summarization provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch {
	case isHuggingFace(provider):
		return NewHuggingFaceProvider(config)

	case provider == "openai":
		return NewOpenAIProvider(config)

	case provider == "anthropic" || provider == "claude":
		return NewAnthropicProvider(config)

	case provider == "ollama":
		return NewOllamaProvider(config)

	case provider == "" || provider == "none":
		// No provider configured - return nil (summaries disabled)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown summarizer provider: %s (supported: huggingface, openai, anthropic, ollama)", config.Provider)
	}
}

func isHuggingFace(provider string) bool {
	switch strings.ToLower(provider) {
	case "huggingface", "hf":
		return true
	}
	return false
}
