package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/verisense/internal/huggingface"
)

const defaultHFSummaryModel = "sshleifer/distilbart-cnn-6-6"

// HuggingFaceProvider runs an abstractive summarization model on the Inference API
type HuggingFaceProvider struct {
	client *huggingface.Client
	model  string
}

type hfSummary struct {
	SummaryText string `json:"summary_text"`
}

// NewHuggingFaceProvider creates a provider for the hosted summarization pipeline
func NewHuggingFaceProvider(config Config) (*HuggingFaceProvider, error) {
	model := config.Model
	if model == "" {
		model = defaultHFSummaryModel
	}
	timeout := time.Duration(config.Timeout) * time.Second
	return &HuggingFaceProvider{
		client: huggingface.NewClient(config.BaseURL, config.APIKey, timeout),
		model:  model,
	}, nil
}

// Name returns the provider name
func (p *HuggingFaceProvider) Name() string {
	return "huggingface"
}

// IsAvailable reports whether the endpoint is configured. Model loading is
// handled by wait_for_model on the first request.
func (p *HuggingFaceProvider) IsAvailable(context.Context) bool {
	return p.client.BaseURL != ""
}

// Summarize calls the summarization pipeline with greedy decoding
func (p *HuggingFaceProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	params := map[string]any{"do_sample": false}
	if req.MaxLength > 0 {
		params["max_length"] = req.MaxLength
	}
	if req.MinLength > 0 {
		params["min_length"] = req.MinLength
	}

	var out []hfSummary
	err := p.client.Infer(ctx, model, huggingface.Request{Inputs: req.Text, Parameters: params}, &out)
	if err != nil {
		return nil, fmt.Errorf("summarization request failed: %w", err)
	}
	if len(out) == 0 || strings.TrimSpace(out[0].SummaryText) == "" {
		return nil, fmt.Errorf("empty summary from %s", model)
	}

	return &SummarizeResponse{
		Summary: strings.TrimSpace(out[0].SummaryText),
		Model:   model,
	}, nil
}

// SetSleep replaces the retry backoff sleep (used in tests)
func (p *HuggingFaceProvider) SetSleep(fn func(context.Context, time.Duration) error) {
	p.client.SetSleep(fn)
}
