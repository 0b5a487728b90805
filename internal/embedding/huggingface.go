package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ppiankov/verisense/internal/huggingface"
)

// HuggingFaceEngine calls the hosted feature-extraction task
type HuggingFaceEngine struct {
	client *huggingface.Client
	model  string
}

// NewHuggingFaceEngine creates a hosted embedding engine
func NewHuggingFaceEngine(client *huggingface.Client, model string) *HuggingFaceEngine {
	if model == "" {
		model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	return &HuggingFaceEngine{client: client, model: model}
}

// Embed generates an embedding for a single text
func (e *HuggingFaceEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds all texts in one request
func (e *HuggingFaceEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := e.client.Infer(ctx, e.model, huggingface.Request{Inputs: texts}, &raw); err != nil {
		return nil, fmt.Errorf("feature extraction: %w", err)
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(raw))
	}

	out := make([][]float32, len(raw))
	for i, r := range raw {
		vec, err := decodeVector(r)
		if err != nil {
			return nil, fmt.Errorf("embedding %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// Name returns the engine name
func (e *HuggingFaceEngine) Name() string {
	return "huggingface:" + e.model
}

// decodeVector accepts a pooled sentence vector or per-token vectors,
// which are mean-pooled.
func decodeVector(raw json.RawMessage) ([]float32, error) {
	var pooled []float32
	if err := json.Unmarshal(raw, &pooled); err == nil {
		return pooled, nil
	}

	var tokens [][]float32
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	return MeanPool(tokens), nil
}

// MeanPool averages token vectors into one sentence vector
func MeanPool(tokens [][]float32) []float32 {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]float32, len(tokens[0]))
	for _, tok := range tokens {
		for i := range out {
			if i < len(tok) {
				out[i] += tok[i]
			}
		}
	}
	for i := range out {
		out[i] /= float32(len(tokens))
	}
	return out
}
