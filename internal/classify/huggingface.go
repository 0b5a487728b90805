package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/verisense/internal/huggingface"
	"github.com/ppiankov/verisense/internal/model"
)

// HuggingFaceClassifier runs text-classification on the hosted Inference API
type HuggingFaceClassifier struct {
	client   *huggingface.Client
	model    string
	mapper   LabelMapper
	maxChars int
}

// NewHuggingFaceClassifier creates a hosted classifier
func NewHuggingFaceClassifier(client *huggingface.Client, cfg model.ClassifierConfig) *HuggingFaceClassifier {
	return &HuggingFaceClassifier{
		client:   client,
		model:    cfg.ResolvedModel(),
		mapper:   NewLabelMapper(cfg.FakeLabels, cfg.RealLabels),
		maxChars: cfg.MaxChars,
	}
}

// Name returns the backend/model identifier
func (c *HuggingFaceClassifier) Name() string {
	return "huggingface:" + c.model
}

// Classify sends text to the model and maps its labels
func (c *HuggingFaceClassifier) Classify(ctx context.Context, text string) (model.Prediction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Prediction{}, ErrEmptyText
	}

	start := time.Now()
	var raw json.RawMessage
	req := huggingface.Request{
		Inputs:     Truncate(text, c.maxChars),
		Parameters: map[string]any{"top_k": 2},
	}
	if err := c.client.Infer(ctx, c.model, req, &raw); err != nil {
		return model.Prediction{}, fmt.Errorf("classify: %w", err)
	}

	scores, err := decodeLabelScores(raw)
	if err != nil {
		return model.Prediction{}, err
	}

	slog.Debug("[Classifier] Hosted classification complete",
		slog.String("model", c.model),
		slog.Duration("elapsed", time.Since(start)))

	return c.mapper.Predict(scores, c.model)
}

// decodeLabelScores accepts both [[{label,score}]] and [{label,score}]
func decodeLabelScores(raw json.RawMessage) ([]LabelScore, error) {
	var nested [][]LabelScore
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}

	var flat []LabelScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode classification output: %w", err)
	}
	if len(flat) == 0 {
		return nil, fmt.Errorf("empty classification output")
	}
	return flat, nil
}
