package classify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/onnx"
)

// ONNXClassifier runs a local text-classification pipeline
type ONNXClassifier struct {
	pipeline *pipelines.TextClassificationPipeline
	model    string
	mapper   LabelMapper
	maxChars int

	// the pipeline is not safe for concurrent use
	mu sync.Mutex
}

// NewONNXClassifier loads (downloading if needed) the configured model
func NewONNXClassifier(cfg model.ClassifierConfig, cacheDir string) (*ONNXClassifier, error) {
	name := cfg.ResolvedModel()
	path, err := onnx.EnsureModel(name, cfg.ModelPath, cacheDir)
	if err != nil {
		return nil, err
	}

	session, err := onnx.AcquireSession()
	if err != nil {
		return nil, err
	}

	pipeline, err := hugot.NewPipeline(session, hugot.TextClassificationConfig{
		ModelPath: path,
		Name:      "verisenseClassifier",
	})
	if err != nil {
		onnx.ReleaseSession()
		return nil, fmt.Errorf("failed to initialize classification pipeline: %w", err)
	}

	return &ONNXClassifier{
		pipeline: pipeline,
		model:    name,
		mapper:   NewLabelMapper(cfg.FakeLabels, cfg.RealLabels),
		maxChars: cfg.MaxChars,
	}, nil
}

// Name returns the backend/model identifier
func (c *ONNXClassifier) Name() string {
	return "onnx:" + c.model
}

// Classify runs the local pipeline
func (c *ONNXClassifier) Classify(ctx context.Context, text string) (model.Prediction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Prediction{}, ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return model.Prediction{}, err
	}

	c.mu.Lock()
	output, err := c.pipeline.RunPipeline([]string{Truncate(text, c.maxChars)})
	c.mu.Unlock()
	if err != nil {
		return model.Prediction{}, fmt.Errorf("classification pipeline: %w", err)
	}
	if len(output.ClassificationOutputs) == 0 {
		return model.Prediction{}, fmt.Errorf("empty classification output")
	}

	var scores []LabelScore
	for _, out := range output.ClassificationOutputs[0] {
		scores = append(scores, LabelScore{Label: out.Label, Score: float64(out.Score)})
	}
	return c.mapper.Predict(scores, c.model)
}

// Close releases the shared session reference
func (c *ONNXClassifier) Close() error {
	onnx.ReleaseSession()
	return nil
}
