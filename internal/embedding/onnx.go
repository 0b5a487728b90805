package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/ppiankov/verisense/internal/onnx"
)

// ONNXEngine runs a local feature-extraction pipeline
type ONNXEngine struct {
	pipeline *pipelines.FeatureExtractionPipeline
	model    string
	mu       sync.Mutex
}

// NewONNXEngine loads (downloading if needed) a sentence-transformer model
func NewONNXEngine(model, modelPath, cacheDir string) (*ONNXEngine, error) {
	if model == "" {
		model = "sentence-transformers/all-MiniLM-L6-v2"
	}

	path, err := onnx.EnsureModel(model, modelPath, cacheDir)
	if err != nil {
		return nil, err
	}

	session, err := onnx.AcquireSession()
	if err != nil {
		return nil, err
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: path,
		Name:      "verisenseEmbeddings",
	})
	if err != nil {
		onnx.ReleaseSession()
		return nil, fmt.Errorf("failed to initialize feature extraction pipeline: %w", err)
	}

	return &ONNXEngine{pipeline: pipeline, model: model}, nil
}

// Embed generates an embedding for a single text
func (e *ONNXEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch runs the pipeline over all texts
func (e *ONNXEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	output, err := e.pipeline.RunPipeline(texts)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("feature extraction pipeline: %w", err)
	}
	if len(output.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(output.Embeddings))
	}
	return output.Embeddings, nil
}

// Name returns the engine name
func (e *ONNXEngine) Name() string {
	return "onnx:" + e.model
}

// Close releases the shared session reference
func (e *ONNXEngine) Close() error {
	onnx.ReleaseSession()
	return nil
}
