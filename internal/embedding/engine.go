// Package embedding turns sentences into vectors for semantic matching.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/ppiankov/verisense/internal/huggingface"
	"github.com/ppiankov/verisense/internal/model"
)

// Engine generates vector embeddings for text
type Engine interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Name identifies backend and model; cached vectors are keyed by it
	Name() string
}

// NewEngine creates the configured embedding engine
func NewEngine(cfg model.ModelsConfig) (Engine, error) {
	e := cfg.Embedding
	slog.Info("[Embedding] Creating engine",
		slog.String("backend", e.Backend),
		slog.String("model", e.Model))

	switch e.Backend {
	case "", "huggingface", "hf":
		client := huggingface.NewClient(cfg.HFBaseURL, cfg.HFToken, e.Timeout)
		return NewHuggingFaceEngine(client, e.Model), nil
	case "onnx":
		return NewONNXEngine(e.Model, e.ModelPath, cfg.CacheDir)
	case "ollama":
		return NewOllamaEngine(e.OllamaURL, e.Model, e.Timeout), nil
	case "genai":
		return NewGenAIEngine(context.Background(), e.GenAIAPIKey, e.Model, e.TaskType)
	default:
		return nil, fmt.Errorf("unsupported embedding backend: %s (supported: huggingface, onnx, ollama, genai)", e.Backend)
	}
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// Zero-magnitude vectors have similarity 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}

	var dot, aMag, bMag float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		aMag += float64(a[i]) * float64(a[i])
		bMag += float64(b[i]) * float64(b[i])
	}

	if aMag == 0 || bMag == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag)), nil
}

// SimilarityResult is one ranked corpus entry
type SimilarityResult struct {
	Index      int
	Similarity float64
}

// FindTopK ranks corpus vectors by cosine similarity to query.
// Vectors with a different dimension are skipped.
func FindTopK(query []float32, corpus [][]float32, k int) []SimilarityResult {
	if k <= 0 {
		k = 1
	}

	results := make([]SimilarityResult, 0, len(corpus))
	skipped := 0
	for i, vec := range corpus {
		sim, err := CosineSimilarity(query, vec)
		if err != nil {
			skipped++
			continue
		}
		results = append(results, SimilarityResult{Index: i, Similarity: sim})
	}

	if skipped > 0 {
		slog.Warn("[Embedding] Skipped vectors with mismatched dimensions", slog.Int("count", skipped))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}
