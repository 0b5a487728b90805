package classify

import (
	"fmt"
	"log/slog"

	"github.com/ppiankov/verisense/internal/huggingface"
	"github.com/ppiankov/verisense/internal/model"
)

// New creates the configured classifier. Switching between the base and light
// model is a matter of models.classifier.variant or models.classifier.model.
func New(cfg model.ModelsConfig) (Classifier, error) {
	c := cfg.Classifier
	slog.Info("[Classifier] Initializing",
		slog.String("backend", c.Backend),
		slog.String("model", c.ResolvedModel()))

	switch c.Backend {
	case "", "huggingface", "hf":
		client := huggingface.NewClient(cfg.HFBaseURL, cfg.HFToken, c.Timeout)
		return NewHuggingFaceClassifier(client, c), nil
	case "onnx":
		return NewONNXClassifier(c, cfg.CacheDir)
	default:
		return nil, fmt.Errorf("unsupported classifier backend: %s (supported: huggingface, onnx)", c.Backend)
	}
}
