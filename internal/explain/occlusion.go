// Package explain attributes classifier decisions to individual words.
package explain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/verisense/internal/classify"
	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/worker"
)

// MethodOcclusion names the leave-one-word-out attribution method
const MethodOcclusion = "occlusion"

// neutralProb stands in for the prediction on an empty text
const neutralProb = 0.5

// Explainer computes occlusion attributions: each word's weight is the drop
// in real probability when that word is removed.
type Explainer struct {
	classifier classify.Classifier
	cfg        model.ExplainConfig
}

// New creates an explainer; zero config values take the defaults
func New(classifier classify.Classifier, cfg model.ExplainConfig) *Explainer {
	defaults := model.DefaultConfig().Explain
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = defaults.MaxChars
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaults.TopK
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	return &Explainer{classifier: classifier, cfg: cfg}
}

type occlusionJob struct {
	classifier classify.Classifier
	position   int
	text       string
}

type occlusionResult struct {
	position int
	realProb float64
	err      error
}

func (r occlusionResult) GetError() error { return r.err }

func (j occlusionJob) Execute(ctx context.Context) worker.Result {
	if strings.TrimSpace(j.text) == "" {
		return occlusionResult{position: j.position, realProb: neutralProb}
	}
	pred, err := j.classifier.Classify(ctx, j.text)
	if err != nil {
		return occlusionResult{position: j.position, err: err}
	}
	return occlusionResult{position: j.position, realProb: pred.RealProb}
}

// Explain classifies text once as a baseline, then once per occluded word
func (e *Explainer) Explain(ctx context.Context, text string) (*model.Explanation, error) {
	cut := classify.Truncate(strings.TrimSpace(text), e.cfg.MaxChars)
	words := strings.Fields(cut)
	if len(words) == 0 {
		return nil, classify.ErrEmptyText
	}

	truncated := len([]rune(cut)) < len([]rune(strings.TrimSpace(text)))
	if len(words) > e.cfg.MaxTokens {
		truncated = true
	}

	baseline, err := e.classifier.Classify(ctx, strings.Join(words, " "))
	if err != nil {
		return nil, fmt.Errorf("baseline classification failed: %w", err)
	}

	n := min(len(words), e.cfg.MaxTokens)
	jobs := make([]worker.Job, n)
	for i := 0; i < n; i++ {
		jobs[i] = occlusionJob{
			classifier: e.classifier,
			position:   i,
			text:       occlude(words, i),
		}
	}

	slog.Debug("[Explainer] Running occlusion",
		slog.Int("tokens", n),
		slog.Int("workers", e.cfg.Workers))

	results := worker.Run(ctx, e.cfg.Workers, jobs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := make([]model.Attribution, 0, n)
	var failures []error
	for _, r := range results {
		res := r.(occlusionResult)
		if res.err != nil {
			failures = append(failures, res.err)
			continue
		}
		tokens = append(tokens, model.Attribution{
			Token:    words[res.position],
			Position: res.position,
			Weight:   round4(baseline.RealProb - res.realProb),
		})
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("all occlusions failed: %w", errors.Join(failures...))
	}
	if len(failures) > 0 {
		slog.Warn("[Explainer] Some occlusions failed",
			slog.Int("failed", len(failures)),
			slog.Int("total", n))
	}

	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Position < tokens[j].Position })

	return &model.Explanation{
		Method:    MethodOcclusion,
		Baseline:  baseline.RealProb,
		Tokens:    tokens,
		Top:       TopK(tokens, e.cfg.TopK),
		Truncated: truncated,
	}, nil
}

// TopK returns up to k attributions ordered by absolute weight
func TopK(tokens []model.Attribution, k int) []model.Attribution {
	sorted := make([]model.Attribution, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].Weight) > math.Abs(sorted[j].Weight)
	})
	if k > 0 && len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

func occlude(words []string, skip int) string {
	var b strings.Builder
	for i, w := range words {
		if i == skip {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	return b.String()
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
