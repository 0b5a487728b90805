// Package verify checks claims, sources and entities against trusted references.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ppiankov/verisense/internal/cache"
	"github.com/ppiankov/verisense/internal/embedding"
	"github.com/ppiankov/verisense/internal/model"
)

// SemanticVerifier matches claims against the reference corpus by embedding similarity
type SemanticVerifier struct {
	engine            embedding.Engine
	cache             cache.Cache
	statements        []Statement
	verifiedThreshold float64
	relatedThreshold  float64

	mu         sync.Mutex
	corpusVecs [][]float32
}

// NewSemanticVerifier creates a verifier. A nil cache disables caching.
func NewSemanticVerifier(engine embedding.Engine, statements []Statement, c cache.Cache, cfg model.VerifyConfig) *SemanticVerifier {
	if c == nil {
		c = cache.NoopCache{}
	}
	verified, related := cfg.VerifiedThreshold, cfg.RelatedThreshold
	if verified <= 0 {
		verified = 0.75
	}
	if related <= 0 {
		related = 0.5
	}
	return &SemanticVerifier{
		engine:            engine,
		cache:             c,
		statements:        statements,
		verifiedThreshold: verified,
		relatedThreshold:  related,
	}
}

// EngineName returns the embedding engine name
func (v *SemanticVerifier) EngineName() string {
	return v.engine.Name()
}

// Verify returns the best corpus match for every claim
func (v *SemanticVerifier) Verify(ctx context.Context, claims []model.Claim) ([]model.ClaimVerification, error) {
	if len(claims) == 0 || len(v.statements) == 0 {
		return nil, nil
	}

	corpus, err := v.corpusEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(claims))
	for i, c := range claims {
		texts[i] = c.Text
	}
	claimVecs, err := v.engine.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed claims: %w", err)
	}
	if len(claimVecs) != len(claims) {
		return nil, fmt.Errorf("expected %d claim embeddings, got %d", len(claims), len(claimVecs))
	}

	results := make([]model.ClaimVerification, 0, len(claims))
	for i, vec := range claimVecs {
		cv := model.ClaimVerification{Claim: claims[i].Text, Status: model.StatusUnverified}
		if top := embedding.FindTopK(vec, corpus, 1); len(top) > 0 {
			cv.MatchSource = v.statements[top[0].Index].Text
			cv.Similarity = clamp01(top[0].Similarity)
			cv.Status = v.status(cv.Similarity)
		}
		results = append(results, cv)
	}
	return results, nil
}

func (v *SemanticVerifier) status(sim float64) model.VerificationStatus {
	switch {
	case sim > v.verifiedThreshold:
		return model.StatusVerified
	case sim > v.relatedThreshold:
		return model.StatusRelated
	default:
		return model.StatusUnverified
	}
}

// corpusEmbeddings embeds the corpus once per process, reusing cached vectors
func (v *SemanticVerifier) corpusEmbeddings(ctx context.Context) ([][]float32, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.corpusVecs != nil {
		return v.corpusVecs, nil
	}

	texts := make([]string, len(v.statements))
	for i, s := range v.statements {
		texts[i] = s.Text
	}
	key := cache.CacheKey(cache.NamespaceEmbeddings, v.engine.Name()+"\n"+strings.Join(texts, "\n"))

	var vecs [][]float32
	if cache.GetJSON(v.cache, key, &vecs) && len(vecs) == len(texts) {
		slog.Debug("[Verifier] Corpus embeddings loaded from cache", slog.Int("statements", len(vecs)))
		v.corpusVecs = vecs
		return vecs, nil
	}

	vecs, err := v.engine.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("expected %d corpus embeddings, got %d", len(texts), len(vecs))
	}

	if err := cache.SetJSON(v.cache, key, vecs, 0); err != nil {
		slog.Warn("[Verifier] Failed to cache corpus embeddings", slog.String("error", err.Error()))
	}
	slog.Info("[Verifier] Corpus embedded",
		slog.String("engine", v.engine.Name()),
		slog.Int("statements", len(vecs)))

	v.corpusVecs = vecs
	return vecs, nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
