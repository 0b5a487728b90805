// Package pipeline runs the credibility analysis end to end: input
// resolution, preprocessing, the analysis layers and score synthesis.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/verisense/internal/cache"
	"github.com/ppiankov/verisense/internal/classify"
	"github.com/ppiankov/verisense/internal/embedding"
	"github.com/ppiankov/verisense/internal/explain"
	"github.com/ppiankov/verisense/internal/extract"
	"github.com/ppiankov/verisense/internal/factcheck"
	"github.com/ppiankov/verisense/internal/linguistic"
	"github.com/ppiankov/verisense/internal/llm"
	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/score"
	"github.com/ppiankov/verisense/internal/sentiment"
	"github.com/ppiankov/verisense/internal/verify"
	"github.com/ppiankov/verisense/internal/worker"
)

var (
	// ErrEmptyInput is returned when neither text nor URL yields any content
	ErrEmptyInput = errors.New("no article text to analyze")
)

// Input is one analysis request. When Text is empty the URL is fetched;
// otherwise the URL only identifies the source.
type Input struct {
	Text       string           `json:"text"`
	URL        string           `json:"url"`
	SourceType model.SourceType `json:"source_type,omitempty"`
}

// Components are the analysis layers. Nil optional layers are skipped.
type Components struct {
	Fetcher    *Fetcher
	Claims     *extract.ClaimExtractor
	Classifier classify.Classifier
	Semantic   *verify.SemanticVerifier
	FactCheck  *factcheck.Client
	Summarizer *llm.Summarizer
	Linguistic *linguistic.Analyzer
	Sentiment  *sentiment.Analyzer
	Sources    *verify.SourceVerifier
	Entities   *verify.EntityVerifier
	Explainer  *explain.Explainer
	Scorer     *score.Synthesizer
}

// Pipeline orchestrates the complete analysis
type Pipeline struct {
	c         Components
	maxClaims int
	now       func() time.Time
}

// New creates a pipeline from prepared components; required layers missing
// from c are filled with their defaults.
func New(cfg *model.Config, c Components) *Pipeline {
	if c.Fetcher == nil {
		c.Fetcher = NewFetcher(cfg.HTTP, nil, 0, nil)
	}
	if c.Claims == nil {
		c.Claims = extract.NewClaimExtractor(5, 0)
	}
	if c.Summarizer == nil {
		c.Summarizer = llm.NewSummarizerWithProvider(nil, llm.ConfigFromModel(cfg.Models, cfg.HTTP))
	}
	if c.Linguistic == nil {
		c.Linguistic = linguistic.NewAnalyzer(nil, nil)
	}
	if c.Sentiment == nil {
		c.Sentiment = sentiment.NewAnalyzer(nil)
	}
	if c.Sources == nil {
		c.Sources = verify.NewSourceVerifier(cfg.Source)
	}
	if c.Entities == nil {
		c.Entities = verify.NewEntityVerifier(nil)
	}
	if c.Scorer == nil {
		c.Scorer = score.NewSynthesizer(cfg.Scoring)
	}
	return &Pipeline{c: c, maxClaims: cfg.Verify.MaxClaims, now: time.Now}
}

// NewFromConfig builds every layer from configuration. Model backends that
// fail to initialize are logged and left out; the score renormalizes.
func NewFromConfig(cfg *model.Config) (*Pipeline, error) {
	shared := cache.New(cfg.Cache)

	var limiter *worker.Limiter
	if cfg.RateLimiting.RequestsPerSecond > 0 {
		limiter = worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	}

	c := Components{
		Fetcher:   NewFetcher(cfg.HTTP, shared, cfg.Cache.TTL, limiter),
		FactCheck: factcheck.NewClient(cfg.FactCheck, shared),
	}

	classifier, err := classify.New(cfg.Models)
	if err != nil {
		slog.Warn("[Pipeline] Classifier unavailable", "error", err)
	} else {
		c.Classifier = classifier
		if cfg.Explain.Enabled {
			c.Explainer = explain.New(classifier, cfg.Explain)
		}
	}

	statements, err := verify.LoadCorpus(cfg.Verify.CorpusFile)
	if err != nil {
		return nil, fmt.Errorf("load reference corpus: %w", err)
	}
	engine, err := embedding.NewEngine(cfg.Models)
	if err != nil {
		slog.Warn("[Pipeline] Embedding engine unavailable, semantic verification disabled", "error", err)
	} else {
		c.Semantic = verify.NewSemanticVerifier(engine, statements, shared, cfg.Verify)
	}

	summarizer, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.Models, cfg.HTTP))
	if err != nil {
		slog.Warn("[Pipeline] Summarizer unavailable", "error", err)
	} else {
		c.Summarizer = summarizer
	}

	return New(cfg, c), nil
}

// FactCheckEnabled reports whether external fact-checks are queried
func (p *Pipeline) FactCheckEnabled() bool {
	return p.c.FactCheck != nil && p.c.FactCheck.Enabled()
}

// Models lists the model backends in use, for health reporting
func (p *Pipeline) Models() map[string]string {
	models := map[string]string{}
	if p.c.Classifier != nil {
		models["classifier"] = p.c.Classifier.Name()
	}
	if p.c.Semantic != nil {
		models["embedding"] = p.c.Semantic.EngineName()
	}
	if p.c.Summarizer.IsEnabled() {
		models["summarizer"] = p.c.Summarizer.ProviderName()
	}
	return models
}

// AnalyzeURL fetches and analyzes one URL
func (p *Pipeline) AnalyzeURL(ctx context.Context, url string) (*model.AnalysisResult, error) {
	return p.Analyze(ctx, Input{URL: url})
}

// Analyze runs every layer and synthesizes the credibility score. Failures of
// optional layers are recorded as warnings; only input errors abort.
func (p *Pipeline) Analyze(ctx context.Context, in Input) (*model.AnalysisResult, error) {
	start := p.now()

	article, err := p.resolveArticle(ctx, in)
	if err != nil {
		return nil, err
	}

	result := &model.AnalysisResult{
		ID:        uuid.NewString(),
		CreatedAt: start.UTC(),
		Article:   article,
		URLs:      extract.ExtractURLs(in.Text),
	}
	text := article.Text

	var (
		mu       sync.Mutex
		warnings []string
	)
	warn := func(layer string, err error) {
		slog.Warn("[Pipeline] Layer failed", "layer", layer, "error", err)
		mu.Lock()
		warnings = append(warnings, fmt.Sprintf("%s: %v", layer, err))
		mu.Unlock()
	}

	claims, err := p.c.Claims.Extract(text)
	if err != nil {
		warn("claims", err)
	}
	result.Claims = claims

	sourceURL := article.SourceURL
	if sourceURL == "" && len(result.URLs) > 0 {
		sourceURL = result.URLs[0]
	}

	var (
		prediction *model.Prediction
		entity     *model.EntityAssessment
	)

	g, gctx := errgroup.WithContext(ctx)

	if p.c.Classifier != nil {
		g.Go(func() error {
			pred, err := p.c.Classifier.Classify(gctx, extract.CleanText(text))
			if err != nil {
				warn("classifier", err)
				return nil
			}
			prediction = &pred
			return nil
		})
	}

	if p.c.Semantic != nil && len(claims) > 0 {
		g.Go(func() error {
			verifications, err := p.c.Semantic.Verify(gctx, limitClaims(claims, p.maxClaims))
			if err != nil {
				warn("semantic verification", err)
				return nil
			}
			result.Verifications = verifications
			return nil
		})
	}

	if p.c.FactCheck != nil {
		g.Go(func() error {
			report, err := p.c.FactCheck.Check(gctx, claims, text)
			if err != nil {
				warn("fact-check", err)
				return nil
			}
			result.FactCheck = report
			return nil
		})
	}

	g.Go(func() error {
		summary, err := p.c.Summarizer.Summarize(gctx, text)
		if err != nil {
			warn("summary", err)
		}
		result.Summary = summary
		return nil
	})

	g.Go(func() error {
		entities, err := extract.ExtractEntities(text)
		if err != nil {
			warn("entities", err)
			return nil
		}
		result.Entities = entities
		assessment := p.c.Entities.Assess(entities)
		entity = &assessment
		return nil
	})

	result.Linguistic = p.c.Linguistic.Analyze(text)
	result.Sentiment = p.c.Sentiment.Analyze(text)
	result.Source = p.c.Sources.Assess(sourceURL)

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}

	result.Prediction = prediction
	if entity != nil {
		result.EntityCheck = *entity
	}

	if p.c.Explainer != nil && prediction != nil {
		explanation, err := p.c.Explainer.Explain(ctx, extract.CleanText(text))
		if err != nil {
			warn("explanation", err)
		} else {
			result.Explanation = explanation
		}
	}

	linguisticResult := result.Linguistic
	sentimentResult := result.Sentiment
	sourceResult := result.Source
	result.Score = p.c.Scorer.Calculate(score.Inputs{
		Prediction:    prediction,
		Verifications: result.Verifications,
		FactCheck:     result.FactCheck,
		Linguistic:    &linguisticResult,
		Sentiment:     &sentimentResult,
		Source:        &sourceResult,
		Entity:        entity,
	})

	result.Warnings = warnings
	result.Duration = p.now().Sub(start)

	slog.Info("[Pipeline] Analysis complete",
		"id", result.ID,
		"score", result.Score.Value,
		"rating", result.Score.Rating,
		"warnings", len(warnings),
		"duration", result.Duration)
	return result, nil
}

func (p *Pipeline) resolveArticle(ctx context.Context, in Input) (model.Article, error) {
	url := strings.TrimSpace(in.URL)

	if strings.TrimSpace(in.Text) != "" {
		sourceType := in.SourceType
		if sourceType == "" {
			sourceType = model.SourceTypeText
		}
		text := extract.NormalizeText(in.Text)
		if text == "" {
			return model.Article{}, ErrEmptyInput
		}
		return model.Article{Text: text, SourceURL: url, SourceType: sourceType}, nil
	}

	if url == "" {
		return model.Article{}, ErrEmptyInput
	}

	fetched, err := p.c.Fetcher.Fetch(ctx, url)
	if err != nil {
		return model.Article{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	page, err := extract.ExtractArticle(fetched.HTML, fetched.FinalURL)
	if err != nil {
		return model.Article{}, fmt.Errorf("extract article: %w", err)
	}
	if strings.TrimSpace(page.Text) == "" {
		return model.Article{}, fmt.Errorf("%w: no readable text at %s", ErrEmptyInput, url)
	}

	meta := fetched.Meta
	return model.Article{
		Title:      page.Title,
		Text:       page.Text,
		SourceURL:  fetched.FinalURL,
		SourceType: model.SourceTypeURL,
		FetchMeta:  &meta,
	}, nil
}

func limitClaims(claims []model.Claim, max int) []model.Claim {
	if max > 0 && len(claims) > max {
		return claims[:max]
	}
	return claims
}
