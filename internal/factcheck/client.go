// Package factcheck looks up published fact-checks through the Google Fact Check Tools API.
package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/verisense/internal/cache"
	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/worker"
)

const (
	DefaultEndpoint = "https://factchecktools.googleapis.com/v1alpha1/claims:search"
	maxQueryChars   = 200
)

// Client queries the claims:search endpoint
type Client struct {
	apiKey     string
	endpoint   string
	language   string
	pageSize   int
	maxQueries int
	httpClient *http.Client
	cache      cache.Cache
	limiter    *worker.Limiter
}

// NewClient creates a fact-check client. Without an API key the client is
// disabled and every lookup returns an empty report.
func NewClient(cfg model.FactCheckConfig, c cache.Cache) *Client {
	if c == nil {
		c = cache.NoopCache{}
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	language := cfg.Language
	if language == "" {
		language = "en"
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 3
	}
	maxQueries := cfg.MaxQueries
	if maxQueries <= 0 {
		maxQueries = 3
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		endpoint:   endpoint,
		language:   language,
		pageSize:   pageSize,
		maxQueries: maxQueries,
		httpClient: &http.Client{Timeout: timeout},
		cache:      c,
		limiter:    worker.NewLimiter(cfg.RequestsPerSecond, 1),
	}
}

// Enabled reports whether an API key is configured
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Check queries the top claims (or the start of text when there are none)
// and aggregates the published ratings.
func (c *Client) Check(ctx context.Context, claims []model.Claim, text string) (model.FactCheckReport, error) {
	report := model.FactCheckReport{Enabled: c.Enabled()}
	if !report.Enabled {
		return report, nil
	}

	report.Queries = c.queries(claims, text)
	if len(report.Queries) == 0 {
		return report, nil
	}

	var failures []string
	seen := make(map[string]bool)
	for _, q := range report.Queries {
		matches, err := c.Search(ctx, q)
		if err != nil {
			failures = append(failures, err.Error())
			continue
		}
		for _, m := range matches {
			key := m.URL + "|" + m.Claim
			if seen[key] {
				continue
			}
			seen[key] = true
			report.Matches = append(report.Matches, m)
		}
	}

	if len(failures) == len(report.Queries) {
		return report, fmt.Errorf("fact-check lookups failed: %s", strings.Join(failures, "; "))
	}

	report.Verdict = Aggregate(report.Matches)
	return report, nil
}

func (c *Client) queries(claims []model.Claim, text string) []string {
	var out []string
	for _, claim := range claims {
		if len(out) == c.maxQueries {
			break
		}
		if q := truncateQuery(claim.Text); q != "" {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		if q := truncateQuery(text); q != "" {
			out = append(out, q)
		}
	}
	return out
}

// Search returns the reviews published for query
func (c *Client) Search(ctx context.Context, query string) ([]model.FactCheckMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" || !c.Enabled() {
		return nil, nil
	}

	cacheKey := cache.CacheKey(cache.NamespaceFactCheck,
		c.language+"|"+strconv.Itoa(c.pageSize)+"|"+strings.ToLower(query))
	var cached []model.FactCheckMatch
	if cache.GetJSON(c.cache, cacheKey, &cached) {
		return cached, nil
	}

	if err := c.limiter.Wait(ctx, c.endpoint); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)
	params.Set("languageCode", c.language)
	params.Set("pageSize", strconv.Itoa(c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	slog.Info("[FactCheck] Querying Fact Check API", slog.String("query", preview(query, 30)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fact check request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Warn("[FactCheck] Fact Check API error", slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("fact check API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	matches := payload.matches()
	if err := cache.SetJSON(c.cache, cacheKey, matches, 0); err != nil {
		slog.Debug("[FactCheck] Failed to cache response", slog.String("error", err.Error()))
	}
	return matches, nil
}

type searchResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		Claimant    string `json:"claimant"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
				Site string `json:"site"`
			} `json:"publisher"`
			URL           string `json:"url"`
			Title         string `json:"title"`
			TextualRating string `json:"textualRating"`
		} `json:"claimReview"`
	} `json:"claims"`
}

func (r searchResponse) matches() []model.FactCheckMatch {
	out := []model.FactCheckMatch{}
	for _, claim := range r.Claims {
		for _, review := range claim.ClaimReview {
			publisher := review.Publisher.Name
			if publisher == "" {
				publisher = "Unknown Publisher"
			}
			rating := review.TextualRating
			if rating == "" {
				rating = "Unknown"
			}
			verdict := NormalizeRating(rating)
			score, _ := verdict.Score()
			out = append(out, model.FactCheckMatch{
				Claim:     claim.Text,
				Publisher: publisher,
				Rating:    rating,
				URL:       review.URL,
				Title:     review.Title,
				Verdict:   verdict,
				Score:     score,
			})
		}
	}
	return out
}

func truncateQuery(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > maxQueryChars {
		return strings.TrimSpace(string(runes[:maxQueryChars]))
	}
	return s
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
