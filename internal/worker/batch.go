package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/verisense/internal/model"
)

// Analyzer runs a credibility analysis for a URL
type Analyzer interface {
	AnalyzeURL(ctx context.Context, url string) (*model.AnalysisResult, error)
}

// AnalysisJob analyzes one URL
type AnalysisJob struct {
	Index    int
	URL      string
	Analyzer Analyzer
	Limiter  *Limiter
}

// Execute executes the analysis job
func (j *AnalysisJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.URL); err != nil {
			return &AnalysisResult{Index: j.Index, URL: j.URL, Error: fmt.Errorf("rate limit: %w", err)}
		}
	}

	result, err := j.Analyzer.AnalyzeURL(ctx, j.URL)
	if err != nil {
		return &AnalysisResult{Index: j.Index, URL: j.URL, Error: err}
	}
	return &AnalysisResult{Index: j.Index, URL: j.URL, Analysis: result}
}

// AnalysisResult is the outcome of one batch entry
type AnalysisResult struct {
	Index    int
	URL      string
	Analysis *model.AnalysisResult
	Error    error
}

// GetError returns the error from the analysis
func (r *AnalysisResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many URLs concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a batch processor. requestsPerSecond <= 0 disables per-host limiting.
func NewBatchProcessor(analyzer Analyzer, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	var limiter *Limiter
	if requestsPerSecond > 0 {
		limiter = NewLimiter(requestsPerSecond, burst)
	}
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// ProcessURLs analyzes URLs concurrently and returns results in input order
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*AnalysisResult {
	if len(urls) == 0 {
		return []*AnalysisResult{}
	}

	jobs := make([]Job, len(urls))
	for i, u := range urls {
		jobs[i] = &AnalysisJob{Index: i, URL: u, Analyzer: b.analyzer, Limiter: b.limiter}
	}

	ordered := make([]*AnalysisResult, len(urls))
	for _, r := range Run(ctx, b.concurrency, jobs) {
		ar := r.(*AnalysisResult)
		ordered[ar.Index] = ar
	}

	// Jobs never started because ctx ended
	for i, r := range ordered {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("not processed")
			}
			ordered[i] = &AnalysisResult{Index: i, URL: urls[i], Error: err}
		}
	}

	return ordered
}

// ProcessFile reads URLs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalysisResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads URLs from a file (one per line), skipping blanks, comments and duplicates
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
