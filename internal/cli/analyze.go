package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/pipeline"
)

var (
	analyzeURL     string
	outJSON        string
	outMD          string
	analyzeTimeout time.Duration
	noCache        bool
	noFooter       bool
	insecureTLS    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Analyze one article and print its credibility report",
	Long: `Analyze runs the full credibility pipeline on one article:
- Classify the text with the fake-news model
- Extract claims and verify them against trusted reference statements
- Look up published fact-checks (when GOOGLE_FACTCHECK_API_KEY is set)
- Flag sensational language, tone, source reputation and vague entities
- Combine everything into a transparent 0-100 score

Pass the article text as an argument, "-" to read it from stdin, or --url
to fetch it. With both, the URL only identifies the source.

Example:
  verisense analyze "Scientists confirm..."
  verisense analyze --url https://www.reuters.com/world/some-story
  cat article.txt | verisense analyze - --json report.json --md report.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeURL, "url", "", "article URL to fetch (or the source of the given text)")
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", `write the JSON report to this path ("-" for stdout)`)
	analyzeCmd.Flags().StringVar(&outMD, "md", "", `write the Markdown report to this path ("-" for stdout)`)
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 2*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch and lookups)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	analyzeCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	in := pipeline.Input{URL: analyzeURL}
	if len(args) == 1 {
		text := args[0]
		if text == "-" {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = string(raw)
		}
		in.Text = text
	}
	if strings.TrimSpace(in.Text) == "" && in.URL == "" {
		return fmt.Errorf("provide article text, \"-\" for stdin, or --url")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyCommonFlags(cfg)

	p, err := pipeline.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()

	result, err := p.Analyze(ctx, in)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	return renderResult(cmd.OutOrStdout(), pipeline.NewRenderer(cfg.Output.IncludeFooter), result, outJSON, outMD)
}

func applyCommonFlags(cfg *model.Config) {
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if insecureTLS {
		cfg.HTTP.InsecureTLS = true
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose
}

// renderResult writes the requested reports; with none requested it prints the summary
func renderResult(w io.Writer, r *pipeline.Renderer, result *model.AnalysisResult, jsonPath, mdPath string) error {
	if jsonPath == "" && mdPath == "" {
		r.RenderSummary(w, result)
		return nil
	}

	switch jsonPath {
	case "":
	case "-":
		if err := r.WriteJSON(w, result); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	default:
		if err := r.RenderJSON(result, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
	}

	switch mdPath {
	case "":
	case "-":
		if _, err := io.WriteString(w, r.Markdown(result)); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	default:
		if err := r.RenderMarkdown(result, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
	}

	if jsonPath != "-" && mdPath != "-" {
		r.RenderSummary(w, result)
	}
	return nil
}
