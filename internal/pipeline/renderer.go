package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/verisense/internal/model"
)

// Renderer writes analysis reports as JSON, Markdown or a terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// WriteJSON encodes the result as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, result *model.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// RenderJSON writes the result to a JSON file
func (r *Renderer) RenderJSON(result *model.AnalysisResult, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteJSON(w, result) })
}

// RenderMarkdown writes the result to a Markdown file
func (r *Renderer) RenderMarkdown(result *model.AnalysisResult, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, r.Markdown(result))
		return err
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Markdown renders the full report
func (r *Renderer) Markdown(result *model.AnalysisResult) string {
	var b strings.Builder
	s := result.Score

	title := result.Article.Title
	if title == "" {
		title = "Credibility Report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if result.Article.SourceURL != "" {
		fmt.Fprintf(&b, "**Source:** %s  \n", result.Article.SourceURL)
	}
	fmt.Fprintf(&b, "**Analyzed:** %s  \n", result.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "**Credibility score:** %.1f / 100 (%s, %s confidence)\n\n", s.Value, s.Rating, s.Confidence)

	b.WriteString("## Score breakdown\n\n")
	b.WriteString("| Signal | Value | Weight |\n|---|---|---|\n")
	for _, c := range s.Breakdown {
		if !c.Available {
			fmt.Fprintf(&b, "| %s | n/a | - |\n", c.Name)
			continue
		}
		fmt.Fprintf(&b, "| %s | %.1f | %.3f |\n", c.Name, c.Value, c.Weight)
	}
	b.WriteString("\n")

	if len(s.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, sig := range s.Signals {
			fmt.Fprintf(&b, "- **[%s]** %s", sig.Severity, sig.Description)
			if formula, ok := sig.Data["formula"].(string); ok && formula != "" {
				fmt.Fprintf(&b, " (`%s`)", formula)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "%s\n\n", result.Summary.Text)

	if p := result.Prediction; p != nil {
		b.WriteString("## Classifier\n\n")
		fmt.Fprintf(&b, "%s with %.0f%% confidence (real %.2f, fake %.2f)", p.Label, p.Confidence*100, p.RealProb, p.FakeProb)
		if p.Model != "" {
			fmt.Fprintf(&b, ", model `%s`", p.Model)
		}
		b.WriteString("\n\n")
	}

	if len(result.Verifications) > 0 {
		b.WriteString("## Claim verification\n\n")
		b.WriteString("| Claim | Status | Similarity | Closest reference |\n|---|---|---|---|\n")
		for _, v := range result.Verifications {
			fmt.Fprintf(&b, "| %s | %s | %.2f | %s |\n", cell(v.Claim), v.Status, v.Similarity, cell(v.MatchSource))
		}
		b.WriteString("\n")
	} else if len(result.Claims) > 0 {
		b.WriteString("## Claims\n\n")
		for _, c := range result.Claims {
			fmt.Fprintf(&b, "- %s\n", c.Text)
		}
		b.WriteString("\n")
	}

	if fc := result.FactCheck; fc.Enabled {
		b.WriteString("## Fact checks\n\n")
		if len(fc.Matches) == 0 {
			b.WriteString("No published fact checks found.\n\n")
		} else {
			fmt.Fprintf(&b, "Overall verdict: **%s**\n\n", fc.Verdict)
			for _, m := range fc.Matches {
				fmt.Fprintf(&b, "- %s rated \"%s\": %s\n", m.Publisher, m.Rating, m.URL)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Language and source\n\n")
	l := result.Linguistic
	fmt.Fprintf(&b, "- Linguistic risk: %.0f/100, readability %.1f, caps ratio %.2f\n", l.Risk, l.Readability, l.CapsRatio)
	for _, flag := range l.Flags {
		fmt.Fprintf(&b, "  - %s\n", flag)
	}
	st := result.Sentiment
	fmt.Fprintf(&b, "- Sentiment: %s (compound %.2f), sensationalism %.2f, risk %.0f/100\n", st.Label, st.Compound, st.Sensationalism, st.Risk)
	src := result.Source
	fmt.Fprintf(&b, "- Source: %s", src.Status)
	if src.Domain != "" {
		fmt.Fprintf(&b, " (%s, %s)", src.Domain, src.Tier)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- Entities: %s\n\n", result.EntityCheck.Reason)

	if e := result.Explanation; e != nil && len(e.Top) > 0 {
		b.WriteString("## Influential words\n\n")
		b.WriteString("| Word | Weight |\n|---|---|\n")
		for _, a := range e.Top {
			fmt.Fprintf(&b, "| %s | %+.4f |\n", cell(a.Token), a.Weight)
		}
		b.WriteString("\n")
	}

	if len(result.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		warnings := append([]string(nil), result.Warnings...)
		sort.Strings(warnings)
		for _, w := range warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("*Generated by VeriSense. Automated credibility signals are guidance, not a verdict; verify important claims with primary sources.*\n")
	}
	return b.String()
}

// RenderSummary prints a short terminal summary
func (r *Renderer) RenderSummary(w io.Writer, result *model.AnalysisResult) {
	s := result.Score
	fmt.Fprintf(w, "\nCredibility: %.1f/100  %s  (%s confidence)\n", s.Value, s.Rating, s.Confidence)
	for _, c := range s.Breakdown {
		if c.Available {
			fmt.Fprintf(w, "  %-22s %5.1f  (weight %.3f)\n", c.Name, c.Value, c.Weight)
		}
	}
	for _, sig := range s.Signals {
		if sig.Severity != model.SeverityInfo {
			fmt.Fprintf(w, "  ! %s\n", sig.Description)
		}
	}
	if result.Summary.Generated {
		fmt.Fprintf(w, "\nSummary: %s\n", result.Summary.Text)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
}

func cell(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "|", "\\|")
}
