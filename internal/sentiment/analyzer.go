// Package sentiment measures emotional tone and sensationalism.
package sentiment

import (
	"math"
	"strings"
	"unicode"

	"github.com/jonreiter/govader"

	"github.com/ppiankov/verisense/internal/model"
)

// Labels
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
)

const (
	// LabelThreshold is the |compound| at which text stops being neutral
	LabelThreshold = 0.20

	// IntenseThreshold marks highly emotional text
	IntenseThreshold = 0.9

	sensationalWeight = 0.7
	intensityWeight   = 0.3
)

// DefaultSensationalTerms are words and phrases typical of clickbait
var DefaultSensationalTerms = []string{
	"shocking", "unbelievable", "mind-blowing", "secret", "exposed",
	"breaking", "urgent", "you won't believe", "miracle", "cure",
	"conspiracy", "mainstream media", "hidden agenda", "destroy",
}

// Analyzer combines VADER polarity with a sensational-term lexicon
type Analyzer struct {
	vader   *govader.SentimentIntensityAnalyzer
	words   map[string]bool
	phrases []string
}

// NewAnalyzer builds an analyzer; nil terms use the defaults
func NewAnalyzer(terms []string) *Analyzer {
	if terms == nil {
		terms = DefaultSensationalTerms
	}
	a := &Analyzer{
		vader: govader.NewSentimentIntensityAnalyzer(),
		words: make(map[string]bool),
	}
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		switch {
		case t == "":
		case strings.Contains(t, " "):
			a.phrases = append(a.phrases, t)
		default:
			a.words[t] = true
		}
	}
	return a
}

// Analyze scores tone and sensationalism. Risk is
// (sensationalism*0.7 + (intensity > 0.9 ? 0.3 : 0)) * 100.
func (a *Analyzer) Analyze(text string) model.SentimentResult {
	result := model.SentimentResult{Label: LabelNeutral}
	if strings.TrimSpace(text) == "" {
		return result
	}

	result.Compound = a.vader.PolarityScores(text).Compound
	result.Label = Label(result.Compound)
	result.Intensity = math.Abs(result.Compound)

	tokens := tokenize(text)
	if len(tokens) > 0 {
		matches, terms := a.sensationalMatches(tokens)
		result.Sensationalism = math.Min(1, float64(matches)/float64(len(tokens))*10)
		result.SensationalTerms = terms
	}

	intensityRisk := 0.0
	if result.Intensity > IntenseThreshold {
		intensityRisk = 1
	}
	result.Risk = math.Min(1, result.Sensationalism*sensationalWeight+intensityRisk*intensityWeight) * 100
	return result
}

// Label maps a VADER compound score onto positive, negative or neutral
func Label(compound float64) string {
	switch {
	case compound >= LabelThreshold:
		return LabelPositive
	case compound <= -LabelThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// sensationalMatches counts lexicon hits and returns the distinct terms found
func (a *Analyzer) sensationalMatches(tokens []string) (int, []string) {
	count := 0
	seen := make(map[string]bool)
	var terms []string
	add := func(t string, n int) {
		count += n
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}

	for _, tok := range tokens {
		if a.words[tok] {
			add(tok, 1)
		}
	}

	joined := " " + strings.Join(tokens, " ") + " "
	for _, p := range a.phrases {
		if n := strings.Count(joined, " "+p+" "); n > 0 {
			add(p, n)
		}
	}
	return count, terms
}

// tokenize lowercases and trims surrounding punctuation from each word
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if f != "" {
			out = append(out, strings.ReplaceAll(f, "’", "'"))
		}
	}
	return out
}
