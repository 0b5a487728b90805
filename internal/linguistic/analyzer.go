// Package linguistic scores stylistic red flags common in misleading articles.
package linguistic

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/ppiankov/verisense/internal/model"
)

// Risk weights and thresholds
const (
	ExtremeWeight     = 20.0
	ConspiracyWeight  = 25.0
	CapsWeight        = 15.0
	ExclamationWeight = 10.0

	CapsRatioThreshold   = 0.15
	ExclamationThreshold = 3
)

// DefaultExtremePhrases are absolutist or clickbait claims
var DefaultExtremePhrases = []string{
	"100% cure", "miracle cure", "guaranteed", "secret exposed",
	"hidden truth", "shocking revelation", "once in a lifetime",
	"doctors hate this", "banned by", "proven",
}

// DefaultConspiracyPhrases are terms typical of conspiracy narratives
var DefaultConspiracyPhrases = []string{
	"they don't want you to know", "mainstream media", "deep state",
	"new world order", "globalist", "agenda", "hoax", "plandemic",
	"sheeple", "wake up",
}

type phrase struct {
	text    string
	pattern *regexp.Regexp
}

// Analyzer detects red flags with phrase lists and character statistics
type Analyzer struct {
	extreme    []phrase
	conspiracy []phrase
}

// NewAnalyzer builds an analyzer; nil lists use the defaults
func NewAnalyzer(extreme, conspiracy []string) *Analyzer {
	if extreme == nil {
		extreme = DefaultExtremePhrases
	}
	if conspiracy == nil {
		conspiracy = DefaultConspiracyPhrases
	}
	return &Analyzer{
		extreme:    compilePhrases(extreme),
		conspiracy: compilePhrases(conspiracy),
	}
}

func compilePhrases(list []string) []phrase {
	out := make([]phrase, 0, len(list))
	for _, p := range list {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, phrase{
			text:    p,
			pattern: regexp.MustCompile(`(?i)` + boundary(p, true) + regexp.QuoteMeta(p) + boundary(p, false)),
		})
	}
	return out
}

// boundary anchors a phrase on word edges when that edge is a word character
func boundary(p string, start bool) string {
	r := []rune(p)
	edge := r[len(r)-1]
	if start {
		edge = r[0]
	}
	if unicode.IsLetter(edge) || unicode.IsDigit(edge) {
		return `\b`
	}
	return ""
}

// Analyze returns the risk score (0-100), flags, readability and caps ratio
func (a *Analyzer) Analyze(text string) model.LinguisticResult {
	if strings.TrimSpace(text) == "" {
		return model.LinguisticResult{}
	}

	var result model.LinguisticResult
	score := 0.0

	if matches := matchAll(a.extreme, text); len(matches) > 0 {
		score += ExtremeWeight * float64(len(matches))
		result.Flags = append(result.Flags, "Contains extreme claims: "+strings.Join(matches, ", "))
	}

	if matches := matchAll(a.conspiracy, text); len(matches) > 0 {
		score += ConspiracyWeight * float64(len(matches))
		result.Flags = append(result.Flags, "Uses conspiracy terminology: "+strings.Join(matches, ", "))
	}

	result.CapsRatio = CapsRatio(text)
	if result.CapsRatio > CapsRatioThreshold {
		score += CapsWeight
		result.Flags = append(result.Flags, "Excessive use of Capital Letters")
	}

	result.Exclamations = strings.Count(text, "!")
	if result.Exclamations > ExclamationThreshold {
		score += ExclamationWeight
		result.Flags = append(result.Flags, fmt.Sprintf("Excessive exclamation marks (%d)", result.Exclamations))
	}

	result.Risk = math.Min(100, score)
	result.Readability = FleschReadingEase(text)
	return result
}

func matchAll(phrases []phrase, text string) []string {
	var out []string
	for _, p := range phrases {
		if p.pattern.MatchString(text) {
			out = append(out, p.text)
		}
	}
	return out
}

// CapsRatio is the share of uppercase letters among ASCII letters
func CapsRatio(text string) float64 {
	letters, upper := 0, 0
	for _, r := range text {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}
