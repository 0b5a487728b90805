package factcheck

import (
	"regexp"
	"strings"

	"github.com/ppiankov/verisense/internal/model"
)

// Ordered: compound ratings must be tested before their single-word parts,
// and negated or unverified forms before the plain positive words.
var ratingRules = []struct {
	verdict model.Verdict
	pattern *regexp.Regexp
}{
	{model.VerdictMostlyFalse, regexp.MustCompile(`\bmostly (false|inaccurate)\b|\bmisleading\b|\bexaggerat|\bdistort`)},
	{model.VerdictMostlyTrue, regexp.MustCompile(`\b(mostly|largely) (true|accurate|correct)\b`)},
	{model.VerdictMixed, regexp.MustCompile(`\bhalf[- ]true\b|\bmix(ed|ture)\b|\bpart(ly|ially)\b|\b(missing|needs) context\b|` +
		`\bun(proven|supported|verified|confirmed|substantiated)\b|\bnot (verified|confirmed|proven)\b`)},
	{model.VerdictFalse, regexp.MustCompile(`\bfalse\b|\bfake\b|pants on fire|\bincorrect\b|\binaccurate\b|\bhoax\b|\bfabricat|` +
		`\bwrong\b|\bbaseless\b|\bno evidence\b|\bdebunk|\bscam\b|\buntrue\b|\bnot (true|correct|accurate|real)\b`)},
	{model.VerdictTrue, regexp.MustCompile(`\btrue\b|\bcorrect\b|\baccurate\b|\bverified\b|\bconfirmed\b`)},
}

// NormalizeRating maps a publisher's textual rating onto a Verdict
func NormalizeRating(rating string) model.Verdict {
	r := strings.Join(strings.Fields(strings.ToLower(rating)), " ")
	if r == "" {
		return model.VerdictUnrated
	}
	for _, rule := range ratingRules {
		if rule.pattern.MatchString(r) {
			return rule.verdict
		}
	}
	return model.VerdictUnrated
}

// Aggregate averages the scores of rated matches and maps the mean back
// onto a verdict. No rated matches yields VerdictUnrated.
func Aggregate(matches []model.FactCheckMatch) model.Verdict {
	var sum float64
	var n int
	for _, m := range matches {
		if score, ok := m.Verdict.Score(); ok {
			sum += score
			n++
		}
	}
	if n == 0 {
		return model.VerdictUnrated
	}

	mean := sum / float64(n)
	switch {
	case mean >= 87.5:
		return model.VerdictTrue
	case mean >= 62.5:
		return model.VerdictMostlyTrue
	case mean >= 37.5:
		return model.VerdictMixed
	case mean >= 12.5:
		return model.VerdictMostlyFalse
	default:
		return model.VerdictFalse
	}
}
