package extract

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/ppiankov/verisense/internal/model"
)

// ClaimExtractor picks check-worthy sentences out of article text
type ClaimExtractor struct {
	minTokens int
	maxClaims int
}

// NewClaimExtractor creates a claim extractor. Sentences need more than
// minTokens tokens; maxClaims <= 0 keeps every claim.
func NewClaimExtractor(minTokens, maxClaims int) *ClaimExtractor {
	if minTokens <= 0 {
		minTokens = 5
	}
	return &ClaimExtractor{minTokens: minTokens, maxClaims: maxClaims}
}

// Extract returns sentences that name an entity or carry a verb
func (e *ClaimExtractor) Extract(text string) ([]model.Claim, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("segment text: %w", err)
	}

	var claims []model.Claim
	for i, sentence := range doc.Sentences() {
		heuristic, ok, err := e.classifySentence(sentence.Text)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		claims = append(claims, model.Claim{
			Text:      strings.TrimSpace(sentence.Text),
			Heuristic: heuristic,
			Sentence:  i,
		})
	}

	claims = dedupeClaims(claims)
	if e.maxClaims > 0 && len(claims) > e.maxClaims {
		claims = claims[:e.maxClaims]
	}
	return claims, nil
}

func (e *ClaimExtractor) classifySentence(sentence string) (string, bool, error) {
	doc, err := prose.NewDocument(sentence, prose.WithSegmentation(false))
	if err != nil {
		return "", false, fmt.Errorf("tag sentence: %w", err)
	}

	tokens := doc.Tokens()
	if len(tokens) <= e.minTokens {
		return "", false, nil
	}

	if len(doc.Entities()) > 0 {
		return "entity", true, nil
	}
	for _, tok := range tokens {
		if strings.HasPrefix(tok.Tag, "VB") {
			return "verb", true, nil
		}
	}
	return "", false, nil
}

// dedupeClaims removes duplicate claims
func dedupeClaims(claims []model.Claim) []model.Claim {
	seen := make(map[string]bool)
	var unique []model.Claim

	for _, claim := range claims {
		key := strings.ToLower(strings.TrimSpace(claim.Text))
		if !seen[key] {
			seen[key] = true
			unique = append(unique, claim)
		}
	}

	return unique
}
