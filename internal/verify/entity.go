package verify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/verisense/internal/model"
)

// DefaultAnchors are widely recognized institutions and organizations
var DefaultAnchors = []string{
	"WHO", "NASA", "CDC", "UN", "FBI", "Apple", "Google", "Microsoft",
	"White House", "Parliament", "Supreme Court", "BBC", "CNN",
}

// EntityVerifier rates how concrete and recognizable the named entities are
type EntityVerifier struct {
	anchors []*regexp.Regexp
	names   []string
}

// NewEntityVerifier creates a verifier; nil anchors use DefaultAnchors
func NewEntityVerifier(anchors []string) *EntityVerifier {
	if anchors == nil {
		anchors = DefaultAnchors
	}
	v := &EntityVerifier{}
	for _, a := range anchors {
		v.anchors = append(v.anchors, regexp.MustCompile(`\b`+regexp.QuoteMeta(a)+`\b`))
		v.names = append(v.names, a)
	}
	return v
}

// Assess scores the entities: none 40, no person/org/place 50,
// a recognized anchor 80, otherwise 60.
func (v *EntityVerifier) Assess(entities []model.Entity) model.EntityAssessment {
	if len(entities) == 0 {
		return model.EntityAssessment{Score: 40, Reason: "No specific entities mentioned (vague)."}
	}

	var named, anchored []string
	seenAnchor := make(map[string]bool)
	for _, e := range entities {
		isAnchor := v.matchesAnchor(e.Text)
		// Anchors count as named even when the tagger could not label them
		if !e.IsNamed() && !isAnchor {
			continue
		}
		named = append(named, e.Text)
		if isAnchor && !seenAnchor[e.Text] {
			seenAnchor[e.Text] = true
			anchored = append(anchored, e.Text)
		}
	}

	if len(named) == 0 {
		return model.EntityAssessment{
			Score:       50,
			Reason:      "No verifiable people, organizations or places found.",
			EntityCount: 0,
		}
	}

	if len(anchored) > 0 {
		shown := anchored
		if len(shown) > 3 {
			shown = shown[:3]
		}
		return model.EntityAssessment{
			Score:       80,
			Reason:      "References recognized entities: " + strings.Join(shown, ", "),
			EntityCount: len(named),
			Anchors:     anchored,
		}
	}

	return model.EntityAssessment{
		Score:       60,
		Reason:      fmt.Sprintf("Contains specific entities (%d found), but unverified context.", len(named)),
		EntityCount: len(named),
	}
}

func (v *EntityVerifier) matchesAnchor(text string) bool {
	for _, re := range v.anchors {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
