package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/ppiankov/verisense/internal/model"
)

var (
	acronymPattern      = regexp.MustCompile(`\b[A-Z]{2,6}\b`)
	capitalizedSequence = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+(?:of\s+|the\s+)?[A-Z][a-z]+)+\b`)
)

// Words that are capitalized by position, not because they name something
var stopCapitalized = map[string]bool{
	"The": true, "A": true, "An": true, "This": true, "That": true, "These": true,
	"It": true, "In": true, "On": true, "But": true, "And": true, "Breaking": true,
}

// ExtractEntities finds named entities. The statistical tagger only knows
// people and places, so acronyms and capitalized phrases are added on top.
func ExtractEntities(text string) ([]model.Entity, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("tag entities: %w", err)
	}

	var entities []model.Entity
	seen := make(map[string]bool)
	add := func(e model.Entity) {
		key := strings.ToLower(e.Text)
		if key == "" || seen[key] {
			return
		}
		for existing := range seen {
			if strings.Contains(existing, key) {
				return
			}
		}
		seen[key] = true
		entities = append(entities, e)
	}

	for _, ent := range doc.Entities() {
		add(model.Entity{Text: strings.TrimSpace(ent.Text), Label: mapEntityLabel(ent.Label)})
	}
	for _, e := range fallbackEntities(text) {
		add(e)
	}
	return entities, nil
}

func mapEntityLabel(label string) string {
	switch strings.ToUpper(label) {
	case "PERSON":
		return model.EntityPerson
	case "GPE":
		return model.EntityGPE
	case "ORG", "ORGANIZATION":
		return model.EntityOrg
	case "LOC", "LOCATION":
		return model.EntityLocation
	default:
		return model.EntityOther
	}
}

// fallbackEntities labels acronyms as organizations and other capitalized
// phrases as miscellaneous names.
func fallbackEntities(text string) []model.Entity {
	var out []model.Entity
	words := strings.Fields(text)
	for i, w := range words {
		w = strings.Trim(w, ".,;:!?\"'()[]")
		if !acronymPattern.MatchString(w) || len(w) != len(acronymPattern.FindString(w)) {
			continue
		}
		// Shouted runs of capitals are not acronyms
		if (i > 0 && isUpperWord(words[i-1])) || (i+1 < len(words) && isUpperWord(words[i+1])) {
			continue
		}
		out = append(out, model.Entity{Text: w, Label: model.EntityOrg})
	}
	for _, m := range capitalizedSequence.FindAllString(text, -1) {
		words := strings.Fields(m)
		for len(words) > 0 && stopCapitalized[words[0]] {
			words = words[1:]
		}
		if len(words) < 2 {
			continue
		}
		out = append(out, model.Entity{Text: strings.Join(words, " "), Label: model.EntityOther})
	}
	return out
}

func isUpperWord(w string) bool {
	w = strings.Trim(w, ".,;:!?\"'()[]")
	letters := 0
	for _, r := range w {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			letters++
		}
	}
	return letters >= 2
}
