package model

import "strings"

// Claim represents a factual assertion extracted from the article
type Claim struct {
	Text      string `json:"text" bson:"text"`                               // The claim text itself
	Heuristic string `json:"heuristic,omitempty" bson:"heuristic,omitempty"` // Which extraction rule matched (e.g., "entity", "verb")
	Sentence  int    `json:"sentence" bson:"sentence"`                       // Sentence index in source (0-based)
}

// Entity is a named entity found in the article text
type Entity struct {
	Text  string `json:"text" bson:"text"`
	Label string `json:"label" bson:"label"`
}

// Entity labels
const (
	EntityPerson   = "PERSON"
	EntityOrg      = "ORG"
	EntityGPE      = "GPE"
	EntityLocation = "LOC"
	EntityOther    = "MISC"
)

// IsNamed reports whether the entity names a person, organization or place
func (e Entity) IsNamed() bool {
	switch strings.ToUpper(e.Label) {
	case EntityPerson, EntityOrg, EntityGPE, EntityLocation:
		return true
	}
	return false
}

// SourceType records how the article reached the analyzer
type SourceType string

const (
	SourceTypeText SourceType = "text"
	SourceTypeURL  SourceType = "url"
)

// Article is the normalized input to an analysis
type Article struct {
	Title      string     `json:"title,omitempty" bson:"title,omitempty"`
	Text       string     `json:"text" bson:"text"`
	SourceURL  string     `json:"source_url,omitempty" bson:"source_url,omitempty"`
	SourceType SourceType `json:"source_type" bson:"source_type"`
	FetchMeta  *FetchMeta `json:"fetch_meta,omitempty" bson:"fetch_meta,omitempty"`
}

// Excerpt returns the first n runes of the article text
func (a Article) Excerpt(n int) string {
	runes := []rune(strings.TrimSpace(a.Text))
	if len(runes) <= n {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}
