package model

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Agencies, wire services, official bodies
	TierSecondary AuthorityTier = 2 // Major publishers and fact-checkers
	TierTertiary  AuthorityTier = 3 // Blogs, aggregators, everything else
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// SourceStatus is the verdict on the publishing domain
type SourceStatus string

const (
	SourceTrusted    SourceStatus = "Trusted Source"
	SourceSuspicious SourceStatus = "Suspicious/Satire"
	SourceUnverified SourceStatus = "Unverified Source"
	SourceUnknown    SourceStatus = "Unknown"
	SourceInvalidURL SourceStatus = "Invalid URL"
)

// SourceAssessment rates the domain an article was published on
type SourceAssessment struct {
	URL    string        `json:"url,omitempty" bson:"url,omitempty"`
	Domain string        `json:"domain,omitempty" bson:"domain,omitempty"`
	Score  float64       `json:"score" bson:"score"` // 0-100
	Status SourceStatus  `json:"status" bson:"status"`
	Tier   AuthorityTier `json:"tier" bson:"tier"`
}

// FetchMeta contains HTTP metadata from fetching the source
type FetchMeta struct {
	StatusCode   int               `json:"status_code" bson:"status_code"`
	FinalURL     string            `json:"final_url,omitempty" bson:"final_url,omitempty"`
	ContentType  string            `json:"content_type,omitempty" bson:"content_type,omitempty"`
	LastModified string            `json:"last_modified,omitempty" bson:"last_modified,omitempty"`
	ETag         string            `json:"etag,omitempty" bson:"etag,omitempty"`
	Headers      map[string]string `json:"headers,omitempty" bson:"headers,omitempty"`
	FromCache    bool              `json:"from_cache,omitempty" bson:"from_cache,omitempty"`
}
