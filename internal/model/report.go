package model

import "time"

// AnalysisResult is the complete output of one credibility analysis
type AnalysisResult struct {
	ID        string    `json:"id" bson:"id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Article   Article   `json:"article" bson:"article"`
	URLs      []string  `json:"urls,omitempty" bson:"urls,omitempty"` // URLs mentioned in the raw text

	Claims   []Claim  `json:"claims" bson:"claims"`
	Entities []Entity `json:"entities" bson:"entities"`

	Prediction    *Prediction         `json:"prediction,omitempty" bson:"prediction,omitempty"`
	Verifications []ClaimVerification `json:"verifications" bson:"verifications"`
	FactCheck     FactCheckReport     `json:"fact_check" bson:"fact_check"`
	Linguistic    LinguisticResult    `json:"linguistic" bson:"linguistic"`
	Sentiment     SentimentResult     `json:"sentiment" bson:"sentiment"`
	Source        SourceAssessment    `json:"source" bson:"source"`
	EntityCheck   EntityAssessment    `json:"entity_check" bson:"entity_check"`

	Summary     Summary      `json:"summary" bson:"summary"`
	Explanation *Explanation `json:"explanation,omitempty" bson:"explanation,omitempty"` // Token attribution (never affects score)

	Score Score `json:"score" bson:"score"`

	Warnings []string      `json:"warnings,omitempty" bson:"warnings,omitempty"`
	Duration time.Duration `json:"duration_ns" bson:"duration_ns"`
}

// Label is the classifier's binary decision
type Label string

const (
	LabelReal Label = "Real"
	LabelFake Label = "Fake"
)

// Prediction holds the classifier output for an article
type Prediction struct {
	Label      Label   `json:"label" bson:"label"`
	Confidence float64 `json:"confidence" bson:"confidence"` // max(fake, real)
	FakeProb   float64 `json:"fake_prob" bson:"fake_prob"`
	RealProb   float64 `json:"real_prob" bson:"real_prob"`
	Model      string  `json:"model,omitempty" bson:"model,omitempty"`
}

// VerificationStatus classifies how closely a claim matches the reference corpus
type VerificationStatus string

const (
	StatusVerified   VerificationStatus = "Verified"
	StatusRelated    VerificationStatus = "Related"
	StatusUnverified VerificationStatus = "Unverified"
)

// ClaimVerification is the best reference match for a single claim
type ClaimVerification struct {
	Claim       string             `json:"claim" bson:"claim"`
	MatchSource string             `json:"match_source" bson:"match_source"`
	Similarity  float64            `json:"similarity" bson:"similarity"` // cosine, clamped to 0-1
	Status      VerificationStatus `json:"status" bson:"status"`
}

// MeanSimilarity is the average best-match similarity (0-1); ok is false for no results
func MeanSimilarity(results []ClaimVerification) (float64, bool) {
	if len(results) == 0 {
		return 0, false
	}
	var sum float64
	for _, r := range results {
		sum += r.Similarity
	}
	return sum / float64(len(results)), true
}

// Verdict is a normalized external fact-check rating
type Verdict string

const (
	VerdictTrue        Verdict = "true"
	VerdictMostlyTrue  Verdict = "mostly_true"
	VerdictMixed       Verdict = "mixed"
	VerdictMostlyFalse Verdict = "mostly_false"
	VerdictFalse       Verdict = "false"
	VerdictUnrated     Verdict = "unrated"
)

// Score maps a verdict onto 0-100; ok is false for unrated
func (v Verdict) Score() (score float64, ok bool) {
	switch v {
	case VerdictTrue:
		return 100, true
	case VerdictMostlyTrue:
		return 75, true
	case VerdictMixed:
		return 50, true
	case VerdictMostlyFalse:
		return 25, true
	case VerdictFalse:
		return 0, true
	default:
		return 0, false
	}
}

// FactCheckMatch is one published review returned by the fact-check service
type FactCheckMatch struct {
	Claim     string  `json:"claim" bson:"claim"`
	Publisher string  `json:"publisher" bson:"publisher"`
	Rating    string  `json:"rating" bson:"rating"` // textual rating as published
	URL       string  `json:"url" bson:"url"`
	Title     string  `json:"title,omitempty" bson:"title,omitempty"`
	Verdict   Verdict `json:"verdict" bson:"verdict"`
	Score     float64 `json:"score" bson:"score"` // 0-100
}

// FactCheckReport groups external fact-check results for an analysis
type FactCheckReport struct {
	Enabled bool             `json:"enabled" bson:"enabled"`
	Queries []string         `json:"queries,omitempty" bson:"queries,omitempty"`
	Matches []FactCheckMatch `json:"matches,omitempty" bson:"matches,omitempty"`
	Verdict Verdict          `json:"verdict,omitempty" bson:"verdict,omitempty"` // aggregate over matches
}

// LinguisticResult captures rule-based style red flags
type LinguisticResult struct {
	Risk         float64  `json:"risk" bson:"risk"` // 0-100
	Flags        []string `json:"flags,omitempty" bson:"flags,omitempty"`
	Readability  float64  `json:"readability" bson:"readability"` // Flesch reading ease
	CapsRatio    float64  `json:"caps_ratio" bson:"caps_ratio"`
	Exclamations int      `json:"exclamations" bson:"exclamations"`
}

// SentimentResult captures tone and sensationalism
type SentimentResult struct {
	Label            string   `json:"label" bson:"label"` // positive, negative, neutral
	Compound         float64  `json:"compound" bson:"compound"`
	Intensity        float64  `json:"intensity" bson:"intensity"`
	Sensationalism   float64  `json:"sensationalism" bson:"sensationalism"` // 0-1
	Risk             float64  `json:"risk" bson:"risk"`                     // 0-100
	SensationalTerms []string `json:"sensational_terms,omitempty" bson:"sensational_terms,omitempty"`
}

// EntityAssessment rates how concrete and recognizable the named entities are
type EntityAssessment struct {
	Score       float64  `json:"score" bson:"score"` // 0-100
	Reason      string   `json:"reason" bson:"reason"`
	EntityCount int      `json:"entity_count" bson:"entity_count"`
	Anchors     []string `json:"anchors,omitempty" bson:"anchors,omitempty"`
}

// Summary is the generated article summary
type Summary struct {
	Text      string `json:"text" bson:"text"`
	Provider  string `json:"provider,omitempty" bson:"provider,omitempty"`
	Model     string `json:"model,omitempty" bson:"model,omitempty"`
	Generated bool   `json:"generated" bson:"generated"` // false when passthrough or fallback
}

// Attribution is the contribution of one token to the classifier decision.
// Positive weight pushes toward Real.
type Attribution struct {
	Token    string  `json:"token" bson:"token"`
	Position int     `json:"position" bson:"position"`
	Weight   float64 `json:"weight" bson:"weight"`
}

// Explanation holds per-token attribution for the classifier decision
type Explanation struct {
	Method    string        `json:"method" bson:"method"`
	Baseline  float64       `json:"baseline" bson:"baseline"` // real probability of the unmodified text
	Tokens    []Attribution `json:"tokens" bson:"tokens"`     // in text order
	Top       []Attribution `json:"top" bson:"top"`           // by absolute weight
	Truncated bool          `json:"truncated" bson:"truncated"`
}

// Rating is the human-facing credibility band
type Rating string

const (
	RatingReliable  Rating = "Likely Reliable"
	RatingUncertain Rating = "Uncertain / Verification Needed"
	RatingFake      Rating = "Likely Fake / Misleading"
)

// Score represents the transparent credibility breakdown
type Score struct {
	Value      float64          `json:"value" bson:"value"` // 0-100, one decimal
	Rating     Rating           `json:"rating" bson:"rating"`
	Color      string           `json:"color" bson:"color"`
	Confidence string           `json:"confidence" bson:"confidence"` // "low", "medium", "high"
	Breakdown  []ScoreComponent `json:"breakdown" bson:"breakdown"`
	Signals    []Signal         `json:"signals" bson:"signals"`
}

// ScoreComponent is one weighted input to the credibility score
type ScoreComponent struct {
	Name      SignalType `json:"name" bson:"name"`
	Value     float64    `json:"value" bson:"value"`   // 0-100
	Weight    float64    `json:"weight" bson:"weight"` // effective weight after renormalization
	Available bool       `json:"available" bson:"available"`
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type" bson:"type"`
	Severity    SignalSeverity         `json:"severity" bson:"severity"`
	Description string                 `json:"description" bson:"description"`
	Data        map[string]interface{} `json:"data,omitempty" bson:"data,omitempty"` // formulas and inputs
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalClassifier   SignalType = "classifier"
	SignalSemantic     SignalType = "semantic_verification"
	SignalFactCheck    SignalType = "fact_check"
	SignalLinguistic   SignalType = "linguistic"
	SignalSentiment    SignalType = "sentiment"
	SignalSource       SignalType = "source"
	SignalEntity       SignalType = "entity"
	SignalVerdictCap   SignalType = "fact_check_override"
	SignalDisagreement SignalType = "signal_disagreement"
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
