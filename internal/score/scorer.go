// Package score synthesizes the layer outputs into one credibility score.
package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/verisense/internal/model"
)

// Rating colors
const (
	ColorReliable  = "#10B981"
	ColorUncertain = "#F59E0B"
	ColorFake      = "#EF4444"
)

const (
	// NeutralScore is reported when no signal is available
	NeutralScore = 50.0

	// FactCheckCap bounds the score when published fact-checks agree on a verdict
	FactCheckCap = 40.0

	disagreementSpread = 60.0
)

// Inputs are the layer results; nil (or unavailable) layers are left out
// of the weighted sum and the remaining weights are renormalized.
type Inputs struct {
	Prediction    *model.Prediction
	Verifications []model.ClaimVerification
	FactCheck     model.FactCheckReport
	Linguistic    *model.LinguisticResult
	Sentiment     *model.SentimentResult
	Source        *model.SourceAssessment
	Entity        *model.EntityAssessment
}

// Synthesizer calculates the credibility score and its signals
type Synthesizer struct {
	cfg model.ScoringConfig
}

// NewSynthesizer creates a synthesizer; zero thresholds take the defaults
func NewSynthesizer(cfg model.ScoringConfig) *Synthesizer {
	defaults := model.DefaultConfig().Scoring
	if cfg.ReliableThreshold <= 0 {
		cfg.ReliableThreshold = defaults.ReliableThreshold
	}
	if cfg.UncertainThreshold <= 0 {
		cfg.UncertainThreshold = defaults.UncertainThreshold
	}
	if cfg.Weights == (model.WeightsConfig{}) {
		cfg.Weights = defaults.Weights
	}
	return &Synthesizer{cfg: cfg}
}

type component struct {
	name      model.SignalType
	value     float64
	weight    float64
	available bool
	signal    model.Signal
}

// Calculate combines the available signals into a 0-100 score
func (s *Synthesizer) Calculate(in Inputs) model.Score {
	w := s.cfg.Weights
	components := []component{
		s.classifierComponent(in.Prediction, w.Classifier),
		s.semanticComponent(in.Verifications, w.Semantic),
		s.factCheckComponent(in.FactCheck, w.FactCheck),
		s.linguisticComponent(in.Linguistic, w.Linguistic),
		s.sentimentComponent(in.Sentiment, w.Sentiment),
		s.sourceComponent(in.Source, w.Source),
		s.entityComponent(in.Entity, w.Entity),
	}

	totalWeight := 0.0
	for _, c := range components {
		if c.available && c.weight > 0 {
			totalWeight += c.weight
		}
	}

	result := model.Score{}
	var values []float64
	value := 0.0
	for _, c := range components {
		used := c.available && c.weight > 0 && totalWeight > 0
		effective := 0.0
		if used {
			effective = c.weight / totalWeight
			value += c.value * effective
			values = append(values, c.value)
		}
		result.Breakdown = append(result.Breakdown, model.ScoreComponent{
			Name:      c.name,
			Value:     round1(c.value),
			Weight:    math.Round(effective*1000) / 1000,
			Available: used,
		})
		if c.signal.Type != "" {
			if used {
				c.signal.Data["weight"] = effective
			}
			result.Signals = append(result.Signals, c.signal)
		}
	}

	if len(values) == 0 {
		result.Value = NeutralScore
		result.Rating, result.Color = s.Rate(NeutralScore)
		result.Confidence = "low"
		return result
	}

	value = clamp(value)
	if capped, signal, ok := applyVerdict(value, in.FactCheck); ok {
		value = capped
		result.Signals = append(result.Signals, signal)
	}

	spread := spreadOf(values)
	if spread > disagreementSpread {
		result.Signals = append(result.Signals, model.Signal{
			Type:        model.SignalDisagreement,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("Signals disagree strongly (spread %.0f points)", spread),
			Data: map[string]interface{}{
				"spread":    spread,
				"threshold": disagreementSpread,
				"formula":   "max(signal) - min(signal)",
			},
		})
	}

	result.Value = round1(value)
	result.Rating, result.Color = s.Rate(result.Value)
	result.Confidence = confidence(result.Value, len(values), spread)
	return result
}

// Rate maps a score onto its rating band and color
func (s *Synthesizer) Rate(value float64) (model.Rating, string) {
	switch {
	case value >= s.cfg.ReliableThreshold:
		return model.RatingReliable, ColorReliable
	case value >= s.cfg.UncertainThreshold:
		return model.RatingUncertain, ColorUncertain
	default:
		return model.RatingFake, ColorFake
	}
}

func (s *Synthesizer) classifierComponent(p *model.Prediction, weight float64) component {
	c := component{name: model.SignalClassifier, weight: weight}
	if p == nil {
		return c
	}
	c.available = true
	c.value = p.RealProb * 100

	severity := model.SeverityInfo
	if p.Label == model.LabelFake {
		severity = model.SeverityCritical
		if p.Confidence < 0.7 {
			severity = model.SeverityWarning
		}
	}
	c.signal = model.Signal{
		Type:        model.SignalClassifier,
		Severity:    severity,
		Description: fmt.Sprintf("Classifier predicts %s (%.0f%% confidence)", p.Label, p.Confidence*100),
		Data: map[string]interface{}{
			"label":     string(p.Label),
			"real_prob": p.RealProb,
			"fake_prob": p.FakeProb,
			"model":     p.Model,
			"value":     c.value,
			"formula":   "real_prob * 100",
		},
	}
	return c
}

func (s *Synthesizer) semanticComponent(results []model.ClaimVerification, weight float64) component {
	c := component{name: model.SignalSemantic, weight: weight}
	mean, ok := model.MeanSimilarity(results)
	if !ok {
		return c
	}
	c.available = true
	c.value = mean * 100

	counts := map[model.VerificationStatus]int{}
	for _, r := range results {
		counts[r.Status]++
	}

	severity := model.SeverityInfo
	if counts[model.StatusVerified]+counts[model.StatusRelated] == 0 {
		severity = model.SeverityWarning
	}
	c.signal = model.Signal{
		Type:     model.SignalSemantic,
		Severity: severity,
		Description: fmt.Sprintf("%d of %d claims match trusted statements (%d verified, %d related)",
			counts[model.StatusVerified]+counts[model.StatusRelated], len(results),
			counts[model.StatusVerified], counts[model.StatusRelated]),
		Data: map[string]interface{}{
			"claims":          len(results),
			"verified":        counts[model.StatusVerified],
			"related":         counts[model.StatusRelated],
			"mean_similarity": mean,
			"value":           c.value,
			"formula":         "mean(best_similarity) * 100",
		},
	}
	return c
}

func (s *Synthesizer) factCheckComponent(report model.FactCheckReport, weight float64) component {
	c := component{name: model.SignalFactCheck, weight: weight}
	if !report.Enabled {
		return c
	}
	value, rated := report.Verdict.Score()
	if !rated {
		c.signal = model.Signal{
			Type:        model.SignalFactCheck,
			Severity:    model.SeverityInfo,
			Description: fmt.Sprintf("No rated fact-checks found (%d reviews)", len(report.Matches)),
			Data: map[string]interface{}{
				"queries": len(report.Queries),
				"matches": len(report.Matches),
			},
		}
		return c
	}
	c.available = true
	c.value = value

	severity := model.SeverityInfo
	switch report.Verdict {
	case model.VerdictFalse:
		severity = model.SeverityCritical
	case model.VerdictMostlyFalse, model.VerdictMixed:
		severity = model.SeverityWarning
	}

	publishers := make([]string, 0, len(report.Matches))
	for _, m := range report.Matches {
		publishers = append(publishers, m.Publisher)
	}
	c.signal = model.Signal{
		Type:        model.SignalFactCheck,
		Severity:    severity,
		Description: fmt.Sprintf("Published fact-checks rate related claims as %s", strings.ReplaceAll(string(report.Verdict), "_", " ")),
		Data: map[string]interface{}{
			"verdict":    string(report.Verdict),
			"matches":    len(report.Matches),
			"publishers": publishers,
			"value":      value,
			"formula":    "verdict score (true 100, mostly true 75, mixed 50, mostly false 25, false 0)",
		},
	}
	return c
}

func (s *Synthesizer) linguisticComponent(l *model.LinguisticResult, weight float64) component {
	c := component{name: model.SignalLinguistic, weight: weight}
	if l == nil {
		return c
	}
	c.available = true
	c.value = math.Max(0, 100-l.Risk)
	c.signal = model.Signal{
		Type:        model.SignalLinguistic,
		Severity:    riskSeverity(l.Risk),
		Description: fmt.Sprintf("Linguistic risk %.0f/100 (%d red flags)", l.Risk, len(l.Flags)),
		Data: map[string]interface{}{
			"risk":        l.Risk,
			"flags":       l.Flags,
			"readability": l.Readability,
			"caps_ratio":  l.CapsRatio,
			"value":       c.value,
			"formula":     "100 - risk",
		},
	}
	return c
}

func (s *Synthesizer) sentimentComponent(st *model.SentimentResult, weight float64) component {
	c := component{name: model.SignalSentiment, weight: weight}
	if st == nil {
		return c
	}
	c.available = true
	c.value = math.Max(0, 100-st.Risk)
	c.signal = model.Signal{
		Type:        model.SignalSentiment,
		Severity:    riskSeverity(st.Risk),
		Description: fmt.Sprintf("Tone is %s; sensationalism %.0f%%", st.Label, st.Sensationalism*100),
		Data: map[string]interface{}{
			"label":          st.Label,
			"compound":       st.Compound,
			"sensationalism": st.Sensationalism,
			"risk":           st.Risk,
			"value":          c.value,
			"formula":        "100 - (sensationalism*0.7 + (intensity > 0.9 ? 0.3 : 0)) * 100",
		},
	}
	return c
}

func (s *Synthesizer) sourceComponent(src *model.SourceAssessment, weight float64) component {
	c := component{name: model.SignalSource, weight: weight}
	if src == nil {
		return c
	}
	c.available = true
	c.value = src.Score

	severity := model.SeverityInfo
	switch src.Status {
	case model.SourceSuspicious:
		severity = model.SeverityCritical
	case model.SourceUnverified, model.SourceInvalidURL:
		severity = model.SeverityWarning
	}
	description := string(src.Status)
	if src.Domain != "" {
		description = fmt.Sprintf("%s (%s, %s tier)", src.Status, src.Domain, src.Tier)
	}
	c.signal = model.Signal{
		Type:        model.SignalSource,
		Severity:    severity,
		Description: description,
		Data: map[string]interface{}{
			"domain":  src.Domain,
			"status":  string(src.Status),
			"tier":    src.Tier.String(),
			"value":   c.value,
			"formula": "trusted 100, suspicious 0, otherwise 50",
		},
	}
	return c
}

func (s *Synthesizer) entityComponent(e *model.EntityAssessment, weight float64) component {
	c := component{name: model.SignalEntity, weight: weight}
	if e == nil {
		return c
	}
	c.available = true
	c.value = e.Score

	severity := model.SeverityInfo
	if e.Score < 50 {
		severity = model.SeverityWarning
	}
	c.signal = model.Signal{
		Type:        model.SignalEntity,
		Severity:    severity,
		Description: e.Reason,
		Data: map[string]interface{}{
			"entities": e.EntityCount,
			"anchors":  e.Anchors,
			"value":    c.value,
			"formula":  "none 40, unnamed 50, known anchor 80, otherwise 60",
		},
	}
	return c
}

// applyVerdict caps the score on a false verdict and floors it on a true one
func applyVerdict(value float64, report model.FactCheckReport) (float64, model.Signal, bool) {
	if !report.Enabled {
		return value, model.Signal{}, false
	}
	switch {
	case report.Verdict == model.VerdictFalse && value > FactCheckCap:
		return FactCheckCap, model.Signal{
			Type:        model.SignalVerdictCap,
			Severity:    model.SeverityCritical,
			Description: fmt.Sprintf("Score capped at %.0f: published fact-checks rate related claims false", FactCheckCap),
			Data: map[string]interface{}{
				"before":  value,
				"after":   FactCheckCap,
				"formula": "min(score, 40) when verdict is false",
			},
		}, true
	case report.Verdict == model.VerdictTrue && value < FactCheckCap:
		return FactCheckCap, model.Signal{
			Type:        model.SignalVerdictCap,
			Severity:    model.SeverityInfo,
			Description: fmt.Sprintf("Score raised to %.0f: published fact-checks rate related claims true", FactCheckCap),
			Data: map[string]interface{}{
				"before":  value,
				"after":   FactCheckCap,
				"formula": "max(score, 40) when verdict is true",
			},
		}, true
	}
	return value, model.Signal{}, false
}

func confidence(value float64, available int, spread float64) string {
	switch {
	case available < 4 || spread > disagreementSpread:
		return "low"
	case (value >= 80 || value <= 20) && available >= 5:
		return "high"
	default:
		return "medium"
	}
}

func riskSeverity(risk float64) model.SignalSeverity {
	switch {
	case risk >= 50:
		return model.SeverityCritical
	case risk > 0:
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

func spreadOf(values []float64) float64 {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return hi - lo
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
