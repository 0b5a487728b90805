package score

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/verisense/internal/model"
)

func fullInputs(verdict model.Verdict) Inputs {
	return Inputs{
		Prediction:    &model.Prediction{Label: model.LabelReal, Confidence: 0.9, RealProb: 0.9, FakeProb: 0.1},
		Verifications: []model.ClaimVerification{{Similarity: 0.7, Status: model.StatusRelated}, {Similarity: 0.9, Status: model.StatusVerified}},
		FactCheck:     model.FactCheckReport{Enabled: true, Verdict: verdict, Matches: []model.FactCheckMatch{{Publisher: "PolitiFact", Verdict: verdict}}},
		Linguistic:    &model.LinguisticResult{Risk: 0},
		Sentiment:     &model.SentimentResult{Label: "neutral", Risk: 10},
		Source:        &model.SourceAssessment{Domain: "reuters.com", Status: model.SourceTrusted, Tier: model.TierPrimary, Score: 100},
		Entity:        &model.EntityAssessment{Score: 80, Reason: "References recognized entities: NASA", EntityCount: 1},
	}
}

func findSignal(signals []model.Signal, typ model.SignalType) *model.Signal {
	for i := range signals {
		if signals[i].Type == typ {
			return &signals[i]
		}
	}
	return nil
}

func TestSynthesizer_AllSignals(t *testing.T) {
	s := NewSynthesizer(model.DefaultConfig().Scoring)
	got := s.Calculate(fullInputs(model.VerdictTrue))

	// 0.4*90 + 0.15*80 + 0.1*100 + 0.1*100 + 0.05*90 + 0.1*100 + 0.1*80
	if got.Value != 90.5 {
		t.Errorf("Expected 90.5, got %v", got.Value)
	}
	if got.Rating != model.RatingReliable || got.Color != ColorReliable {
		t.Errorf("Expected reliable rating, got %s/%s", got.Rating, got.Color)
	}
	if got.Confidence != "high" {
		t.Errorf("Expected high confidence, got %s", got.Confidence)
	}
	if len(got.Breakdown) != 7 {
		t.Fatalf("Expected 7 components, got %d", len(got.Breakdown))
	}
	for _, c := range got.Breakdown {
		if !c.Available {
			t.Errorf("Expected %s available", c.Name)
		}
	}
	if findSignal(got.Signals, model.SignalVerdictCap) != nil {
		t.Error("Expected no override when the score is already above the floor")
	}
}

func TestSynthesizer_RenormalizesMissingSignals(t *testing.T) {
	s := NewSynthesizer(model.DefaultConfig().Scoring)
	in := fullInputs(model.VerdictTrue)
	in.FactCheck = model.FactCheckReport{}

	got := s.Calculate(in)

	// 80.5 over the remaining 0.9 of weight
	if got.Value != 89.4 {
		t.Errorf("Expected 89.4, got %v", got.Value)
	}
	for _, c := range got.Breakdown {
		if c.Name == model.SignalFactCheck && (c.Available || c.Weight != 0) {
			t.Errorf("Expected fact-check unavailable with zero weight, got %+v", c)
		}
		if c.Name == model.SignalClassifier && c.Weight != 0.444 {
			t.Errorf("Expected classifier weight renormalized to 0.444, got %v", c.Weight)
		}
	}
}

func TestSynthesizer_UnratedFactCheckIsNotASignal(t *testing.T) {
	s := NewSynthesizer(model.DefaultConfig().Scoring)
	in := fullInputs(model.VerdictUnrated)

	got := s.Calculate(in)
	if got.Value != 89.4 {
		t.Errorf("Expected unrated fact-check left out, got %v", got.Value)
	}
	signal := findSignal(got.Signals, model.SignalFactCheck)
	if signal == nil || signal.Severity != model.SeverityInfo {
		t.Errorf("Expected informational fact-check signal, got %+v", signal)
	}
}

func TestSynthesizer_FalseVerdictCapsScore(t *testing.T) {
	s := NewSynthesizer(model.DefaultConfig().Scoring)
	got := s.Calculate(fullInputs(model.VerdictFalse))

	if got.Value != FactCheckCap {
		t.Errorf("Expected score capped at %v, got %v", FactCheckCap, got.Value)
	}
	if got.Rating != model.RatingUncertain {
		t.Errorf("Expected uncertain rating at the cap, got %s", got.Rating)
	}
	signal := findSignal(got.Signals, model.SignalVerdictCap)
	if signal == nil || signal.Severity != model.SeverityCritical {
		t.Fatalf("Expected critical override signal, got %+v", signal)
	}
	if signal.Data["before"].(float64) <= FactCheckCap {
		t.Errorf("Expected pre-cap value recorded, got %v", signal.Data["before"])
	}
	if findSignal(got.Signals, model.SignalDisagreement) == nil {
		t.Error("Expected disagreement signal for a 0 vs 100 spread")
	}
	if got.Confidence != "low" {
		t.Errorf("Expected low confidence on disagreement, got %s", got.Confidence)
	}
}

func TestSynthesizer_TrueVerdictFloorsScore(t *testing.T) {
	s := NewSynthesizer(model.DefaultConfig().Scoring)
	in := Inputs{
		Prediction:    &model.Prediction{Label: model.LabelFake, Confidence: 0.95, RealProb: 0.05, FakeProb: 0.95},
		Verifications: []model.ClaimVerification{{Similarity: 0.1, Status: model.StatusUnverified}},
		FactCheck:     model.FactCheckReport{Enabled: true, Verdict: model.VerdictTrue},
		Linguistic:    &model.LinguisticResult{Risk: 80},
		Sentiment:     &model.SentimentResult{Risk: 100},
		Source:        &model.SourceAssessment{Status: model.SourceSuspicious, Score: 0},
		Entity:        &model.EntityAssessment{Score: 40},
	}

	got := s.Calculate(in)
	if got.Value != FactCheckCap {
		t.Errorf("Expected score raised to %v, got %v", FactCheckCap, got.Value)
	}
	signal := findSignal(got.Signals, model.SignalVerdictCap)
	if signal == nil || signal.Severity != model.SeverityInfo {
		t.Errorf("Expected informational override signal, got %+v", signal)
	}
	if classifier := findSignal(got.Signals, model.SignalClassifier); classifier == nil || classifier.Severity != model.SeverityCritical {
		t.Errorf("Expected critical classifier signal, got %+v", classifier)
	}
}

func TestSynthesizer_NoSignals(t *testing.T) {
	s := NewSynthesizer(model.DefaultConfig().Scoring)
	got := s.Calculate(Inputs{})

	if got.Value != NeutralScore || got.Rating != model.RatingUncertain || got.Confidence != "low" {
		t.Errorf("Expected neutral uncertain low-confidence score, got %+v", got)
	}
	if len(got.Breakdown) != 7 {
		t.Errorf("Expected every component listed, got %d", len(got.Breakdown))
	}
	if len(got.Signals) != 0 {
		t.Errorf("Expected no signals, got %d", len(got.Signals))
	}
}

func TestSynthesizer_SingleSignal(t *testing.T) {
	s := NewSynthesizer(model.DefaultConfig().Scoring)
	got := s.Calculate(Inputs{
		Prediction: &model.Prediction{Label: model.LabelFake, Confidence: 0.7, RealProb: 0.3, FakeProb: 0.7},
	})

	if got.Value != 30 {
		t.Errorf("Expected classifier to carry the whole weight, got %v", got.Value)
	}
	if got.Rating != model.RatingFake || got.Color != ColorFake {
		t.Errorf("Expected fake rating, got %s/%s", got.Rating, got.Color)
	}
	if got.Confidence != "low" {
		t.Errorf("Expected low confidence with one signal, got %s", got.Confidence)
	}
	if got.Breakdown[0].Weight != 1 {
		t.Errorf("Expected full weight on the classifier, got %v", got.Breakdown[0].Weight)
	}
}

func TestSynthesizer_BreakdownOrder(t *testing.T) {
	s := NewSynthesizer(model.ScoringConfig{})
	got := s.Calculate(fullInputs(model.VerdictMostlyTrue))

	var names []model.SignalType
	for _, c := range got.Breakdown {
		names = append(names, c.Name)
	}
	want := []model.SignalType{
		model.SignalClassifier, model.SignalSemantic, model.SignalFactCheck,
		model.SignalLinguistic, model.SignalSentiment, model.SignalSource, model.SignalEntity,
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("Breakdown order mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizer_Rate(t *testing.T) {
	s := NewSynthesizer(model.DefaultConfig().Scoring)

	tests := []struct {
		value     float64
		desc      string
		want      model.Rating
		wantColor string
	}{
		{100, "Maximum", model.RatingReliable, ColorReliable},
		{70, "Reliable boundary", model.RatingReliable, ColorReliable},
		{69.9, "Just below reliable", model.RatingUncertain, ColorUncertain},
		{40, "Uncertain boundary", model.RatingUncertain, ColorUncertain},
		{39.9, "Just below uncertain", model.RatingFake, ColorFake},
		{0, "Minimum", model.RatingFake, ColorFake},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			rating, color := s.Rate(tt.value)
			if rating != tt.want || color != tt.wantColor {
				t.Errorf("Expected %s/%s, got %s/%s", tt.want, tt.wantColor, rating, color)
			}
		})
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		value     float64
		available int
		spread    float64
		desc      string
		want      string
	}{
		{90, 3, 10, "Too few signals", "low"},
		{90, 7, 70, "Signals disagree", "low"},
		{85, 5, 20, "Strong positive", "high"},
		{15, 6, 40, "Strong negative", "high"},
		{85, 4, 20, "Strong but only four signals", "medium"},
		{55, 7, 30, "Middle of the range", "medium"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := confidence(tt.value, tt.available, tt.spread); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
