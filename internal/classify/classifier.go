// Package classify labels article text as real or fake news.
package classify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/verisense/internal/model"
)

// ErrEmptyText is returned when there is nothing to classify
var ErrEmptyText = errors.New("empty text")

// Classifier predicts whether text is real or fake news
type Classifier interface {
	Classify(ctx context.Context, text string) (model.Prediction, error)
	Name() string
}

// LabelScore is one raw model output
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// LabelMapper turns raw model labels into fake/real probabilities
type LabelMapper struct {
	fake map[string]bool
	real map[string]bool
}

// NewLabelMapper builds a mapper from the configured label names
func NewLabelMapper(fakeLabels, realLabels []string) LabelMapper {
	m := LabelMapper{fake: map[string]bool{}, real: map[string]bool{}}
	for _, l := range fakeLabels {
		m.fake[strings.ToLower(l)] = true
	}
	for _, l := range realLabels {
		m.real[strings.ToLower(l)] = true
	}
	return m
}

// Predict builds a prediction from raw label scores. A single reported
// label implies the complementary probability for the other class.
func (m LabelMapper) Predict(scores []LabelScore, modelName string) (model.Prediction, error) {
	var fake, real float64
	var haveFake, haveReal bool

	for _, s := range scores {
		label := strings.ToLower(s.Label)
		switch {
		case m.fake[label]:
			fake += s.Score
			haveFake = true
		case m.real[label]:
			real += s.Score
			haveReal = true
		}
	}

	switch {
	case !haveFake && !haveReal:
		return model.Prediction{}, fmt.Errorf("no known labels in model output %v", labelNames(scores))
	case haveFake && !haveReal:
		real = 1 - fake
	case haveReal && !haveFake:
		fake = 1 - real
	}

	total := fake + real
	if total > 0 {
		fake, real = fake/total, real/total
	}

	pred := model.Prediction{
		FakeProb: fake,
		RealProb: real,
		Model:    modelName,
	}
	if real >= fake {
		pred.Label = model.LabelReal
		pred.Confidence = real
	} else {
		pred.Label = model.LabelFake
		pred.Confidence = fake
	}
	return pred, nil
}

func labelNames(scores []LabelScore) []string {
	names := make([]string, 0, len(scores))
	for _, s := range scores {
		names = append(names, s.Label)
	}
	sort.Strings(names)
	return names
}

// Truncate cuts text to maxChars runes
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}
