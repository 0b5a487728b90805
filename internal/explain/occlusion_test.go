package explain

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"

	"github.com/ppiankov/verisense/internal/classify"
	"github.com/ppiankov/verisense/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// wordClassifier raises real probability for "confirmed" and lowers it for "shocking"
type wordClassifier struct {
	calls   int32
	failOn  string
	failAll bool
}

func (c *wordClassifier) Classify(_ context.Context, text string) (model.Prediction, error) {
	atomic.AddInt32(&c.calls, 1)
	if strings.TrimSpace(text) == "" {
		return model.Prediction{}, classify.ErrEmptyText
	}
	if c.failAll || (c.failOn != "" && !strings.Contains(text, c.failOn)) {
		return model.Prediction{}, errors.New("backend unavailable")
	}
	real := 0.5
	for _, w := range strings.Fields(text) {
		switch w {
		case "confirmed":
			real += 0.2
		case "shocking":
			real -= 0.3
		}
	}
	real = math.Max(0, math.Min(1, real))
	return model.Prediction{RealProb: real, FakeProb: 1 - real}, nil
}

func (c *wordClassifier) Name() string { return "word" }

func TestExplainer_Explain(t *testing.T) {
	c := &wordClassifier{}
	e := New(c, model.ExplainConfig{TopK: 2, Workers: 3})

	got, err := e.Explain(context.Background(), "officials confirmed the shocking report")
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}

	if got.Method != MethodOcclusion || got.Truncated {
		t.Errorf("Unexpected metadata: %+v", got)
	}
	if math.Abs(got.Baseline-0.4) > 1e-9 {
		t.Errorf("Expected baseline 0.4, got %v", got.Baseline)
	}
	if len(got.Tokens) != 5 {
		t.Fatalf("Expected 5 tokens, got %d", len(got.Tokens))
	}
	for i, tok := range got.Tokens {
		if tok.Position != i {
			t.Errorf("Expected tokens in text order, got position %d at %d", tok.Position, i)
		}
	}

	weights := map[string]float64{}
	for _, tok := range got.Tokens {
		weights[tok.Token] = tok.Weight
	}
	if weights["confirmed"] != 0.2 || weights["shocking"] != -0.3 || weights["report"] != 0 {
		t.Errorf("Unexpected weights: %v", weights)
	}

	if len(got.Top) != 2 || got.Top[0].Token != "shocking" || got.Top[1].Token != "confirmed" {
		t.Errorf("Expected top tokens by absolute weight, got %+v", got.Top)
	}
	// baseline + one per word
	if c.calls != 6 {
		t.Errorf("Expected 6 classifier calls, got %d", c.calls)
	}
}

func TestExplainer_Limits(t *testing.T) {
	c := &wordClassifier{}
	e := New(c, model.ExplainConfig{MaxTokens: 3, MaxChars: 1000})

	got, err := e.Explain(context.Background(), "one two three four five six")
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}
	if len(got.Tokens) != 3 || !got.Truncated {
		t.Errorf("Expected 3 attributed tokens and truncation flag, got %d, %v", len(got.Tokens), got.Truncated)
	}

	short := New(c, model.ExplainConfig{MaxChars: 9})
	got, err = short.Explain(context.Background(), "alpha beta gamma")
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}
	if len(got.Tokens) != 2 || !got.Truncated {
		t.Errorf("Expected text cut to 9 chars, got %+v", got.Tokens)
	}
}

func TestExplainer_SingleWord(t *testing.T) {
	got, err := New(&wordClassifier{}, model.ExplainConfig{}).Explain(context.Background(), "confirmed")
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}
	if len(got.Tokens) != 1 || math.Abs(got.Tokens[0].Weight-0.2) > 1e-9 {
		t.Errorf("Expected weight against neutral prior, got %+v", got.Tokens)
	}
}

func TestExplainer_Errors(t *testing.T) {
	if _, err := New(&wordClassifier{}, model.ExplainConfig{}).Explain(context.Background(), "  "); !errors.Is(err, classify.ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}

	if _, err := New(&wordClassifier{failAll: true}, model.ExplainConfig{}).Explain(context.Background(), "a b"); err == nil {
		t.Error("Expected error when the baseline fails")
	}

	// texts without "keep" fail, so only the occlusion of "keep" is lost
	partial := New(&wordClassifier{failOn: "keep"}, model.ExplainConfig{})
	got, err := partial.Explain(context.Background(), "keep this text")
	if err != nil {
		t.Fatalf("Expected partial success, got %v", err)
	}
	if len(got.Tokens) != 2 {
		t.Errorf("Expected failed occlusion skipped, got %+v", got.Tokens)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(&wordClassifier{}, model.ExplainConfig{}).Explain(ctx, "a b c"); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestTopK(t *testing.T) {
	tokens := []model.Attribution{
		{Token: "a", Weight: 0.1},
		{Token: "b", Weight: -0.5},
		{Token: "c", Weight: 0.3},
	}
	got := TopK(tokens, 2)
	if len(got) != 2 || got[0].Token != "b" || got[1].Token != "c" {
		t.Errorf("Unexpected order: %+v", got)
	}
	if tokens[0].Token != "a" {
		t.Error("Expected input left untouched")
	}
	if all := TopK(tokens, 0); len(all) != 3 {
		t.Errorf("Expected all tokens for k=0, got %d", len(all))
	}
}
