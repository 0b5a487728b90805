package model

import "testing"

func TestMeanSimilarity(t *testing.T) {
	tests := []struct {
		results []ClaimVerification
		desc    string
		want    float64
		wantOK  bool
	}{
		{nil, "No results", 0, false},
		{[]ClaimVerification{{Similarity: 0.8}}, "Single result", 0.8, true},
		{[]ClaimVerification{{Similarity: 0.2}, {Similarity: 0.6}}, "Average", 0.4, true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, ok := MeanSimilarity(tt.results)
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if got < tt.want-1e-9 || got > tt.want+1e-9 {
				t.Errorf("Expected %.2f, got %v", tt.want, got)
			}
		})
	}
}

func TestVerdictScore(t *testing.T) {
	tests := []struct {
		verdict Verdict
		want    float64
		wantOK  bool
	}{
		{VerdictTrue, 100, true},
		{VerdictMostlyTrue, 75, true},
		{VerdictMixed, 50, true},
		{VerdictMostlyFalse, 25, true},
		{VerdictFalse, 0, true},
		{VerdictUnrated, 0, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.verdict), func(t *testing.T) {
			got, ok := tt.verdict.Score()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Expected %v/%v, got %v/%v", tt.want, tt.wantOK, got, ok)
			}
		})
	}
}
