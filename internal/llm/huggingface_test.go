package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHuggingFaceProvider_Summarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/"+defaultHFSummaryModel {
			t.Errorf("Expected default model path, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer hf-token" {
			t.Errorf("Expected bearer token, got %q", r.Header.Get("Authorization"))
		}

		var req struct {
			Inputs     string         `json:"inputs"`
			Parameters map[string]any `json:"parameters"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Parameters["max_length"] != float64(150) || req.Parameters["min_length"] != float64(50) {
			t.Errorf("Unexpected length parameters: %v", req.Parameters)
		}
		if req.Parameters["do_sample"] != false {
			t.Errorf("Expected greedy decoding, got %v", req.Parameters["do_sample"])
		}

		_, _ = w.Write([]byte(`[{"summary_text": " A short summary. "}]`))
	}))
	defer server.Close()

	provider, err := NewHuggingFaceProvider(Config{BaseURL: server.URL, APIKey: "hf-token", Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Summarize(context.Background(), SummarizeRequest{Text: "long text", MaxLength: 150, MinLength: 50})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if resp.Summary != "A short summary." || resp.Model != defaultHFSummaryModel {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestHuggingFaceProvider_Errors(t *testing.T) {
	tests := []struct {
		status int
		body   string
		desc   string
	}{
		{http.StatusOK, `[]`, "Empty list"},
		{http.StatusOK, `[{"summary_text": "  "}]`, "Blank summary"},
		{http.StatusBadRequest, `{"error": "input too long"}`, "Client error"},
		{http.StatusServiceUnavailable, `{"error": "loading"}`, "Server keeps failing"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider, _ := NewHuggingFaceProvider(Config{BaseURL: server.URL})
			provider.SetSleep(func(context.Context, time.Duration) error { return nil })

			if _, err := provider.Summarize(context.Background(), SummarizeRequest{Text: "x"}); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}
