package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func noSleep(context.Context, time.Duration) error { return nil }

func TestInfer_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/org/model" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer hf_test" {
			t.Errorf("Expected bearer token, got %q", got)
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Inputs != "hello" {
			t.Errorf("Expected inputs hello, got %v", req.Inputs)
		}
		if req.Options == nil || !req.Options.WaitForModel {
			t.Error("Expected wait_for_model option")
		}

		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "hf_test", time.Second)
	var out struct {
		OK bool `json:"ok"`
	}
	if err := client.Infer(context.Background(), "org/model", Request{Inputs: "hello"}, &out); err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	if !out.OK {
		t.Error("Expected decoded response")
	}
}

func TestPostJSON_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	var slept []time.Duration
	client.SetSleep(func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	})

	var out []any
	if err := client.PostJSON(context.Background(), server.URL, map[string]string{"a": "b"}, &out); err != nil {
		t.Fatalf("PostJSON failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	if len(slept) != 2 || slept[0] != InitialBackoff || slept[1] != 2*InitialBackoff {
		t.Errorf("Expected doubling backoff, got %v", slept)
	}
}

func TestPostJSON_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	client.SetSleep(noSleep)

	var out any
	if err := client.PostJSON(context.Background(), server.URL, "x", &out); err == nil {
		t.Fatal("Expected error after retries")
	}
	if calls != MaxRetries {
		t.Errorf("Expected %d calls, got %d", MaxRetries, calls)
	}
}

func TestPostJSON_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "Invalid credentials in Authorization header"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad", time.Second)
	client.SetSleep(noSleep)

	var out any
	err := client.PostJSON(context.Background(), server.URL, "x", &out)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "Invalid credentials in Authorization header" {
		t.Errorf("Unexpected message: %q", apiErr.Message)
	}
	if calls != 1 {
		t.Errorf("Expected a single call, got %d", calls)
	}
}

func TestDoWithRetry_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	client.SetSleep(func(context.Context, time.Duration) error { return context.Canceled })

	var out any
	err := client.PostJSON(context.Background(), server.URL, "x", &out)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
