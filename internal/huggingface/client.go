// Package huggingface talks to the hosted Inference API.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://router.huggingface.co/hf-inference/models"
	MaxRetries     = 5
	InitialBackoff = 1 * time.Second
	userAgent      = "VeriSense/1.0"
)

// Client posts JSON payloads to model endpoints
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	MaxRetries int

	// sleep is replaceable in tests
	sleep func(context.Context, time.Duration) error
}

// NewClient creates an Inference API client
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: timeout},
		MaxRetries: MaxRetries,
		sleep:      sleepContext,
	}
}

// Request is the Inference API payload
type Request struct {
	Inputs     any            `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    *Options       `json:"options,omitempty"`
}

// Options control model loading on the hosted side
type Options struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

// ModelURL returns the endpoint for a model
func (c *Client) ModelURL(model string) string {
	return c.BaseURL + "/" + strings.TrimLeft(model, "/")
}

// Infer posts req to the model endpoint and decodes the response into out
func (c *Client) Infer(ctx context.Context, model string, req Request, out any) error {
	if req.Options == nil {
		req.Options = &Options{WaitForModel: true, UseCache: true}
	}
	return c.PostJSON(ctx, c.ModelURL(model), req, out)
}

// PostJSON sends input as JSON, retrying transport errors and 5xx responses
func (c *Client) PostJSON(ctx context.Context, endpoint string, input any, output any) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	resp, err := c.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", userAgent)
		if c.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.Token)
		}
		return req, nil
	})
	if err != nil {
		slog.Error("[HuggingFaceClient] Failed request after retries",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("request failed after retries: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		slog.Error("[HuggingFaceClient] Failed to unmarshal response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
			getPreview(respBody))
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// DoWithRetry issues the request built by newReq, backing off between attempts
func (c *Client) DoWithRetry(ctx context.Context, newReq func() (*http.Request, error)) (*http.Response, error) {
	attempts := c.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	backoff := InitialBackoff

	for attempt := 0; attempt < attempts; attempt++ {
		req, err := newReq()
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := c.HTTPClient.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("status code %d", resp.StatusCode)
			_ = resp.Body.Close()
		}

		if attempt == attempts-1 {
			break
		}

		slog.Warn("[HuggingFaceClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", lastErr.Error()))

		if err := c.sleep(ctx, backoff); err != nil {
			return nil, err
		}
		backoff *= 2
	}

	return nil, lastErr
}

// APIError is a non-retryable error response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("huggingface API error (status %d): %s", e.StatusCode, e.Message)
}

func errorMessage(body []byte) string {
	var payload struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != nil {
		return fmt.Sprint(payload.Error)
	}
	return getPreview(body).Value.String()
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SetSleep replaces the backoff sleep; nil restores the real one
func (c *Client) SetSleep(fn func(context.Context, time.Duration) error) {
	if fn == nil {
		fn = sleepContext
	}
	c.sleep = fn
}
