// Package proxy calls an optional first-party backend that wraps the
// generative API. The stage is best-effort: callers treat any failure as
// "no answer" and continue down the pipeline.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// ChatRequest is the JSON body sent to the backend /chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
	Lang    string `json:"lang"`
}

// ChatResponse is the success body returned by the backend.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// Client talks to the backend chat endpoint. Exactly one attempt per call,
// bounded by the HTTP client timeout; no retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a proxy client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Ask posts the question to {baseURL}/chat and returns the backend's reply.
// A transport error, non-2xx status, or malformed body is returned as an
// error; the pipeline converts it to "try next stage".
func (c *Client) Ask(ctx context.Context, message, lang string) (string, error) {
	body, err := json.Marshal(ChatRequest{Message: message, Lang: lang})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return strings.TrimSpace(out.Reply), nil
}
