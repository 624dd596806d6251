// Package gemini is the generative fallback stage: a direct, single-turn
// call to the Gemini generateContent endpoint with a grounding prompt built
// from the knowledge document.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kenwebdev/folio/internal/composer"
	"github.com/kenwebdev/folio/internal/knowledge"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel   = "gemini-flash-lite-latest"
	defaultTimeout = 30 * time.Second
)

// ErrNoAPIKey is returned when no credential is configured. The pipeline
// treats it as terminal for the turn.
var ErrNoAPIKey = errors.New("gemini: no API key configured")

// RequestError reports a failed generateContent call. Terminal for the turn.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gemini: request failed (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gemini: request failed: %s", e.Message)
}

// Client calls the Gemini API. The credential travels as a query parameter,
// matching the REST contract of generateContent.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Gemini client. An empty apiKey is allowed at
// construction; Generate fails with ErrNoAPIKey when called without one.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// NewClientWithBaseURL creates a client pointing at a custom base URL
// (for testing).
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// WithModel overrides the model name.
func (c *Client) WithModel(model string) *Client {
	if model != "" {
		c.model = model
	}
	return c
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *apiError   `json:"error,omitempty"`
}

type candidate struct {
	Content *content `json:"content"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Generate sends a single user-role grounding prompt and returns the first
// candidate's first part text, trimmed. Every call is stateless: the only
// context is the knowledge record baked into the prompt.
func (c *Client) Generate(ctx context.Context, question, lang string, rec knowledge.Record) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	prompt := composer.BuildGrounding(question, lang, rec)
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &RequestError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RequestError{StatusCode: resp.StatusCode, Message: "reading response: " + err.Error()}
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", &RequestError{StatusCode: resp.StatusCode, Message: "decoding response: " + err.Error()}
	}
	if out.Error != nil {
		return "", &RequestError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("%s: %s", out.Error.Status, out.Error.Message)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &RequestError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if len(out.Candidates) == 0 || out.Candidates[0].Content == nil || len(out.Candidates[0].Content.Parts) == 0 {
		return "", &RequestError{StatusCode: resp.StatusCode, Message: "response has no candidates"}
	}
	return strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text), nil
}
