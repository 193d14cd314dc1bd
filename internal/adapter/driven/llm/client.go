// Package llm implements the ReviewGenerator port against an OpenAI-compatible
// chat completions endpoint, falling back through an ordered model list.
package llm

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

	"github.com/reviewgate/reviewgate/internal/domain/port/driven"
)

const (
	// maxAttemptsPerModel caps how often a single model is retried before the
	// fallback moves on.
	maxAttemptsPerModel = 15
	// defaultRetrySleep is the pause after an upstream rate-limit response.
	defaultRetrySleep = 3 * time.Second
)

// Compile-time interface satisfaction check.
var _ driven.ReviewGenerator = (*Client)(nil)

// Client calls an OpenAI-compatible chat completions API. Each model in the
// ordered list is tried up to maxAttemptsPerModel times; on exhaustion the
// caller receives a GenerationExhaustedError carrying the last failure.
type Client struct {
	baseURL    string
	apiKey     string
	models     []string
	client     *http.Client
	logger     *slog.Logger
	retrySleep time.Duration
}

// NewClient creates a Client. timeout bounds each individual completion
// request; models must be non-empty.
func NewClient(baseURL, apiKey string, models []string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		models:     models,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
		retrySleep: defaultRetrySleep,
	}
}

// Generate produces a review for the given code using the configured model
// fallback chain. criteria (typically README text) is appended to the system
// prompt, matching how reviewers receive their grading rules.
func (c *Client) Generate(ctx context.Context, systemPrompt, criteria, code string) (driven.ReviewResult, error) {
	system := systemPrompt
	if criteria = strings.TrimSpace(criteria); criteria != "" {
		system = system + "\n" + criteria
	}

	var lastErr error
	for _, model := range c.models {
		for attempt := 1; attempt <= maxAttemptsPerModel; attempt++ {
			text, err := c.complete(ctx, model, system, code)
			if err == nil {
				return driven.ReviewResult{Text: text, Model: model}, nil
			}
			lastErr = err
			c.logger.Error("completion attempt failed", "model", model, "attempt", attempt, "error", err)

			if ctx.Err() != nil {
				return driven.ReviewResult{}, ctx.Err()
			}

			// A context-length failure will not recover on retry with the
			// same input; move to the next model immediately.
			if isContextLengthError(err) {
				break
			}

			if isUpstreamRateLimited(err) {
				select {
				case <-ctx.Done():
					return driven.ReviewResult{}, ctx.Err()
				case <-time.After(c.retrySleep):
				}
			}
		}
	}

	return driven.ReviewResult{}, &driven.GenerationExhaustedError{
		Model:     c.models[0],
		LastError: fmt.Sprintf("%v", lastErr),
	}
}

func (c *Client) complete(ctx context.Context, model, system, user string) (string, error) {
	temperature := 0.0
	body := completionRequest{
		Model:       model,
		Temperature: &temperature,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result completionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	if result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty text content in API response")
	}

	return result.Choices[0].Message.Content, nil
}

// isUpstreamRateLimited matches the error text OpenRouter-style gateways
// return when a free-tier model is throttled upstream.
func isUpstreamRateLimited(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "temporarily rate-limited upstream") ||
		strings.Contains(err.Error(), "status 429")
}

// isContextLengthError matches the provider messages for oversized input.
func isContextLengthError(err error) bool {
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "maximum context length is") ||
		strings.Contains(text, "exceeds the maximum number of tokens allowed")
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []choice `json:"choices"`
}

type choice struct {
	Message message `json:"message"`
}
