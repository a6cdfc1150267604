// Package summary generates short descriptions for bookmarks through
// an OpenAI-compatible chat completions endpoint. Generation runs in
// the background; failures produce a visible notice string instead of
// blocking bookmark creation.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stashspark/stashspark/internal/domain"
	"github.com/stashspark/stashspark/internal/utils"
)

// Summarizer produces a summary for one bookmark.
type Summarizer interface {
	Summarize(ctx context.Context, b domain.Bookmark) (string, error)
}

// ClientOptions configures the completion client.
type ClientOptions struct {
	APIKey  string // empty means summaries are disabled
	APIURL  string
	Model   string
	Timeout time.Duration
	HTTP    *http.Client // nil falls back to http.DefaultClient
}

// Client calls a chat completions API. It implements Summarizer.
type Client struct {
	opts ClientOptions
}

// NewClient creates a completion client.
func NewClient(opts ClientOptions) *Client {
	if opts.HTTP == nil {
		opts.HTTP = http.DefaultClient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{opts: opts}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.opts.APIKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize asks the model for a summary sized to the bookmark's
// content. API failures return a user-facing notice rather than an
// error so the stored summary explains what went wrong.
func (c *Client) Summarize(ctx context.Context, b domain.Bookmark) (string, error) {
	if !c.Enabled() {
		return "AI summaries are not configured.", nil
	}

	prompt, r := buildPrompt(b)
	body, err := json.Marshal(chatRequest{
		Model: c.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   r.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.opts.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("call completion API: %w", err)
	}
	defer utils.Close(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return "Summary unavailable: the configured API key was rejected.", nil
	case http.StatusTooManyRequests:
		return "Summary unavailable: API rate limit exceeded, try again later.", nil
	default:
		return "", fmt.Errorf("completion API returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("completion response carried no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
