// Package llm talks to an OpenAI-compatible chat completions endpoint.
// The server proxy and the terminal client share it: the proxy relays the
// raw SSE body, the client decodes it delta by delta.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"scribble/scribble/utils/logging"
	"scribble/scribble/utils/types"
)

type Client struct {
	apiKey  string
	baseURL string
	model   string
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{apiKey: apiKey, baseURL: baseURL, model: model}
}

type chatRequest struct {
	Model     string              `json:"model,omitempty"`
	Messages  []types.ChatMessage `json:"messages"`
	Stream    bool                `json:"stream"`
	MaxTokens int                 `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type streamResponse struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *Client) post(ctx context.Context, req chatRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return http.DefaultClient.Do(httpReq)
}

// Run executes a single completion request (non-streaming).
func (c *Client) Run(ctx context.Context, messages []types.ChatMessage, maxTokens int) (string, error) {
	defer logging.LogDuration(ctx, "llm_run")()

	resp, err := c.post(ctx, chatRequest{Model: c.model, Messages: messages, Stream: false, MaxTokens: maxTokens})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("llm request failed: %s", resp.Status)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode llm response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no content in llm response")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// OpenStream starts a streaming completion and returns the raw SSE body.
// The proxy endpoint relays it to the browser untouched; the caller owns
// closing it. A non-OK upstream status is reported without the body text.
func (c *Client) OpenStream(ctx context.Context, messages []types.ChatMessage) (io.ReadCloser, error) {
	defer logging.LogDuration(ctx, "llm_open_stream")()

	resp, err := c.post(ctx, chatRequest{Model: c.model, Messages: messages, Stream: true})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("llm stream request failed: %s", resp.Status)
	}
	return resp.Body, nil
}
