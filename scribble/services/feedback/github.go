// Package feedback files visitor feedback as issues on a GitHub repository.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"scribble/scribble/utils/logging"
)

const defaultBaseURL = "https://api.github.com"

type Client struct {
	baseURL string
	token   string
	repo    string // "owner/name"
}

func NewClient(token, repo string) *Client {
	return &Client{baseURL: defaultBaseURL, token: token, repo: repo}
}

// NewClientWithBase points the client at a different API root. Tests use it
// to stand up a fake tracker.
func NewClientWithBase(baseURL, token, repo string) *Client {
	return &Client{baseURL: baseURL, token: token, repo: repo}
}

// Configured reports whether a token and target repository are set.
func (c *Client) Configured() bool {
	return c.token != "" && c.repo != ""
}

type issueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

type issueResponse struct {
	Number int `json:"number"`
}

// CreateIssue opens an issue and returns its number.
func (c *Client) CreateIssue(ctx context.Context, title, body string, labels []string) (int, error) {
	defer logging.LogDuration(ctx, "github_create_issue")()

	payload, err := json.Marshal(issueRequest{Title: title, Body: body, Labels: labels})
	if err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/repos/%s/issues", c.baseURL, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("issue creation failed: %s", resp.Status)
	}

	var parsed issueResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("failed to decode issue response: %w", err)
	}
	return parsed.Number, nil
}
