package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cochaviz/collaborative-agent/internal/agents"
	"github.com/cochaviz/collaborative-agent/internal/persistence"
)

// RunStatus mirrors GET /api/v1/status.
type RunStatus struct {
	Tick           uint64  `json:"tick"`
	Running        bool    `json:"running"`
	Speed          float64 `json:"speed"`
	Agents         int     `json:"agents"`
	Goals          int     `json:"goals"`
	GoalsSatisfied int     `json:"goals_satisfied"`
	Done           bool    `json:"done"`
	CompletedAt    uint64  `json:"completed_at"`
	Messages       int     `json:"messages"`
	ActionErrors   int     `json:"action_errors"`
	Episode        string  `json:"episode"`
	Uptime         string  `json:"uptime"`
}

// Client reads run state from a running server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a Client targeting the given API base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Status fetches the run status.
func (c *Client) Status() (*RunStatus, error) {
	var st RunStatus
	if err := c.fetchJSON("/api/v1/status", &st); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	return &st, nil
}

// Agents fetches every agent's status.
func (c *Client) Agents() ([]agents.Status, error) {
	var out []agents.Status
	if err := c.fetchJSON("/api/v1/agents", &out); err != nil {
		return nil, fmt.Errorf("fetch agents: %w", err)
	}
	return out, nil
}

// TrustHistory fetches the persisted trust snapshots of one agent.
func (c *Client) TrustHistory(agentID string, limit int) ([]persistence.TrustSnapshot, error) {
	path := fmt.Sprintf("/api/v1/agent/%s/trust?limit=%d", url.PathEscape(agentID), limit)
	var out []persistence.TrustSnapshot
	if err := c.fetchJSON(path, &out); err != nil {
		return nil, fmt.Errorf("fetch trust history: %w", err)
	}
	return out, nil
}

// WaitReady polls the status endpoint with exponential backoff until it
// responds or ctx ends.
func (c *Client) WaitReady(ctx context.Context) error {
	backoff := 500 * time.Millisecond
	maxBackoff := 10 * time.Second

	for {
		resp, err := c.HTTPClient.Get(c.BaseURL + "/api/v1/status")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		slog.Info("API not ready, retrying", "backoff", backoff)
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s: %w", c.BaseURL, ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (c *Client) fetchJSON(path string, target any) error {
	resp, err := c.HTTPClient.Get(c.BaseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
