// Package peer dispatches the search-and-evaluate work of a research
// round to a remote worker over HTTP JSON. Client implements
// research.RoundProcessor, so the orchestrator cannot tell a remote
// round from a local one.
package peer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mikeboe/deep-research/pkg/research"
)

// SearchProcessRequest asks a peer to run one search round.
type SearchProcessRequest struct {
	Query              string                  `json:"query"`
	AccumulatedSources []research.SearchResult `json:"accumulatedSources"`
}

// SearchProcessResponse carries the relevant subset found by a peer.
type SearchProcessResponse struct {
	SearchResults []research.SearchResult `json:"searchResults"`
	Message       string                  `json:"message"`
}

// EvaluationRequest asks a peer to classify one pending result.
type EvaluationRequest struct {
	Query              string                  `json:"query"`
	PendingResult      research.SearchResult   `json:"pendingResult"`
	AccumulatedSources []research.SearchResult `json:"accumulatedSources"`
}

// EvaluationResponse carries the verdict for one pending result.
type EvaluationResponse struct {
	Evaluation research.Verdict `json:"evaluation"`
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// ProcessSearch forwards one search round to the peer.
func (c *Client) ProcessSearch(ctx context.Context, query string, accumulated []research.SearchResult) ([]research.SearchResult, error) {
	req := SearchProcessRequest{Query: query, AccumulatedSources: accumulated}
	var resp SearchProcessResponse
	if err := c.post(ctx, "/peer/search", req, &resp); err != nil {
		return nil, err
	}
	return resp.SearchResults, nil
}

// Evaluate forwards one relevance classification to the peer.
func (c *Client) Evaluate(ctx context.Context, query string, pending research.SearchResult, accumulated []research.SearchResult) (research.Verdict, error) {
	req := EvaluationRequest{Query: query, PendingResult: pending, AccumulatedSources: accumulated}
	var resp EvaluationResponse
	if err := c.post(ctx, "/peer/evaluate", req, &resp); err != nil {
		return "", err
	}
	if resp.Evaluation != research.VerdictRelevant && resp.Evaluation != research.VerdictIrrelevant {
		return "", fmt.Errorf("peer returned unexpected evaluation %q", resp.Evaluation)
	}
	return resp.Evaluation, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", research.ErrPeerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("peer returned status %d: %s", resp.StatusCode, respBody)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode peer response: %w", err)
	}
	return nil
}
