// Package websearch provides WebSearcher implementations for external
// fallback lookups.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zephyrlab/triad/core"
)

const defaultTavilyEndpoint = "https://api.tavily.com/search"

// TavilyOptions configures a TavilySearcher.
type TavilyOptions struct {
	// Endpoint overrides the API URL, mainly for tests.
	Endpoint string
	// MaxResults caps the number of results requested. Defaults to 5.
	MaxResults int
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// TavilySearcher queries the Tavily search API.
type TavilySearcher struct {
	apiKey     string
	endpoint   string
	maxResults int
	client     *http.Client
}

var _ core.WebSearcher = (*TavilySearcher)(nil)

// NewTavilySearcher creates a searcher with the given API key and optional
// configuration.
func NewTavilySearcher(apiKey string, optFns ...func(o *TavilyOptions)) *TavilySearcher {
	opts := TavilyOptions{
		Endpoint:   defaultTavilyEndpoint,
		MaxResults: 5,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &TavilySearcher{
		apiKey:     apiKey,
		endpoint:   opts.Endpoint,
		maxResults: opts.MaxResults,
		client:     opts.HTTPClient,
	}
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search executes a web search. Transport and non-2xx failures are returned
// as capability errors so callers can degrade gracefully.
func (s *TavilySearcher) Search(ctx context.Context, query string) ([]core.WebResult, error) {
	body, err := json.Marshal(tavilyRequest{APIKey: s.apiKey, Query: query, MaxResults: s.maxResults})
	if err != nil {
		return nil, core.Unavailable("websearch.search", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, core.Unavailable("websearch.search", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, core.Unavailable("websearch.search", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, core.Unavailable("websearch.search", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, core.Unavailable("websearch.search", fmt.Errorf("tavily returned status %d: %s", resp.StatusCode, raw))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, core.Malformed("websearch.search", err)
	}

	results := make([]core.WebResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, core.WebResult{Title: r.Title, Snippet: r.Content, URL: r.URL, Score: r.Score})
	}
	return results, nil
}
