// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/deep-research/internal/httputil"
	"github.com/mesh-intelligence/deep-research/pkg/types"
)

// tavilyAPIBase is the managed search endpoint. Package-level var for test
// substitution.
var tavilyAPIBase = "https://api.tavily.com/search"

// Fixed request parameters for the managed API: a shallow search with a
// synthesized answer and a small result set keeps latency and cost flat
// across the many queries a run issues.
const (
	tavilySearchDepth = "basic"
	tavilyMaxResults  = 5
)

// tavilySearcher calls the managed web-search API.
type tavilySearcher struct {
	apiKey    string
	userAgent string
	client    *http.Client
	log       *zap.Logger
}

// NewTavily returns the managed-API search strategy.
func NewTavily(apiKey string, httpCfg types.HTTPConfig, log *zap.Logger) Searcher {
	return &tavilySearcher{
		apiKey:    apiKey,
		userAgent: httpCfg.UserAgent,
		client:    httputil.NewClient(httpCfg),
		log:       noplog(log),
	}
}

// tavilyRequest is the request body for the search endpoint.
type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

// tavilyResponse is the subset of the response body that is read.
type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search implements Searcher.
func (s *tavilySearcher) Search(ctx context.Context, query string) (Result, error) {
	res, err := s.search(ctx, query)
	if err != nil {
		return degrade(s.log, "tavily", query, err)
	}
	return res, nil
}

func (s *tavilySearcher) search(ctx context.Context, query string) (Result, error) {
	payload, err := json.Marshal(tavilyRequest{
		APIKey:        s.apiKey,
		Query:         query,
		SearchDepth:   tavilySearchDepth,
		IncludeAnswer: true,
		MaxResults:    tavilyMaxResults,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshaling search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyAPIBase, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("calling search api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Result{}, fmt.Errorf("search api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("decoding search response: %w", err)
	}

	out := Result{Summary: strings.TrimSpace(parsed.Answer)}
	var contents []string
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		title := r.Title
		if title == "" {
			title = r.URL
		}
		out.Sources = append(out.Sources, types.Source{Title: title, URI: r.URL})
		if c := strings.TrimSpace(r.Content); c != "" {
			contents = append(contents, c)
		}
	}

	// Without a synthesized answer the result snippets stand in for it.
	if out.Summary == "" {
		out.Summary = strings.Join(contents, "\n\n")
	}
	return out, nil
}
