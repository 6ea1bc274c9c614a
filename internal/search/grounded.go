// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/deep-research/internal/provider"
)

// groundedSearcher runs queries through the provider's native web-grounded
// generation, so the summary and its citations come back in one call.
type groundedSearcher struct {
	client provider.GroundedClient
	log    *zap.Logger
}

// NewGrounded returns the provider-native search strategy.
func NewGrounded(client provider.GroundedClient, log *zap.Logger) Searcher {
	return &groundedSearcher{client: client, log: noplog(log)}
}

// Search implements Searcher.
func (s *groundedSearcher) Search(ctx context.Context, query string) (Result, error) {
	prompt := fmt.Sprintf(
		"Search the web for current, factual information about the following query and summarize what you find, including concrete figures and dates where available.\n\nQuery: %s",
		query,
	)

	res, err := s.client.GenerateGrounded(ctx, prompt)
	if err != nil {
		return degrade(s.log, "grounded", query, err)
	}

	return Result{
		Summary: res.Text,
		Sources: res.Sources,
		Tokens:  res.Tokens,
	}, nil
}
