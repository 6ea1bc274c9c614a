// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/deep-research/internal/provider"
	"github.com/mesh-intelligence/deep-research/pkg/types"
)

// Synthetic citation attached to fallback findings. Every fallback answer in
// a run shares this URI, so the registry assigns it a single index.
const (
	knowledgeSourceTitle = "Model internal knowledge"
	knowledgeSourceURI   = "model://internal-knowledge"
)

// knowledgeSearcher answers queries from the model's training data. It is
// the strategy of last resort, used when neither a search API key nor a
// provider with native search is available.
type knowledgeSearcher struct {
	client provider.Client
	log    *zap.Logger
}

// NewKnowledgeFallback returns the model-knowledge search strategy.
func NewKnowledgeFallback(client provider.Client, log *zap.Logger) Searcher {
	return &knowledgeSearcher{client: client, log: noplog(log)}
}

// Search implements Searcher.
func (s *knowledgeSearcher) Search(ctx context.Context, query string) (Result, error) {
	prompt := fmt.Sprintf(
		"You have no web access. From your own knowledge, summarize the most reliable facts about the following query in two to four dense paragraphs. Prefer concrete figures, names, and dates, and say plainly when your knowledge may be out of date.\n\nQuery: %s",
		query,
	)

	res, err := s.client.GenerateText(ctx, provider.Request{Prompt: prompt})
	if err != nil {
		return degrade(s.log, "knowledge", query, err)
	}
	if strings.TrimSpace(res.Text) == "" {
		return Result{Tokens: res.Tokens}, nil
	}

	return Result{
		Summary: res.Text,
		Sources: []types.Source{{Title: knowledgeSourceTitle, URI: knowledgeSourceURI}},
		Tokens:  res.Tokens,
	}, nil
}
