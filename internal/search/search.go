// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search provides the web-search strategies behind chapter
// research. A strategy is selected once per run from the provider settings;
// every strategy degrades silently on failure because a lost search must
// never fail a research run.
package search

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/deep-research/internal/provider"
	"github.com/mesh-intelligence/deep-research/pkg/types"
)

// Result is the outcome of one search call.
type Result struct {
	// Summary is the synthesized answer text, possibly empty.
	Summary string

	// Sources are the documents behind the summary. Index is unset here;
	// the citation registry assigns indices.
	Sources []types.Source

	// Tokens is the model usage incurred by strategies that call the
	// provider, 0 for the managed API.
	Tokens int
}

// Searcher executes one web search. Implementations return an empty Result
// and a nil error on transport or API failure (logged as a warning); only
// context cancellation propagates as an error.
type Searcher interface {
	Search(ctx context.Context, query string) (Result, error)
}

// Select picks the search strategy for the run settings:
//
//  1. the managed search API, when a search key is configured and the
//     provider has no native web search;
//  2. provider-native grounded search, when the provider supports it;
//  3. the model's own knowledge otherwise.
func Select(settings types.ProviderSettings, client provider.Client, httpCfg types.HTTPConfig, log *zap.Logger) Searcher {
	grounded, hasGrounded := client.(provider.GroundedClient)
	switch {
	case settings.SearchAPIKey != "" && !hasGrounded:
		return NewTavily(settings.SearchAPIKey, httpCfg, log)
	case hasGrounded:
		return NewGrounded(grounded, log)
	default:
		return NewKnowledgeFallback(client, log)
	}
}

// degrade logs a failed search and converts it to an empty result. Context
// errors pass through so cancellation can stop the run.
func degrade(log *zap.Logger, strategy, query string, err error) (Result, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Result{}, err
	}
	log.Warn("search degraded to empty result",
		zap.String("strategy", strategy),
		zap.String("query", query),
		zap.Error(err))
	return Result{}, nil
}

// noplog returns log, or a no-op logger when log is nil.
func noplog(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
