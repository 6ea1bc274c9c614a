// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures of the research pipeline:
// run configuration, outlines, findings, and finished reports.
package types

import (
	"fmt"
	"strings"
)

// Depth controls how thorough a research run is. It determines the number
// of chapters the outline targets.
type Depth string

const (
	DepthBrief    Depth = "brief"
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

// ChapterTarget returns the number of chapters an outline should contain
// for this depth: 4 for brief, 6 for standard, 10 for deep.
func (d Depth) ChapterTarget() int {
	switch d {
	case DepthBrief:
		return 4
	case DepthDeep:
		return 10
	default:
		return 6
	}
}

// ParseDepth converts a user-supplied string into a Depth. It accepts the
// canonical names case-insensitively and returns DepthStandard for "".
func ParseDepth(s string) (Depth, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(DepthStandard):
		return DepthStandard, nil
	case string(DepthBrief):
		return DepthBrief, nil
	case string(DepthDeep):
		return DepthDeep, nil
	default:
		return "", fmt.Errorf("unknown depth %q (want brief, standard, or deep)", s)
	}
}

// ResearchConfig describes a single research run.
type ResearchConfig struct {
	// Query is the research topic as entered by the user.
	Query string `json:"query" yaml:"query"`

	// Depth selects the outline size: brief, standard, or deep.
	Depth Depth `json:"depth" yaml:"depth"`

	// Breadth is the number of search queries generated per chapter
	// (default 3).
	Breadth int `json:"breadth" yaml:"breadth"`
}

// Validate reports whether the run configuration is usable.
func (c ResearchConfig) Validate() error {
	if strings.TrimSpace(c.Query) == "" {
		return fmt.Errorf("research query must not be empty")
	}
	if c.Breadth < 0 {
		return fmt.Errorf("breadth must not be negative, got %d", c.Breadth)
	}
	return nil
}

// Provider identifies which LLM backend a run uses.
type Provider string

const (
	// ProviderGemini is the hosted Gemini API. It is the only provider with
	// native grounded web search.
	ProviderGemini Provider = "gemini"

	// ProviderOpenAI is any endpoint speaking the OpenAI chat-completions
	// protocol, including local servers.
	ProviderOpenAI Provider = "openai"
)

// ProviderSettings carries the credentials and model selection for a run.
// Settings are passed explicitly into constructors; nothing reads them from
// package-level state.
type ProviderSettings struct {
	// Provider selects the backend: gemini or openai.
	Provider Provider `json:"provider" yaml:"provider"`

	// APIKey authenticates against the provider. Runs fail immediately
	// when it is empty.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the endpoint for openai-compatible servers
	// (default "https://api.openai.com/v1"). Ignored by gemini.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Model is the model identifier (e.g. "gemini-2.5-flash"). Empty
	// selects the provider default.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// SearchAPIKey is an optional key for the managed web-search API.
	// When set (and the provider has no native search) web searches go
	// through that API instead of the model's own knowledge.
	SearchAPIKey string `json:"search_api_key,omitempty" yaml:"search_api_key,omitempty"`
}
