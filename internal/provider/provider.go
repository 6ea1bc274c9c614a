// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider abstracts the hosted LLM APIs behind a single
// text-generation interface. Two backends exist: the Gemini API and any
// endpoint speaking the OpenAI chat-completions protocol. The backend is
// selected once from the run settings; nothing dispatches on globals.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/deep-research/pkg/types"
)

// Default models used when the settings leave Model empty.
const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// Request is a single text-generation call. The model is bound to the
// client at construction, not per call.
type Request struct {
	// Prompt is the user prompt.
	Prompt string

	// SystemInstruction optionally steers the model for this call.
	SystemInstruction string

	// JSONMode asks the backend for a JSON-only response where supported.
	JSONMode bool

	// Temperature optionally overrides the backend default.
	Temperature *float32
}

// Result is the outcome of a generation call.
type Result struct {
	// Text is the model output, surrounding whitespace trimmed.
	Text string

	// Tokens is the total token usage reported by the backend, 0 when the
	// backend did not report usage.
	Tokens int
}

// Client is implemented by every provider backend.
type Client interface {
	GenerateText(ctx context.Context, req Request) (Result, error)
}

// GroundedResult is the outcome of a web-grounded generation call.
type GroundedResult struct {
	// Text is the grounded answer.
	Text string

	// Sources are the web citations backing the answer, deduplicated by
	// URI. Index is unset; the citation registry assigns it.
	Sources []types.Source

	// Tokens is the total token usage, 0 when unreported.
	Tokens int
}

// GroundedClient is implemented by backends with native web-grounded
// generation. Currently only Gemini qualifies.
type GroundedClient interface {
	GenerateGrounded(ctx context.Context, query string) (GroundedResult, error)
}

// New validates settings and returns the backend for settings.Provider.
// A missing API key or an unknown provider name yields a *ConfigError
// before any network traffic.
func New(ctx context.Context, settings types.ProviderSettings, httpCfg types.HTTPConfig) (Client, error) {
	if strings.TrimSpace(settings.APIKey) == "" {
		return nil, &ConfigError{Reason: "provider api key is required"}
	}

	switch settings.Provider {
	case types.ProviderGemini, "":
		return NewGemini(ctx, settings, httpCfg)
	case types.ProviderOpenAI:
		return NewOpenAI(settings, httpCfg), nil
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown provider %q (want gemini or openai)", settings.Provider)}
	}
}
