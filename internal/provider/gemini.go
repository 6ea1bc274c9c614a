// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/mesh-intelligence/deep-research/internal/httputil"
	"github.com/mesh-intelligence/deep-research/pkg/types"
)

// GeminiClient wraps the hosted Gemini API. It is the only backend with
// native web-grounded generation.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGemini builds the Gemini backend. ctx bounds client construction only,
// not later calls.
func NewGemini(ctx context.Context, settings types.ProviderSettings, httpCfg types.HTTPConfig) (*GeminiClient, error) {
	model := settings.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     settings.APIKey,
		HTTPClient: httputil.NewClient(httpCfg),
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// GenerateText implements Client.
func (g *GeminiClient) GenerateText(ctx context.Context, req Request) (Result, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: req.Temperature,
	}
	if req.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		{Parts: []*genai.Part{{Text: req.Prompt}}},
	}, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("calling gemini api: %w", err)
	}

	return Result{Text: candidateText(resp), Tokens: totalTokens(resp)}, nil
}

// GenerateGrounded implements GroundedClient: one generation call with the
// google-search tool enabled. Sources come from the grounding metadata's web
// chunks, deduplicated by URI.
func (g *GeminiClient) GenerateGrounded(ctx context.Context, query string) (GroundedResult, error) {
	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		{Parts: []*genai.Part{{Text: query}}},
	}, cfg)
	if err != nil {
		return GroundedResult{}, fmt.Errorf("calling gemini grounded search: %w", err)
	}

	out := GroundedResult{Text: candidateText(resp), Tokens: totalTokens(resp)}
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return out, nil
	}

	seen := make(map[string]bool)
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		title := chunk.Web.Title
		if title == "" {
			title = chunk.Web.Domain
		}
		out.Sources = append(out.Sources, types.Source{Title: title, URI: chunk.Web.URI})
	}
	return out, nil
}

// candidateText concatenates the text parts of the first candidate.
func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

// totalTokens reads the usage metadata, 0 when the API omitted it.
func totalTokens(resp *genai.GenerateContentResponse) int {
	if resp == nil || resp.UsageMetadata == nil {
		return 0
	}
	return int(resp.UsageMetadata.TotalTokenCount)
}
