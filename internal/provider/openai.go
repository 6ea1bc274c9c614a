// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mesh-intelligence/deep-research/internal/httputil"
	"github.com/mesh-intelligence/deep-research/pkg/types"
)

// defaultOpenAIBase is the hosted OpenAI endpoint. Compatible local servers
// (vLLM, Ollama, LM Studio) are selected through settings.BaseURL.
const defaultOpenAIBase = "https://api.openai.com/v1"

// OpenAIClient speaks the OpenAI chat-completions protocol.
type OpenAIClient struct {
	apiKey    string
	model     string
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewOpenAI builds a client from run settings. BaseURL defaults to the
// hosted endpoint and trailing slashes are trimmed.
func NewOpenAI(settings types.ProviderSettings, httpCfg types.HTTPConfig) *OpenAIClient {
	base := settings.BaseURL
	if base == "" {
		base = defaultOpenAIBase
	}
	model := settings.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIClient{
		apiKey:    settings.APIKey,
		model:     model,
		baseURL:   strings.TrimRight(base, "/"),
		userAgent: httpCfg.UserAgent,
		client:    httputil.NewClient(httpCfg),
	}
}

// chatRequest is the request body for the chat-completions endpoint.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// chatMessage is a single message in the conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// responseFormat selects structured output ({"type": "json_object"}).
type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse is the subset of the response body that is read.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// GenerateText implements Client. Non-2xx responses become *HTTPError with
// the status code and a truncated body; they are never retried here.
func (c *OpenAIClient) GenerateText(ctx context.Context, req Request) (Result, error) {
	var msgs []chatMessage
	if req.SystemInstruction != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.SystemInstruction})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.Prompt})

	body := chatRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: req.Temperature,
	}
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("marshaling chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("creating chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("calling chat completions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return Result{}, newHTTPError(resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("decoding chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Result{}, fmt.Errorf("chat response had no choices")
	}

	return Result{
		Text:   strings.TrimSpace(parsed.Choices[0].Message.Content),
		Tokens: parsed.Usage.TotalTokens,
	}, nil
}
