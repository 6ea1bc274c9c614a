// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outline plans the chapter structure of a report. The plan comes
// from the provider as structured JSON; when the response cannot be decoded
// a deterministic fallback outline is used instead, so planning only fails
// on transport errors.
package outline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/mesh-intelligence/deep-research/internal/provider"
	"github.com/mesh-intelligence/deep-research/pkg/types"
)

// planSystemInstruction steers every planning call.
const planSystemInstruction = "You are a meticulous research planner. Respond with valid JSON only."

// outlinePromptTmpl asks the model for a report title and a fixed number of
// chapter titles as a JSON object.
var outlinePromptTmpl = template.Must(template.New("outline").Parse(`Design the outline of an in-depth research report.

Topic: {{.Query}}
Today's date: {{.Date}}
Target language: {{.Language}}

Requirements:
- Produce a report title and exactly {{.Chapters}} chapter titles.
- Chapters must progress logically: background and context first, then the current landscape, core mechanisms or key players, data and market analysis, challenges and controversies, and finally future outlook.
- Each chapter title must be specific to the topic, never a generic heading.
- Write the title and every chapter title in {{.Language}}.
- Avoid politically sensitive or restricted topics.

Respond with a JSON object only, no prose and no code fences, in this shape:
{"title": "...", "chapters": ["...", "..."]}
`))

// Generator produces outlines through a provider client.
type Generator struct {
	client   provider.Client
	language string
	now      func() time.Time
	log      *zap.Logger
}

// NewGenerator builds a Generator. The language defaults to English and the
// clock to time.Now.
func NewGenerator(client provider.Client, cfg types.EngineConfig, log *zap.Logger) *Generator {
	language := cfg.Language
	if language == "" {
		language = "English"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		client:   client,
		language: language,
		now:      time.Now,
		log:      log,
	}
}

// Generate plans an outline for query at the given depth and returns it with
// the token usage of the call. Decode failures never surface as errors; they
// produce the fallback outline. Transport errors propagate untouched so the
// orchestrator can fail the run.
func (g *Generator) Generate(ctx context.Context, query string, depth types.Depth) (types.Outline, int, error) {
	prompt, err := renderOutlinePrompt(query, g.language, g.now(), depth.ChapterTarget())
	if err != nil {
		return types.Outline{}, 0, fmt.Errorf("rendering outline prompt: %w", err)
	}

	res, err := g.client.GenerateText(ctx, provider.Request{
		Prompt:            prompt,
		SystemInstruction: planSystemInstruction,
		JSONMode:          true,
	})
	if err != nil {
		return types.Outline{}, 0, fmt.Errorf("generating outline: %w", err)
	}

	var parsed types.Outline
	if err := provider.DecodeJSON(res.Text, &parsed); err != nil {
		g.log.Warn("outline response was not decodable, using fallback outline",
			zap.String("query", query), zap.Error(err))
		return Fallback(query), res.Tokens, nil
	}

	out := normalize(parsed, query)
	if len(out.Chapters) == 0 {
		g.log.Warn("outline response had no chapters, using fallback outline",
			zap.String("query", query))
		return Fallback(query), res.Tokens, nil
	}
	return out, res.Tokens, nil
}

// Fallback is the deterministic outline used when the model's plan cannot
// be decoded: the topic itself as title over four generic chapters.
func Fallback(query string) types.Outline {
	return types.Outline{
		Title: query,
		Chapters: []string{
			"Background and Context",
			"Current Landscape",
			"Key Challenges and Risks",
			"Future Outlook",
		},
	}
}

// normalize trims the model's outline and drops empty chapter titles. An
// empty title falls back to the query.
func normalize(o types.Outline, query string) types.Outline {
	out := types.Outline{Title: strings.TrimSpace(o.Title)}
	if out.Title == "" {
		out.Title = query
	}
	for _, ch := range o.Chapters {
		if ch = strings.TrimSpace(ch); ch != "" {
			out.Chapters = append(out.Chapters, ch)
		}
	}
	return out
}

// renderOutlinePrompt executes the outline template.
func renderOutlinePrompt(query, language string, now time.Time, chapters int) (string, error) {
	var buf bytes.Buffer
	err := outlinePromptTmpl.Execute(&buf, struct {
		Query    string
		Date     string
		Language string
		Chapters int
	}{
		Query:    query,
		Date:     now.Format("January 2, 2006"),
		Language: language,
		Chapters: chapters,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Load reads an outline from a YAML file, typically one written by Save and
// then reviewed or edited by hand.
func Load(path string) (types.Outline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Outline{}, fmt.Errorf("reading outline %s: %w", path, err)
	}

	var o types.Outline
	if err := yaml.Unmarshal(data, &o); err != nil {
		return types.Outline{}, fmt.Errorf("parsing outline %s: %w", path, err)
	}

	o = normalize(o, "")
	if o.Title == "" {
		return types.Outline{}, fmt.Errorf("outline %s has no title", path)
	}
	if len(o.Chapters) == 0 {
		return types.Outline{}, fmt.Errorf("outline %s has no chapters", path)
	}
	return o, nil
}

// Save writes an outline as YAML for review.
func Save(path string, o types.Outline) error {
	data, err := yaml.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshaling outline: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
