// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chapter

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/deep-research/internal/provider"
	"github.com/mesh-intelligence/deep-research/pkg/types"
)

const queriesSystemInstruction = "You are a research assistant who writes precise web search queries. Respond with valid JSON only."

// queriesPromptTmpl asks for a fixed-size JSON array of search queries for
// one chapter, steered toward recent information and away from ground the
// run has already covered.
var queriesPromptTmpl = template.Must(template.New("queries").Parse(`Generate web search queries for researching one chapter of a report.

Report topic: {{.Topic}}
Chapter: {{.Chapter}}
Today's date: {{.Date}}

{{if .Recent}}Findings gathered so far (newest last):
{{.Recent}}

Write queries that fill gaps in the above rather than repeating it.
{{end}}Rules:
- Produce exactly {{.Count}} queries.
- Each query must be specific and self-contained; it is sent to a search engine verbatim.
- Prefer queries that surface {{.PrevYear}} and {{.Year}} information.
- Respond with a JSON array of strings and nothing else.

Example response:
["first search query", "second search query"]
`))

// Planner turns a chapter title into the search queries that will feed it.
type Planner struct {
	client  provider.Client
	breadth int
	window  int
	excerpt int
	now     func() time.Time
	log     *zap.Logger
}

// NewPlanner builds a Planner on top of a provider client. A breadth of
// zero or less falls back to the default of three queries per chapter.
func NewPlanner(client provider.Client, breadth int, cfg types.EngineConfig, log *zap.Logger) *Planner {
	if breadth <= 0 {
		breadth = defaultBreadth
	}
	window := cfg.RecentFindingsWindow
	if window <= 0 {
		window = defaultWindow
	}
	excerpt := cfg.FindingExcerptLen
	if excerpt <= 0 {
		excerpt = defaultExcerptLen
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Planner{
		client:  client,
		breadth: breadth,
		window:  window,
		excerpt: excerpt,
		now:     time.Now,
		log:     log,
	}
}

// Queries asks the model for search queries covering one chapter, feeding
// it the tail of the run's findings so it can steer away from covered
// ground. Transport errors propagate; an unparseable response falls back
// to FallbackQueries. The returned token count covers the model call.
func (p *Planner) Queries(ctx context.Context, topic, chapterTitle string, recent []types.Finding) ([]string, int, error) {
	prompt, err := p.renderPrompt(topic, chapterTitle, recent)
	if err != nil {
		return nil, 0, err
	}

	res, err := p.client.GenerateText(ctx, provider.Request{
		Prompt:            prompt,
		SystemInstruction: queriesSystemInstruction,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("generating chapter queries: %w", err)
	}

	var queries []string
	if err := provider.DecodeJSON(res.Text, &queries); err != nil {
		p.log.Warn("query response was not a JSON array, using fallback queries",
			zap.String("chapter", chapterTitle),
			zap.Error(err))
		return FallbackQueries(topic, chapterTitle), res.Tokens, nil
	}

	queries = cleanQueries(queries, p.breadth)
	if len(queries) == 0 {
		return FallbackQueries(topic, chapterTitle), res.Tokens, nil
	}
	return queries, res.Tokens, nil
}

func (p *Planner) renderPrompt(topic, chapterTitle string, recent []types.Finding) (string, error) {
	now := p.now()
	var b strings.Builder
	err := queriesPromptTmpl.Execute(&b, struct {
		Topic    string
		Chapter  string
		Date     string
		Recent   string
		Count    int
		Year     int
		PrevYear int
	}{
		Topic:    topic,
		Chapter:  chapterTitle,
		Date:     now.Format("January 2, 2006"),
		Recent:   renderRecent(recent, p.window, p.excerpt),
		Count:    p.breadth,
		Year:     now.Year(),
		PrevYear: now.Year() - 1,
	})
	if err != nil {
		return "", fmt.Errorf("rendering query prompt: %w", err)
	}
	return b.String(), nil
}

// FallbackQueries are the deterministic searches used when the model's
// query response cannot be decoded.
func FallbackQueries(topic, chapterTitle string) []string {
	return []string{
		fmt.Sprintf("%s %s", topic, chapterTitle),
		fmt.Sprintf("%s %s latest developments", topic, chapterTitle),
	}
}

// cleanQueries trims entries, drops empties, and caps the list at breadth.
func cleanQueries(queries []string, breadth int) []string {
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == breadth {
			break
		}
	}
	return out
}
