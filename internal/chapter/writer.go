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

const writerSystemInstruction = "You are a senior research analyst who writes dense, well-sourced report chapters in Markdown."

// writerPromptTmpl drafts one chapter from its findings. The reference
// list scopes which bracketed citation numbers the model may use; the
// engine checks the draft against the same list afterwards.
var writerPromptTmpl = template.Must(template.New("writer").Parse(`Write one chapter of an in-depth research report in {{.Language}}.

Report topic: {{.Topic}}
Chapter to write: {{.Chapter}}
Today's date: {{.Date}}

{{if .Findings}}Research findings for this chapter:

{{.Findings}}
{{else}}No research findings were gathered for this chapter. Write from general knowledge and use no citation markers.
{{end}}
{{if .References}}References available to this chapter:
{{.References}}

{{end}}Requirements:
- Write 800 to 1500 words of well-structured Markdown.
- Begin with a "## {{.Chapter}}" heading, then an opening paragraph, then "###" subsections.
- Use a Markdown table where figures, options, or timelines are compared.
- Include exactly one Mermaid diagram in a fenced mermaid code block, using graph TD, that visualizes a structure or flow from this chapter.
- Cite sources with bracketed numbers such as [2] or [3][5], placed after the sentence they support.{{if .References}} Use only numbers from the reference list above and never invent new ones.{{else}} This chapter has no references, so use no bracketed numbers.{{end}}
- Bold the handful of terms a reader should retain.
- Stay within this chapter's scope; no report-wide introduction or conclusion.

Respond with the chapter Markdown only, no preamble and no commentary.
`))

// Writer drafts chapter Markdown from accumulated findings.
type Writer struct {
	client   provider.Client
	language string
	now      func() time.Time
	log      *zap.Logger
}

// NewWriter builds a Writer. An empty configured language defaults to
// English.
func NewWriter(client provider.Client, cfg types.EngineConfig, log *zap.Logger) *Writer {
	language := cfg.Language
	if language == "" {
		language = "English"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{
		client:   client,
		language: language,
		now:      time.Now,
		log:      log,
	}
}

// Write drafts one chapter. findings are the chapter's own findings, each
// carrying the citation indices its text may use; labels is the chapter's
// reference list, one "[i] Title" line per source. The draft comes back as
// raw Markdown together with the tokens the call consumed. Transport
// errors propagate; an empty draft is an error because the report cannot
// absorb a missing chapter silently.
func (w *Writer) Write(ctx context.Context, topic, chapterTitle string, findings []types.Finding, labels []string) (string, int, error) {
	prompt, err := w.renderPrompt(topic, chapterTitle, findings, labels)
	if err != nil {
		return "", 0, err
	}

	res, err := w.client.GenerateText(ctx, provider.Request{
		Prompt:            prompt,
		SystemInstruction: writerSystemInstruction,
	})
	if err != nil {
		return "", 0, fmt.Errorf("drafting chapter %q: %w", chapterTitle, err)
	}

	draft := strings.TrimSpace(provider.StripFences(res.Text))
	if draft == "" {
		return "", res.Tokens, fmt.Errorf("drafting chapter %q: model returned no text", chapterTitle)
	}
	return draft, res.Tokens, nil
}

func (w *Writer) renderPrompt(topic, chapterTitle string, findings []types.Finding, labels []string) (string, error) {
	var b strings.Builder
	err := writerPromptTmpl.Execute(&b, struct {
		Topic      string
		Chapter    string
		Date       string
		Language   string
		Findings   string
		References string
	}{
		Topic:      topic,
		Chapter:    chapterTitle,
		Date:       w.now().Format("January 2, 2006"),
		Language:   w.language,
		Findings:   renderFindings(findings),
		References: strings.Join(labels, "\n"),
	})
	if err != nil {
		return "", fmt.Errorf("rendering writer prompt: %w", err)
	}
	return b.String(), nil
}
