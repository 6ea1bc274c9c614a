// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research orchestrates a run end to end: outline planning,
// per-chapter query generation, web searches, and chapter drafting, with
// progress events and a persisted result.
package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/deep-research/internal/chapter"
	"github.com/mesh-intelligence/deep-research/internal/citation"
	"github.com/mesh-intelligence/deep-research/internal/httputil"
	"github.com/mesh-intelligence/deep-research/internal/outline"
	"github.com/mesh-intelligence/deep-research/internal/provider"
	"github.com/mesh-intelligence/deep-research/internal/search"
	"github.com/mesh-intelligence/deep-research/pkg/types"
)

// ErrCancelled marks a run stopped through its context rather than by a
// failure.
var ErrCancelled = errors.New("research cancelled")

// Saver persists completed results. *history.Store implements it.
type Saver interface {
	Save(ctx context.Context, result types.ResearchResult) error
}

// Engine drives a research run. Provider and Searcher are required; the
// rest is optional. An Engine is not safe for concurrent runs; create one
// per run.
type Engine struct {
	// Provider performs all model calls.
	Provider provider.Client

	// Searcher executes web searches for chapter queries.
	Searcher search.Searcher

	// History, when set, receives the completed result. Save failures are
	// logged, never fatal.
	History Saver

	// Config tunes pacing, language, and prompt windows.
	Config types.EngineConfig

	// Log receives diagnostics. Nil means silent.
	Log *zap.Logger

	// OnEvent, when set, observes every progress entry as it is emitted.
	OnEvent func(types.ResearchLog)

	// OnState, when set, observes lifecycle transitions.
	OnState func(types.RunState)

	// Test seams; nil selects the real implementations.
	newID func() string
	clock func() time.Time
}

// run accumulates the state of one research run.
type run struct {
	e        *Engine
	registry *citation.Registry
	findings []types.Finding
	logs     []types.ResearchLog
	tokens   int
	queries  int
}

// Plan generates the report outline for cfg and leaves the engine in the
// outline-ready state. The outline can be reviewed or edited before being
// handed to Research. Returned tokens cover the planning call and must be
// carried into Research for accurate accounting.
func (e *Engine) Plan(ctx context.Context, cfg types.ResearchConfig) (types.Outline, int, error) {
	if err := cfg.Validate(); err != nil {
		return types.Outline{}, 0, err
	}
	r := e.newRun()
	o, tokens, err := e.plan(ctx, cfg, r)
	if err != nil {
		return types.Outline{}, tokens, e.abort(r, err)
	}
	return o, tokens, nil
}

// Research executes the researching phase over an already-approved
// outline. planTokens is the usage reported by Plan (zero when the outline
// came from a file).
func (e *Engine) Research(ctx context.Context, cfg types.ResearchConfig, o types.Outline, planTokens int) (*types.ResearchResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := e.newRun()
	r.tokens += planTokens
	r.emit(types.LogPlan, "outline accepted",
		fmt.Sprintf("%s (%d chapters)", o.Title, len(o.Chapters)), planTokens)

	result, err := e.research(ctx, cfg, o, r)
	if err != nil {
		return nil, e.abort(r, err)
	}
	return result, nil
}

// Run executes the full pipeline: Plan, auto-approve, Research.
func (e *Engine) Run(ctx context.Context, cfg types.ResearchConfig) (*types.ResearchResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := e.newRun()

	o, _, err := e.plan(ctx, cfg, r)
	if err != nil {
		return nil, e.abort(r, err)
	}

	result, err := e.research(ctx, cfg, o, r)
	if err != nil {
		return nil, e.abort(r, err)
	}
	return result, nil
}

// plan runs the planning phase: Planning state, outline generation,
// OutlineReady state.
func (e *Engine) plan(ctx context.Context, cfg types.ResearchConfig, r *run) (types.Outline, int, error) {
	e.setState(types.StatePlanning)
	r.emit(types.LogPlan, "planning report outline", cfg.Query, 0)

	gen := outline.NewGenerator(e.Provider, e.Config, e.logger())
	o, tokens, err := gen.Generate(ctx, cfg.Query, cfg.Depth)
	if err != nil {
		return types.Outline{}, tokens, err
	}
	r.tokens += tokens

	r.emit(types.LogPlan, "outline ready",
		fmt.Sprintf("%s (%d chapters)", o.Title, len(o.Chapters)), tokens)
	e.setState(types.StateOutlineReady)
	return o, tokens, nil
}

// research runs the researching phase over outline o and assembles the
// result. Chapters are processed strictly in order; a single model is
// doing the reading and writing, so there is nothing to parallelize
// without losing the rolling findings window.
func (e *Engine) research(ctx context.Context, cfg types.ResearchConfig, o types.Outline, r *run) (*types.ResearchResult, error) {
	if o.Title == "" {
		o.Title = cfg.Query
	}

	e.setState(types.StateResearching)
	planner := chapter.NewPlanner(e.Provider, cfg.Breadth, e.Config, e.logger())
	writer := chapter.NewWriter(e.Provider, e.Config, e.logger())

	chapters := make([]string, 0, len(o.Chapters))
	for i, title := range o.Chapters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.emit(types.LogInfo, fmt.Sprintf("chapter %d/%d: %s", i+1, len(o.Chapters), title), "", 0)

		content, err := e.researchChapter(ctx, cfg.Query, title, planner, writer, r)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, content)
	}

	report := "# " + o.Title + "\n\n" + strings.Join(chapters, "\n\n")

	result := &types.ResearchResult{
		ID:           e.id(),
		CreatedAt:    e.now(),
		Query:        cfg.Query,
		Depth:        cfg.Depth,
		Title:        o.Title,
		Report:       report,
		Sources:      r.registry.Sources(),
		TotalTokens:  r.tokens,
		TotalQueries: r.queries,
		WordCount:    wordCount(report),
	}

	e.setState(types.StateComplete)
	r.emit(types.LogInfo, "research complete",
		fmt.Sprintf("%d words, %d sources, %d tokens", result.WordCount, len(result.Sources), result.TotalTokens), 0)
	result.Logs = r.logs

	if e.History != nil {
		if err := e.History.Save(ctx, *result); err != nil {
			e.logger().Warn("saving result to history failed", zap.Error(err))
		}
	}
	return result, nil
}

// researchChapter gathers findings for one chapter and drafts its text.
func (e *Engine) researchChapter(ctx context.Context, topic, title string, planner *chapter.Planner, writer *chapter.Writer, r *run) (string, error) {
	queries, qTokens, err := planner.Queries(ctx, topic, title, r.findings)
	if err != nil {
		return "", err
	}
	r.tokens += qTokens
	r.emit(types.LogAnalysis, fmt.Sprintf("planned %d searches for %q", len(queries), title),
		strings.Join(queries, "; "), qTokens)

	var (
		chapterFindings []types.Finding
		chapterSeen     []int
		seenHere        = make(map[int]bool)
	)

	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := httputil.Pace(ctx, e.Config.SearchDelay); err != nil {
			return "", err
		}

		res, err := e.Searcher.Search(ctx, q)
		if err != nil {
			return "", err
		}
		r.queries++
		r.tokens += res.Tokens

		var indices []int
		for _, src := range res.Sources {
			idx := r.registry.Register(src.Title, src.URI)
			indices = append(indices, idx)
			if !seenHere[idx] {
				seenHere[idx] = true
				chapterSeen = append(chapterSeen, idx)
			}
		}

		if text := strings.TrimSpace(res.Summary); text != "" {
			f := types.Finding{Chapter: title, Text: text, Citations: indices}
			chapterFindings = append(chapterFindings, f)
			r.findings = append(r.findings, f)
		}
		r.emit(types.LogSearch, fmt.Sprintf("searched %q", q),
			fmt.Sprintf("%d sources", len(res.Sources)), res.Tokens)
	}

	content, wTokens, err := writer.Write(ctx, topic, title, chapterFindings, r.labels(chapterSeen))
	if err != nil {
		return "", err
	}
	r.tokens += wTokens

	if unknown := chapter.ValidateCitations(content, chapterSeen); len(unknown) > 0 {
		e.logger().Warn("chapter cites sources outside its reference list",
			zap.String("chapter", title),
			zap.Ints("markers", unknown))
	}

	r.emit(types.LogWriting, fmt.Sprintf("drafted %q", title),
		fmt.Sprintf("%d findings, %d sources", len(chapterFindings), len(chapterSeen)), wTokens)
	return content, nil
}

// abort classifies a run-stopping error: context errors become Cancelled
// with ErrCancelled; everything else becomes Error, with quota conditions
// rewritten to an actionable message.
func (e *Engine) abort(r *run, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		e.setState(types.StateCancelled)
		r.emit(types.LogError, "research cancelled", "", 0)
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	if provider.IsQuota(err) {
		err = fmt.Errorf("api quota or rate limit exhausted, check the provider plan and billing: %w", err)
	}
	e.setState(types.StateError)
	r.emit(types.LogError, "research failed", err.Error(), 0)
	return err
}

func (e *Engine) newRun() *run {
	return &run{e: e, registry: citation.NewRegistry()}
}

func (e *Engine) setState(s types.RunState) {
	if e.OnState != nil {
		e.OnState(s)
	}
}

func (e *Engine) logger() *zap.Logger {
	if e.Log != nil {
		return e.Log
	}
	return zap.NewNop()
}

func (e *Engine) id() string {
	if e.newID != nil {
		return e.newID()
	}
	return uuid.NewString()
}

func (e *Engine) now() time.Time {
	if e.clock != nil {
		return e.clock()
	}
	return time.Now().UTC()
}

// emit records a progress entry and forwards it to the event sink.
func (r *run) emit(t types.LogType, message, details string, tokens int) {
	entry := types.ResearchLog{
		ID:        r.e.id(),
		Timestamp: r.e.now(),
		Type:      t,
		Message:   message,
		Details:   details,
		Tokens:    tokens,
	}
	r.logs = append(r.logs, entry)
	if r.e.OnEvent != nil {
		r.e.OnEvent(entry)
	}
}

// labels renders "[i] Title" reference lines for the given registry
// indices, preserving their order.
func (r *run) labels(indices []int) []string {
	sources := r.registry.Sources()
	out := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx >= 1 && idx <= len(sources) {
			out = append(out, fmt.Sprintf("[%d] %s", idx, sources[idx-1].Title))
		}
	}
	return out
}

// wordCount counts non-whitespace runes; scripts without word spacing are
// measured per character.
func wordCount(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
