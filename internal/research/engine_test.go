// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/deep-research/internal/provider"
	"github.com/mesh-intelligence/deep-research/internal/search"
	"github.com/mesh-intelligence/deep-research/pkg/types"
)

// scriptedClient routes model calls by their prompt shape: the outline
// request is the only JSON-mode call, query planning mentions web search
// queries, everything else is chapter writing.
type scriptedClient struct {
	outline    provider.Result
	outlineErr error
	queries    provider.Result
	queriesErr error
	write      func(chapterTitle string) (provider.Result, error)

	outlineCalls int
	queryCalls   int
	writeCalls   int
}

func (c *scriptedClient) GenerateText(_ context.Context, req provider.Request) (provider.Result, error) {
	switch {
	case req.JSONMode:
		c.outlineCalls++
		return c.outline, c.outlineErr
	case strings.Contains(req.Prompt, "web search queries"):
		c.queryCalls++
		return c.queries, c.queriesErr
	default:
		c.writeCalls++
		title := chapterFromPrompt(req.Prompt)
		if c.write != nil {
			return c.write(title)
		}
		return provider.Result{Text: "drafted " + title, Tokens: 50}, nil
	}
}

// chapterFromPrompt extracts the chapter title a writer prompt asks for.
func chapterFromPrompt(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if rest, ok := strings.CutPrefix(line, "Chapter to write: "); ok {
			return rest
		}
	}
	return ""
}

type scriptedSearcher struct {
	fn      func(query string) (search.Result, error)
	queries []string
}

func (s *scriptedSearcher) Search(_ context.Context, q string) (search.Result, error) {
	s.queries = append(s.queries, q)
	if s.fn != nil {
		return s.fn(q)
	}
	return search.Result{}, nil
}

type stubSaver struct {
	saved []types.ResearchResult
	err   error
}

func (s *stubSaver) Save(_ context.Context, r types.ResearchResult) error {
	s.saved = append(s.saved, r)
	return s.err
}

// recorder captures state transitions and progress events.
type recorder struct {
	states []types.RunState
	events []types.ResearchLog
}

func newTestEngine(client provider.Client, searcher search.Searcher) (*Engine, *recorder) {
	rec := &recorder{}
	seq := 0
	e := &Engine{
		Provider: client,
		Searcher: searcher,
		OnState:  func(s types.RunState) { rec.states = append(rec.states, s) },
		OnEvent:  func(l types.ResearchLog) { rec.events = append(rec.events, l) },
		newID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
		clock: func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) },
	}
	return e, rec
}

func twoChapterClient() *scriptedClient {
	return &scriptedClient{
		outline: provider.Result{Text: `{"title": "T", "chapters": ["Alpha", "Beta"]}`, Tokens: 100},
		queries: provider.Result{Text: `["q-one", "q-two"]`, Tokens: 10},
	}
}

func sourceSearcher(title, uri string) *scriptedSearcher {
	return &scriptedSearcher{fn: func(q string) (search.Result, error) {
		return search.Result{
			Summary: "summary for " + q,
			Sources: []types.Source{{Title: title, URI: uri}},
			Tokens:  5,
		}, nil
	}}
}

func TestRun_AssemblesReport(t *testing.T) {
	client := twoChapterClient()
	searcher := sourceSearcher("Battery Review", "https://example.com/review")
	e, rec := newTestEngine(client, searcher)

	result, err := e.Run(context.Background(), types.ResearchConfig{Query: "solid-state batteries", Depth: types.DepthBrief, Breadth: 2})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "# T\n\ndrafted Alpha\n\ndrafted Beta", result.Report)
	assert.Equal(t, "T", result.Title)
	assert.Equal(t, "solid-state batteries", result.Query)
	assert.Equal(t, types.DepthBrief, result.Depth)
	assert.NotEmpty(t, result.ID)
	assert.False(t, result.CreatedAt.IsZero())

	assert.Equal(t, []types.RunState{
		types.StatePlanning,
		types.StateOutlineReady,
		types.StateResearching,
		types.StateComplete,
	}, rec.states)

	assert.Equal(t, 1, client.outlineCalls)
	assert.Equal(t, 2, client.queryCalls)
	assert.Equal(t, 2, client.writeCalls)
	assert.Equal(t, []string{"q-one", "q-two", "q-one", "q-two"}, searcher.queries)
}

func TestRun_DeduplicatesSourcesAcrossChapters(t *testing.T) {
	client := twoChapterClient()
	// Every search across both chapters returns the same document.
	searcher := sourceSearcher("Shared Source", "https://example.com/shared")
	e, _ := newTestEngine(client, searcher)

	result, err := e.Run(context.Background(), types.ResearchConfig{Query: "topic", Breadth: 2})
	require.NoError(t, err)

	require.Len(t, result.Sources, 1)
	assert.Equal(t, 1, result.Sources[0].Index)
	assert.Equal(t, "Shared Source", result.Sources[0].Title)
}

func TestRun_AssignsDistinctIndicesInFirstSeenOrder(t *testing.T) {
	client := twoChapterClient()
	n := 0
	searcher := &scriptedSearcher{fn: func(q string) (search.Result, error) {
		n++
		return search.Result{
			Summary: "s",
			Sources: []types.Source{{Title: fmt.Sprintf("Source %d", n), URI: fmt.Sprintf("https://example.com/%d", n)}},
		}, nil
	}}
	e, _ := newTestEngine(client, searcher)

	result, err := e.Run(context.Background(), types.ResearchConfig{Query: "topic", Breadth: 2})
	require.NoError(t, err)

	require.Len(t, result.Sources, 4)
	for i, src := range result.Sources {
		assert.Equal(t, i+1, src.Index)
		assert.Equal(t, fmt.Sprintf("Source %d", i+1), src.Title)
	}
}

func TestRun_EmptySearchResultsStillDraftChapters(t *testing.T) {
	client := twoChapterClient()
	searcher := &scriptedSearcher{} // every search comes back empty
	spy := &promptSpy{inner: client}
	e, _ := newTestEngine(spy, searcher)

	result, err := e.Run(context.Background(), types.ResearchConfig{Query: "obscure topic", Breadth: 1})
	require.NoError(t, err)

	assert.Equal(t, "# T\n\ndrafted Alpha\n\ndrafted Beta", result.Report)
	assert.Empty(t, result.Sources)
	require.NotEmpty(t, spy.writerPrompts)
	assert.Contains(t, spy.writerPrompts[0], "No research findings were gathered")
}

// promptSpy records writer prompts while delegating to the inner client.
type promptSpy struct {
	inner         provider.Client
	writerPrompts []string
}

func (p *promptSpy) GenerateText(ctx context.Context, req provider.Request) (provider.Result, error) {
	if !req.JSONMode && !strings.Contains(req.Prompt, "web search queries") {
		p.writerPrompts = append(p.writerPrompts, req.Prompt)
	}
	return p.inner.GenerateText(ctx, req)
}

func TestRun_OutlineTransportErrorStopsBeforeSearching(t *testing.T) {
	client := twoChapterClient()
	client.outlineErr = &provider.HTTPError{StatusCode: 500, Body: "upstream down"}
	searcher := &scriptedSearcher{}
	e, rec := newTestEngine(client, searcher)

	result, err := e.Run(context.Background(), types.ResearchConfig{Query: "topic"})
	require.Error(t, err)
	assert.Nil(t, result)

	var httpErr *provider.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 500, httpErr.StatusCode)

	assert.Empty(t, searcher.queries, "no searches should run after a failed plan")
	require.NotEmpty(t, rec.states)
	assert.Equal(t, types.StateError, rec.states[len(rec.states)-1])
}

func TestRun_CancellationBetweenChapters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	client := twoChapterClient()
	calls := 0
	searcher := &scriptedSearcher{fn: func(q string) (search.Result, error) {
		calls++
		if calls == 2 { // last query of chapter one
			cancel()
		}
		return search.Result{Summary: "s"}, nil
	}}
	e, rec := newTestEngine(client, searcher)

	result, err := e.Run(ctx, types.ResearchConfig{Query: "topic", Breadth: 2})
	require.Error(t, err)
	assert.Nil(t, result)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls, "chapter two must not search after cancellation")
	require.NotEmpty(t, rec.states)
	assert.Equal(t, types.StateCancelled, rec.states[len(rec.states)-1])
}

func TestRun_TokenAndQueryAccounting(t *testing.T) {
	client := twoChapterClient() // outline 100, queries 10 per chapter
	client.write = func(title string) (provider.Result, error) {
		return provider.Result{Text: "drafted " + title, Tokens: 50}, nil
	}
	searcher := &scriptedSearcher{fn: func(q string) (search.Result, error) {
		return search.Result{Summary: "s", Tokens: 5}, nil
	}}
	e, _ := newTestEngine(client, searcher)

	result, err := e.Run(context.Background(), types.ResearchConfig{Query: "topic", Breadth: 2})
	require.NoError(t, err)

	// 100 outline + 2x10 query planning + 4x5 searches + 2x50 writing.
	assert.Equal(t, 240, result.TotalTokens)
	assert.Equal(t, 4, result.TotalQueries)
}

func TestRun_QuotaErrorsGetActionableMessage(t *testing.T) {
	client := twoChapterClient()
	client.write = func(string) (provider.Result, error) {
		return provider.Result{}, &provider.HTTPError{StatusCode: 429, Body: "rate limit"}
	}
	e, rec := newTestEngine(client, &scriptedSearcher{})

	_, err := e.Run(context.Background(), types.ResearchConfig{Query: "topic", Breadth: 1})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "quota or rate limit exhausted")
	var httpErr *provider.HTTPError
	assert.ErrorAs(t, err, &httpErr, "original error stays inspectable")
	assert.Equal(t, types.StateError, rec.states[len(rec.states)-1])
}

func TestResearch_ZeroChapterOutlineCompletesImmediately(t *testing.T) {
	client := twoChapterClient()
	searcher := &scriptedSearcher{}
	e, rec := newTestEngine(client, searcher)

	result, err := e.Research(context.Background(), types.ResearchConfig{Query: "topic"}, types.Outline{Title: "Lone Title"}, 0)
	require.NoError(t, err)

	assert.Equal(t, "# Lone Title\n\n", result.Report)
	assert.Empty(t, searcher.queries)
	assert.Equal(t, 0, client.writeCalls)
	assert.Equal(t, 0, result.TotalQueries)
	assert.Equal(t, types.StateComplete, rec.states[len(rec.states)-1])
}

func TestRun_SavesCompletedResultToHistory(t *testing.T) {
	client := twoChapterClient()
	e, _ := newTestEngine(client, &scriptedSearcher{})
	saver := &stubSaver{}
	e.History = saver

	result, err := e.Run(context.Background(), types.ResearchConfig{Query: "topic", Breadth: 1})
	require.NoError(t, err)

	require.Len(t, saver.saved, 1)
	assert.Equal(t, result.ID, saver.saved[0].ID)
	assert.Equal(t, result.Report, saver.saved[0].Report)
}

func TestRun_HistoryFailureIsNotFatal(t *testing.T) {
	core, observed := observer.New(zap.WarnLevel)
	client := twoChapterClient()
	e, _ := newTestEngine(client, &scriptedSearcher{})
	e.Log = zap.New(core)
	e.History = &stubSaver{err: errors.New("disk full")}

	result, err := e.Run(context.Background(), types.ResearchConfig{Query: "topic", Breadth: 1})
	require.NoError(t, err)
	require.NotNil(t, result)

	entries := observed.FilterMessage("saving result to history failed").All()
	assert.Len(t, entries, 1)
}

func TestRun_WarnsOnCitationsOutsideReferenceList(t *testing.T) {
	core, observed := observer.New(zap.WarnLevel)
	client := twoChapterClient()
	client.write = func(title string) (provider.Result, error) {
		return provider.Result{Text: "claim [7]", Tokens: 1}, nil
	}
	searcher := sourceSearcher("Only Source", "https://example.com/only")
	e, _ := newTestEngine(client, searcher)
	e.Log = zap.New(core)

	result, err := e.Run(context.Background(), types.ResearchConfig{Query: "topic", Breadth: 1})
	require.NoError(t, err)

	entries := observed.FilterMessage("chapter cites sources outside its reference list").All()
	require.Len(t, entries, 2) // both chapters cite [7]
	assert.Contains(t, result.Report, "[7]", "content is never rewritten")
}

func TestRun_RejectsInvalidConfig(t *testing.T) {
	e, rec := newTestEngine(twoChapterClient(), &scriptedSearcher{})

	_, err := e.Run(context.Background(), types.ResearchConfig{Query: "   "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query")
	assert.Empty(t, rec.states, "validation failures precede any state change")
}

func TestRun_EmitsProgressTrace(t *testing.T) {
	client := twoChapterClient()
	e, rec := newTestEngine(client, sourceSearcher("S", "https://example.com/s"))

	result, err := e.Run(context.Background(), types.ResearchConfig{Query: "topic", Breadth: 1})
	require.NoError(t, err)

	require.NotEmpty(t, rec.events)
	assert.Equal(t, types.LogPlan, rec.events[0].Type)
	last := rec.events[len(rec.events)-1]
	assert.Equal(t, types.LogInfo, last.Type)
	assert.Equal(t, "research complete", last.Message)

	assert.Equal(t, rec.events, result.Logs, "result carries the full trace")

	var searches, writes int
	for _, ev := range rec.events {
		switch ev.Type {
		case types.LogSearch:
			searches++
		case types.LogWriting:
			writes++
		}
	}
	assert.Equal(t, 2, searches)
	assert.Equal(t, 2, writes)
}

func TestPlan_ReturnsOutlineAndTokens(t *testing.T) {
	client := twoChapterClient()
	e, rec := newTestEngine(client, &scriptedSearcher{})

	o, tokens, err := e.Plan(context.Background(), types.ResearchConfig{Query: "topic", Depth: types.DepthDeep})
	require.NoError(t, err)

	assert.Equal(t, "T", o.Title)
	assert.Equal(t, []string{"Alpha", "Beta"}, o.Chapters)
	assert.Equal(t, 100, tokens)
	assert.Equal(t, []types.RunState{types.StatePlanning, types.StateOutlineReady}, rec.states)
}

func TestResearch_AcceptsReviewedOutline(t *testing.T) {
	client := twoChapterClient()
	e, rec := newTestEngine(client, &scriptedSearcher{})

	reviewed := types.Outline{Title: "Edited Title", Chapters: []string{"Only Chapter"}}
	result, err := e.Research(context.Background(), types.ResearchConfig{Query: "topic", Breadth: 1}, reviewed, 33)
	require.NoError(t, err)

	assert.Equal(t, 0, client.outlineCalls, "planning is skipped")
	assert.Equal(t, "Edited Title", result.Title)
	assert.Equal(t, "# Edited Title\n\ndrafted Only Chapter", result.Report)
	// 33 plan + 10 query planning + 50 writing.
	assert.Equal(t, 93, result.TotalTokens)
	assert.Equal(t, []types.RunState{types.StateResearching, types.StateComplete}, rec.states)
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"spaces only", "  \n\t ", 0},
		{"latin words", "a bc def", 6},
		{"cjk runes", "深層研究", 4},
		{"mixed", "AI 研究 x", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wordCount(tt.in))
		})
	}
}
