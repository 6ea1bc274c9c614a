// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Outline is the chapter plan produced during the planning phase. It is the
// only input the researching phase needs besides the topic itself, so a
// reviewed or hand-edited outline can be substituted freely.
type Outline struct {
	// Title is the report title.
	Title string `json:"title" yaml:"title"`

	// Chapters lists the chapter titles in writing order.
	Chapters []string `json:"chapters" yaml:"chapters"`
}

// Source is one cited reference. Index is the 1-based position assigned by
// the citation registry in global first-seen order; it is stable for the
// lifetime of a run and dense (no gaps).
type Source struct {
	Index int    `json:"index" yaml:"index"`
	Title string `json:"title" yaml:"title"`
	URI   string `json:"uri" yaml:"uri"`
}

// Finding is the summarized outcome of a single search query, tagged with
// the citation indices of the sources that produced it.
type Finding struct {
	// Chapter is the chapter title the query was generated for.
	Chapter string `json:"chapter" yaml:"chapter"`

	// Text is the summary extracted from the search results.
	Text string `json:"text" yaml:"text"`

	// Citations are the registry indices of the contributing sources.
	Citations []int `json:"citations,omitempty" yaml:"citations,omitempty"`
}

// LogType classifies a progress event.
type LogType string

const (
	LogPlan     LogType = "plan"
	LogSearch   LogType = "search"
	LogAnalysis LogType = "analysis"
	LogWriting  LogType = "writing"
	LogError    LogType = "error"
	LogInfo     LogType = "info"
)

// ResearchLog is one structured progress event. The engine emits these
// through its event sink as the run advances and also collects them into
// the final result.
type ResearchLog struct {
	// ID is a UUID assigned when the event is created.
	ID string `json:"id" yaml:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Type classifies the event: plan, search, analysis, writing, error, info.
	Type LogType `json:"type" yaml:"type"`

	// Message is a short human-readable description.
	Message string `json:"message" yaml:"message"`

	// Details carries optional supporting text (queries issued, chapter
	// titles, source counts).
	Details string `json:"details,omitempty" yaml:"details,omitempty"`

	// Tokens is the token usage attributed to this step, 0 when unknown.
	Tokens int `json:"tokens,omitempty" yaml:"tokens,omitempty"`
}

// RunState is the orchestrator's lifecycle state. Transitions are
// announced through the engine's state sink.
type RunState string

const (
	StateIdle         RunState = "idle"
	StatePlanning     RunState = "planning"
	StateOutlineReady RunState = "outline_ready"
	StateResearching  RunState = "researching"
	StateComplete     RunState = "complete"
	StateCancelled    RunState = "cancelled"
	StateError        RunState = "error"
)

// ResearchResult is the completed output of a run, persisted to history.
type ResearchResult struct {
	// ID is a UUID assigned at completion.
	ID string `json:"id" yaml:"id"`

	// CreatedAt is the completion time.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// Query is the original research topic.
	Query string `json:"query" yaml:"query"`

	// Depth is the depth the run was executed with.
	Depth Depth `json:"depth" yaml:"depth"`

	// Title is the report title from the outline.
	Title string `json:"title" yaml:"title"`

	// Report is the assembled Markdown document: the title heading followed
	// by the chapter bodies joined with blank lines.
	Report string `json:"report" yaml:"report"`

	// Sources is the citation registry snapshot in index order.
	Sources []Source `json:"sources" yaml:"sources"`

	// Logs is the full progress trace of the run.
	Logs []ResearchLog `json:"logs,omitempty" yaml:"logs,omitempty"`

	// TotalTokens is the summed token usage of every model call.
	TotalTokens int `json:"total_tokens" yaml:"total_tokens"`

	// TotalQueries is the number of search calls executed.
	TotalQueries int `json:"total_queries" yaml:"total_queries"`

	// WordCount is the number of non-whitespace characters in Report.
	WordCount int `json:"word_count" yaml:"word_count"`
}
