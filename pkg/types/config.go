package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout (default 90s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "deep-research/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// EngineConfig holds orchestrator settings that apply to every run.
type EngineConfig struct {
	// SearchDelay is the pause inserted before each search call (default 1s).
	SearchDelay time.Duration `json:"search_delay" yaml:"search_delay"`

	// Language is the target language for outlines and chapters
	// (default "English").
	Language string `json:"language" yaml:"language"`

	// RecentFindingsWindow is how many of the latest findings are replayed
	// into chapter query generation (default 3).
	RecentFindingsWindow int `json:"recent_findings_window" yaml:"recent_findings_window"`

	// FindingExcerptLen is the maximum length in runes of each replayed
	// finding (default 300).
	FindingExcerptLen int `json:"finding_excerpt_len" yaml:"finding_excerpt_len"`
}

// HistoryConfig holds settings for the local result store.
type HistoryConfig struct {
	// Dir is the directory holding the history database (default "data").
	Dir string `json:"dir" yaml:"dir"`

	// Keep is the maximum number of results retained; older entries are
	// pruned on save (default 50).
	Keep int `json:"keep" yaml:"keep"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// AllowedOrigins lists CORS origins permitted to call the API; empty
	// allows any origin.
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
}

// LogConfig holds settings for diagnostic logging.
type LogConfig struct {
	// Level is the minimum level emitted: debug, info, warn, or error
	// (default "info").
	Level string `json:"level" yaml:"level"`

	// File is an optional path for a rotating JSON log file; empty logs to
	// stderr only.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// AppConfig groups every component configuration for the application.
type AppConfig struct {
	Provider ProviderSettings `json:"provider" yaml:"provider"`
	Engine   EngineConfig     `json:"engine" yaml:"engine"`
	HTTP     HTTPConfig       `json:"http" yaml:"http"`
	History  HistoryConfig    `json:"history" yaml:"history"`
	Server   ServerConfig     `json:"server" yaml:"server"`
	Log      LogConfig        `json:"log" yaml:"log"`
}
