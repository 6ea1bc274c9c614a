// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/deep-research/internal/provider"
	"github.com/mesh-intelligence/deep-research/internal/search"
	"github.com/mesh-intelligence/deep-research/pkg/types"
)

const defaultUserAgent = "deep-research/0.1"

// setConfigDefaults registers the values viper falls back to when neither
// the config file nor the environment provides one.
func setConfigDefaults() {
	viper.SetDefault("provider.provider", string(types.ProviderGemini))
	viper.SetDefault("engine.search_delay", time.Second)
	viper.SetDefault("engine.language", "English")
	viper.SetDefault("http.timeout", 90*time.Second)
	viper.SetDefault("http.user_agent", defaultUserAgent)
	viper.SetDefault("history.dir", "data")
	viper.SetDefault("history.keep", 50)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("log.level", "info")
}

// appConfig assembles the application configuration: viper (config file,
// environment, defaults), then flag overrides, then secrets and well-known
// environment variables for API keys the config leaves empty.
func appConfig(cmd *cobra.Command) types.AppConfig {
	cfg := types.AppConfig{
		Provider: types.ProviderSettings{
			Provider:     types.Provider(viper.GetString("provider.provider")),
			APIKey:       viper.GetString("provider.api_key"),
			BaseURL:      viper.GetString("provider.base_url"),
			Model:        viper.GetString("provider.model"),
			SearchAPIKey: viper.GetString("provider.search_api_key"),
		},
		Engine: types.EngineConfig{
			SearchDelay:          viper.GetDuration("engine.search_delay"),
			Language:             viper.GetString("engine.language"),
			RecentFindingsWindow: viper.GetInt("engine.recent_findings_window"),
			FindingExcerptLen:    viper.GetInt("engine.finding_excerpt_len"),
		},
		HTTP: types.HTTPConfig{
			Timeout:   viper.GetDuration("http.timeout"),
			UserAgent: viper.GetString("http.user_agent"),
		},
		History: types.HistoryConfig{
			Dir:  viper.GetString("history.dir"),
			Keep: viper.GetInt("history.keep"),
		},
		Server: types.ServerConfig{
			Addr:           viper.GetString("server.addr"),
			AllowedOrigins: viper.GetStringSlice("server.allowed_origins"),
		},
		Log: types.LogConfig{
			Level: viper.GetString("log.level"),
			File:  viper.GetString("log.file"),
		},
	}

	if v, _ := cmd.Flags().GetString("provider"); v != "" {
		cfg.Provider.Provider = types.Provider(v)
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.Provider.Model = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("log-file"); v != "" {
		cfg.Log.File = v
	}

	switch cfg.Provider.Provider {
	case types.ProviderOpenAI:
		cfg.Provider.APIKey = secretDefault("openai-api-key", envDefault("OPENAI_API_KEY", cfg.Provider.APIKey))
	default:
		cfg.Provider.APIKey = secretDefault("gemini-api-key", envDefault("GEMINI_API_KEY", cfg.Provider.APIKey))
	}
	cfg.Provider.SearchAPIKey = secretDefault("tavily-api-key", envDefault("TAVILY_API_KEY", cfg.Provider.SearchAPIKey))

	return cfg
}

// envDefault returns fallback if it is non-empty, or the environment value
// for name otherwise.
func envDefault(name, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return os.Getenv(name)
}

// buildProvider constructs the provider client and the matching search
// strategy for the run settings.
func buildProvider(ctx context.Context, cfg types.AppConfig, log *zap.Logger) (provider.Client, search.Searcher, error) {
	client, err := provider.New(ctx, cfg.Provider, cfg.HTTP)
	if err != nil {
		return nil, nil, err
	}
	return client, search.Select(cfg.Provider, client, cfg.HTTP, log), nil
}
