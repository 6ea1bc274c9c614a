// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/deep-research/internal/history"
	"github.com/mesh-intelligence/deep-research/internal/logging"
	"github.com/mesh-intelligence/deep-research/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the research engine over HTTP",
	Long: `Serve starts the HTTP API. POST /api/research executes a run and streams
progress as server-sent events; the /api/history routes serve stored
results. Closing a research request cancels its run.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().String("provider", "", "LLM provider: gemini or openai")
	serveCmd.Flags().String("model", "", "model identifier (default per provider)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	app := appConfig(cmd)
	logger, err := logging.New(app.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	client, searcher, err := buildProvider(cmd.Context(), app, logger)
	if err != nil {
		return err
	}
	store, err := history.NewStore(app.History)
	if err != nil {
		return err
	}
	defer store.Close()

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		app.Server.Addr = addr
	}

	runner := &server.EngineRunner{
		Provider: client,
		Searcher: searcher,
		History:  store,
		Config:   app.Engine,
		Log:      logger,
	}
	handler := server.NewHandler(runner, store, logger)

	gin.SetMode(gin.ReleaseMode)
	router := server.New(app.Server, handler)

	logger.Info("http api listening", zap.String("addr", app.Server.Addr))
	return router.Run(app.Server.Addr)
}
