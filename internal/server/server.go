// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the research pipeline over HTTP. Runs stream
// their progress as server-sent events; finished reports are served from
// the history store.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/deep-research/internal/provider"
	"github.com/mesh-intelligence/deep-research/internal/research"
	"github.com/mesh-intelligence/deep-research/internal/search"
	"github.com/mesh-intelligence/deep-research/pkg/types"
)

// Runner executes one research run, forwarding progress to the given
// sinks. Cancelling ctx stops the run.
type Runner interface {
	Run(ctx context.Context, cfg types.ResearchConfig,
		onEvent func(types.ResearchLog), onState func(types.RunState)) (*types.ResearchResult, error)
}

// EngineRunner satisfies Runner by assembling a fresh engine for every
// call. Engines are single-run, so one must not be shared across requests.
type EngineRunner struct {
	Provider provider.Client
	Searcher search.Searcher
	History  research.Saver
	Config   types.EngineConfig
	Log      *zap.Logger
}

func (r *EngineRunner) Run(ctx context.Context, cfg types.ResearchConfig,
	onEvent func(types.ResearchLog), onState func(types.RunState)) (*types.ResearchResult, error) {
	e := &research.Engine{
		Provider: r.Provider,
		Searcher: r.Searcher,
		History:  r.History,
		Config:   r.Config,
		Log:      r.Log,
		OnEvent:  onEvent,
		OnState:  onState,
	}
	return e.Run(ctx, cfg)
}

// HistoryStore is the slice of the result store the API reads from.
// *history.Store implements it.
type HistoryStore interface {
	List(ctx context.Context) ([]types.ResearchResult, error)
	Get(ctx context.Context, id string) (types.ResearchResult, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]types.ResearchResult, error)
}

// Handler bundles the dependencies behind the API routes.
type Handler struct {
	runner  Runner
	history HistoryStore
	log     *zap.Logger
}

// NewHandler wires a research runner and a history store into a Handler.
func NewHandler(runner Runner, history HistoryStore, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{runner: runner, history: history, log: log}
}

// RegisterRoutes attaches every API route to the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.health)

	api := r.Group("/api")
	{
		api.POST("/research", h.research)
		api.GET("/history", h.listHistory)
		api.GET("/history/:id", h.getHistory)
		api.DELETE("/history/:id", h.deleteHistory)
	}
}

// New builds the router with recovery, CORS, and all routes attached. An
// empty AllowedOrigins list admits any origin, which suits local use.
func New(cfg types.ServerConfig, h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	h.RegisterRoutes(r)
	return r
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
