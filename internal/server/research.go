// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/deep-research/internal/research"
	"github.com/mesh-intelligence/deep-research/pkg/types"
)

// researchRequest is the body accepted by POST /api/research.
type researchRequest struct {
	Query   string `json:"query"`
	Depth   string `json:"depth"`
	Breadth int    `json:"breadth"`
}

// sseEvent pairs an event name with its JSON payload.
type sseEvent struct {
	name string
	data any
}

// research executes one run and streams its progress as server-sent
// events: a log event per progress entry, a state event per lifecycle
// transition, and a final complete event carrying the result (or an error
// event). Closing the connection cancels the run through the request
// context.
func (h *Handler) research(c *gin.Context) {
	var req researchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	depth, err := types.ParseDepth(req.Depth)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg := types.ResearchConfig{Query: req.Query, Depth: depth, Breadth: req.Breadth}
	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	events := make(chan sseEvent, 16)
	push := func(ev sseEvent) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(events)
		result, err := h.runner.Run(ctx, cfg,
			func(l types.ResearchLog) { push(sseEvent{name: "log", data: l}) },
			func(s types.RunState) { push(sseEvent{name: "state", data: gin.H{"state": s}}) },
		)
		if err != nil {
			if errors.Is(err, research.ErrCancelled) {
				h.log.Info("research run cancelled", zap.String("query", cfg.Query))
			} else {
				h.log.Warn("research run failed", zap.String("query", cfg.Query), zap.Error(err))
			}
			push(sseEvent{name: "error", data: gin.H{"error": err.Error()}})
			return
		}
		push(sseEvent{name: "complete", data: result})
	}()

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		c.SSEvent(ev.name, ev.data)
		return true
	})
}
