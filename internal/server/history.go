// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/deep-research/internal/history"
	"github.com/mesh-intelligence/deep-research/pkg/types"
)

// listHistory returns stored result summaries, newest first. A q query
// parameter switches to full-text search over titles and report bodies.
func (h *Handler) listHistory(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		results []types.ResearchResult
		err     error
	)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		results, err = h.history.Search(ctx, q)
	} else {
		results, err = h.history.List(ctx)
	}
	if err != nil {
		h.log.Error("listing history failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list history"})
		return
	}
	if results == nil {
		results = []types.ResearchResult{} // empty list, not null
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) getHistory(c *gin.Context) {
	id := c.Param("id")
	result, err := h.history.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("loading result failed", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load result"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) deleteHistory(c *gin.Context) {
	id := c.Param("id")
	if err := h.history.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("deleting result failed", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete result"})
		return
	}
	c.Status(http.StatusNoContent)
}
