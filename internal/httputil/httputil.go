// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across components.
package httputil

import (
	"context"
	"net/http"
	"time"

	"github.com/mesh-intelligence/deep-research/pkg/types"
)

// DefaultTimeout bounds outbound API calls when no timeout is configured.
const DefaultTimeout = 90 * time.Second

// NewClient builds the HTTP client used for outbound API calls. Failed
// calls are never retried, so the timeout is the only safety net against
// a hung connection.
func NewClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Pace blocks for d, returning early with ctx.Err() when the context is
// cancelled first. A non-positive d returns immediately (still reporting
// an already-cancelled context). The engine paces every outbound search
// call with it to stay under provider rate limits.
func Pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
