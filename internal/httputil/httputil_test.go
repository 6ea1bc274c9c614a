// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/deep-research/pkg/types"
)

func TestNewClient_DefaultTimeout(t *testing.T) {
	c := NewClient(types.HTTPConfig{})
	assert.Equal(t, DefaultTimeout, c.Timeout)
}

func TestNewClient_ConfiguredTimeout(t *testing.T) {
	c := NewClient(types.HTTPConfig{Timeout: 5 * time.Second})
	assert.Equal(t, 5*time.Second, c.Timeout)
}

func TestPace_ZeroDelayReturnsImmediately(t *testing.T) {
	start := time.Now()
	err := Pace(context.Background(), 0)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestPace_ZeroDelayReportsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Pace(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPace_WaitsForDelay(t *testing.T) {
	start := time.Now()
	err := Pace(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestPace_CancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := Pace(ctx, 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// The wait must end with the context, not the full delay.
	assert.Less(t, time.Since(start), time.Second)
}
