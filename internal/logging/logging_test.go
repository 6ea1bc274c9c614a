// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mesh-intelligence/deep-research/pkg/types"
)

func TestNew_DefaultsToInfo(t *testing.T) {
	log, err := New(types.LogConfig{})
	require.NoError(t, err)
	require.NotNil(t, log)

	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(types.LogConfig{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}

func TestNew_FileCoreWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "research.log")
	log, err := New(types.LogConfig{Level: "debug", File: path})
	require.NoError(t, err)

	log.Info("run started", zap.String("query", "solid-state batteries"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(strings.Split(string(data), "\n")[0])
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "run started", entry["message"])
	assert.Equal(t, "solid-state batteries", entry["query"])
	assert.NotEmpty(t, entry["timestamp"])
}

func TestNew_FileCoreHonorsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "research.log")
	log, err := New(types.LogConfig{Level: "warn", File: path})
	require.NoError(t, err)

	log.Info("suppressed")
	log.Warn("kept")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "suppressed")
	assert.Contains(t, string(data), "kept")
}
