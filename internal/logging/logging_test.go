package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentCurator/internal/config"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelError, levelFromString("ERROR"))
	assert.Equal(t, slog.LevelWarn, levelFromString("warning"))
	assert.Equal(t, slog.LevelInfo, levelFromString(" info "))
	assert.Equal(t, slog.LevelDebug, levelFromString("verbose"))
}

func TestConsoleOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, closer, err := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("cycle finished", "new", 3)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"cycle finished"`)
	assert.Contains(t, buf.String(), `"new":3`)
}

func TestFanoutToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "curator.log")
	var buf bytes.Buffer
	logger, closer, err := NewWithWriter(config.LoggingConfig{Level: "debug", File: path}, &buf)
	require.NoError(t, err)

	logger.Warn("source failed", "source", "rss:https://example.com/feed")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "source failed")
	assert.Contains(t, string(raw), `"msg":"source failed"`)
}
