package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("production emits json", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, "production", "info")
		log.Info("check recorded", "check_id", "chk-1")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "check recorded", record["msg"])
		assert.Equal(t, "chk-1", record["check_id"])
	})

	t.Run("level filters records", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, "development", "warn")
		log.Info("dropped")
		assert.Empty(t, buf.String())
		log.Warn("kept")
		assert.Contains(t, buf.String(), "kept")
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
