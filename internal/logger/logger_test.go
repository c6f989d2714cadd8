package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jwebster45206/babble-engine/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWriter(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	t.Run("production writes JSON", func(t *testing.T) {
		var buf bytes.Buffer
		log := SetupWriter(&config.Config{Environment: "production", LogLevel: slog.LevelInfo}, &buf)
		WithPlayer(log, "p-1").Info("saved")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "saved", line["msg"])
		assert.Equal(t, "p-1", line["player_id"])
	})

	t.Run("development writes text and honors level", func(t *testing.T) {
		var buf bytes.Buffer
		log := SetupWriter(&config.Config{Environment: "development", LogLevel: slog.LevelWarn}, &buf)
		log.Info("hidden")
		WithError(log, errors.New("boom")).Warn("shown")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.True(t, strings.Contains(out, "msg=shown"))
		assert.Contains(t, out, "error=boom")
		assert.Same(t, log, slog.Default())
	})
}
