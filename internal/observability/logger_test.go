// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/tubepilot/internal/config"
)

// initBuffered initializes the global logger against an in-memory writer.
func initBuffered(t *testing.T, cfg config.LoggerConfig) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)
	var buf bytes.Buffer
	Initialize(cfg, zapcore.AddSync(&buf))
	return &buf
}

func TestInitialize(t *testing.T) {
	t.Run("console output is colorized", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "tubepilot",
			Colors:      config.ColorConfig{Info: "green"},
		})
		GetLogger().Named("runner").Info("Session ready")
		Sync()

		out := buf.String()
		assert.Contains(t, out, colorGreen+"INFO"+colorReset)
		assert.Contains(t, out, "tubepilot.runner.")
		assert.Contains(t, out, "Session ready")
	})

	t.Run("json output is structured", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "tubepilot"})
		GetLogger().Warn("Job failed", zap.String("target", "clip.mp4"))
		Sync()

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "tubepilot", entry["logger"])
		assert.Equal(t, "Job failed", entry["msg"])
		assert.Equal(t, "clip.mp4", entry["target"])
	})

	t.Run("level filters debug", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "info", Format: "json"})
		GetLogger().Debug("hidden")
		Sync()
		assert.Empty(t, buf.String())
	})

	t.Run("writes the rotating log file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tubepilot.log")
		initBuffered(t, config.LoggerConfig{Level: "debug", Format: "console", LogFile: path, MaxSize: 1})
		GetLogger().Error("Could not establish a session")
		Sync()

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "Could not establish a session")
	})

	t.Run("initializes only once", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"})
		first := GetLogger()
		Initialize(config.LoggerConfig{Level: "debug", ServiceName: "second"}, zapcore.AddSync(&bytes.Buffer{}))
		assert.Same(t, first, GetLogger())

		GetLogger().Info("test")
		Sync()
		assert.Contains(t, buf.String(), `"logger":"first"`)
	})
}

func TestGetLogger_Fallback(t *testing.T) {
	ResetForTest()
	require.NotNil(t, GetLogger())
}

func TestZapTransport(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tr := NewZapTransport(zap.New(core))

	tr.Log("Restored the previous session")
	tr.Debug("state=LanguageCheck")
	tr.UserAction("Press 42 on your phone to login")
	tr.Warn("Callback failed")
	tr.Error("upload failed")

	entries := logs.All()
	require.Len(t, entries, 5)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, true, entries[2].ContextMap()["user_action"])
	assert.Equal(t, zapcore.ErrorLevel, entries[4].Level)
	assert.Equal(t, "transport", entries[0].LoggerName)
}
