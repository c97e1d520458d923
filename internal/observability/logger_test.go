// internal/observability/logger_test.go
package observability

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/craftcheck/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestInitialize(t *testing.T) {
	t.Run("console logger colors levels and suffixes the name", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		buf := &zaptest.Buffer{}
		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "craftcheck",
			Colors:      config.ColorConfig{Info: "green"},
		}, buf)

		GetLogger().Named("sequencer").Info("step started", zap.String("step", "initial-load"))
		Sync()

		out := buf.String()
		assert.Contains(t, out, colorGreen+"INFO"+colorReset)
		assert.Contains(t, out, "craftcheck.sequencer.")
		assert.Contains(t, out, "step started")
		assert.Contains(t, out, `"step": "initial-load"`)
	})

	t.Run("json logger emits one object per entry", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		buf := &zaptest.Buffer{}
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "craftcheck"}, buf)
		GetLogger().Warn("busy label not observed", zap.String("label", "Generate Design"))
		Sync()

		lines := buf.Lines()
		require.Len(t, lines, 1)

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "craftcheck", entry["logger"])
		assert.Equal(t, "busy label not observed", entry["msg"])
		assert.Equal(t, "Generate Design", entry["label"])
	})

	t.Run("level filters lower entries", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		buf := &zaptest.Buffer{}
		Initialize(config.LoggerConfig{Level: "warn", Format: "json"}, buf)
		GetLogger().Info("dropped")
		GetLogger().Error("kept")

		assert.NotContains(t, buf.String(), "dropped")
		assert.Contains(t, buf.String(), "kept")
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		buf := &zaptest.Buffer{}
		Initialize(config.LoggerConfig{Level: "chatty", Format: "json"}, buf)
		GetLogger().Debug("hidden")
		GetLogger().Info("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("file sink receives json entries", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		logPath := filepath.Join(t.TempDir(), "craftcheck.log")
		Initialize(config.LoggerConfig{
			Level:   "debug",
			Format:  "console",
			LogFile: logPath,
			MaxSize: 1,
		}, &zaptest.Buffer{})
		GetLogger().Error("navigation failed")
		Sync()

		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"msg":"navigation failed"`)
	})

	t.Run("only the first call takes effect", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		first := &zaptest.Buffer{}
		second := &zaptest.Buffer{}
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "First"}, first)
		logger1 := GetLogger()
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "Second"}, second)
		logger2 := GetLogger()

		assert.Same(t, logger1, logger2)
		logger2.Info("test")
		assert.Contains(t, first.String(), "First")
		assert.Empty(t, second.String())
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("fallback before initialization", func(t *testing.T) {
		ResetForTest()
		require.NotNil(t, GetLogger())
	})

	t.Run("returns the stored logger", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		Initialize(config.LoggerConfig{Level: "info"}, &zaptest.Buffer{})
		assert.Same(t, globalLogger.Load(), GetLogger())
	})
}

func TestNewLoggerLeavesGlobalsAlone(t *testing.T) {
	ResetForTest()
	buf := &zaptest.Buffer{}
	l := NewLogger(config.LoggerConfig{Level: "info", Format: "json"}, buf)
	l.Info("local")

	assert.Nil(t, globalLogger.Load())
	assert.Contains(t, buf.String(), "local")
}
