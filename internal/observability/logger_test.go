// File: internal/observability/logger_test.go
package observability

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/keyflow/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// memSink is an in-memory WriteSyncer for capturing console output.
type memSink struct {
	strings.Builder
}

func (m *memSink) Sync() error { return nil }

func TestInitialize(t *testing.T) {
	t.Run("console format produces colorized single-line output", func(t *testing.T) {
		ResetForTest()
		sink := &memSink{}

		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "keyflow",
		}, zapcore.Lock(zapcore.AddSync(sink)))

		GetLogger().Named("engine").Info("session started", zap.Int("chars", 42))

		out := sink.String()
		assert.Contains(t, out, "session started")
		assert.Contains(t, out, "keyflow.engine.")
		// Info renders green in console format.
		assert.Contains(t, out, "\x1b[32mINFO\x1b[0m")
	})

	t.Run("json format produces parseable structured output", func(t *testing.T) {
		ResetForTest()
		sink := &memSink{}

		Initialize(config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "keyflow",
		}, zapcore.Lock(zapcore.AddSync(sink)))

		GetLogger().Info("typing complete", zap.Int("skipped", 3))

		line := strings.TrimSpace(sink.String())
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "typing complete", entry["msg"])
		assert.EqualValues(t, 3, entry["skipped"])
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		ResetForTest()
		sink := &memSink{}

		Initialize(config.LoggerConfig{
			Level:  "extremely-verbose",
			Format: "json",
		}, zapcore.Lock(zapcore.AddSync(sink)))

		GetLogger().Debug("should be filtered")
		GetLogger().Info("should pass")

		out := sink.String()
		assert.NotContains(t, out, "should be filtered")
		assert.Contains(t, out, "should pass")
	})

	t.Run("log file gets a rotating json core", func(t *testing.T) {
		ResetForTest()
		logFile := filepath.Join(t.TempDir(), "keyflow.log")
		sink := &memSink{}

		Initialize(config.LoggerConfig{
			Level:   "info",
			Format:  "console",
			LogFile: logFile,
			MaxSize: 1,
		}, zapcore.Lock(zapcore.AddSync(sink)))

		GetLogger().Info("written to both cores")
		Sync()

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "written to both cores")
	})

	t.Run("second Initialize is a no-op", func(t *testing.T) {
		ResetForTest()
		first := &memSink{}
		second := &memSink{}

		Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.Lock(zapcore.AddSync(first)))
		Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.Lock(zapcore.AddSync(second)))

		GetLogger().Info("only once")
		assert.Contains(t, first.String(), "only once")
		assert.Empty(t, second.String())
	})
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	logger := GetLogger()
	require.NotNil(t, logger)
	// The fallback is usable even without initialization.
	logger.Debug("fallback logger is alive", zap.String("t", t.Name()))
}

func TestZaptestIntegration(t *testing.T) {
	// Components take *zap.Logger directly, so tests can hand them a
	// test-scoped logger without touching the global.
	logger := zaptest.NewLogger(t)
	logger.Info("component-scoped logging works")
}
