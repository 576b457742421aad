// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/uibdd/internal/config"
)

// syncBuffer is a goroutine safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Sync() error { return nil }

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ zapcore.WriteSyncer = (*syncBuffer)(nil)

func TestInitialize(t *testing.T) {
	t.Cleanup(ResetForTest)

	t.Run("ConsoleWithColors", func(t *testing.T) {
		ResetForTest()
		out := &syncBuffer{}
		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "uibdd",
			Colors:      config.ColorConfig{Info: "green"},
		}, out)

		GetLogger().Named("page").Info("Page identified.")
		Sync()

		s := out.String()
		assert.Contains(t, s, colorMap["green"]+"INFO"+colorReset)
		assert.Contains(t, s, "uibdd.page.")
		assert.Contains(t, s, "Page identified.")
	})

	t.Run("JSON", func(t *testing.T) {
		ResetForTest()
		out := &syncBuffer{}
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "json-test"}, out)

		GetLogger().Warn("Step failed.", zap.String("step", "page is loaded"))
		GetLogger().Debug("filtered out")
		Sync()

		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(out.String()), &entry))
		assert.Equal(t, "warn", entry["level"])
		assert.Equal(t, "json-test", entry["logger"])
		assert.Equal(t, "Step failed.", entry["msg"])
		assert.Equal(t, "page is loaded", entry["step"])
	})

	t.Run("RotatingFile", func(t *testing.T) {
		ResetForTest()
		path := filepath.Join(t.TempDir(), "uibdd.log")
		Initialize(config.LoggerConfig{Level: "debug", Format: "console", LogFile: path, MaxSize: 1}, &syncBuffer{})

		GetLogger().Error("Written to the file.")
		Sync()

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"msg":"Written to the file."`)
	})

	t.Run("OnlyFirstCallApplies", func(t *testing.T) {
		ResetForTest()
		out := &syncBuffer{}
		Initialize(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "first"}, out)
		first := GetLogger()
		Initialize(config.LoggerConfig{Level: "debug", Format: "console", ServiceName: "second"}, out)

		assert.Same(t, first, GetLogger())
		GetLogger().Info("hello")
		Sync()
		assert.Contains(t, out.String(), "first.")
		assert.NotContains(t, out.String(), "second.")
	})
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
	assert.Nil(t, globalLogger.Load())
}
