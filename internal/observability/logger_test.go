package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/webpilot-cli/internal/config"
)

type syncBuffer struct {
	bytes.Buffer
}

func (s *syncBuffer) Sync() error { return nil }

func TestInitialize(t *testing.T) {
	t.Run("writes structured output to the console writer", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		buf := &syncBuffer{}
		Initialize(config.LoggerConfig{Level: "debug", Format: "json"}, zapcore.Lock(buf))

		GetLogger().Info("workflow started", zap.String("run_id", "run-1"))
		Sync()

		out := buf.String()
		assert.Contains(t, out, `"msg":"workflow started"`)
		assert.Contains(t, out, `"run_id":"run-1"`)
	})

	t.Run("falls back to info for an unknown level", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		buf := &syncBuffer{}
		Initialize(config.LoggerConfig{Level: "nonsense", Format: "json"}, zapcore.Lock(buf))

		GetLogger().Debug("should be filtered")
		GetLogger().Info("should appear")
		Sync()

		out := buf.String()
		assert.NotContains(t, out, "should be filtered")
		assert.Contains(t, out, "should appear")
	})
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	assert.NotNil(t, GetLogger())
}
