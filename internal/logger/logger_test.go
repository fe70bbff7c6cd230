package logger

import (
	"os"
	"path/filepath"
	"testing"

	"rag-quiz/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestGetBeforeInitialize(t *testing.T) {
	assert.NotNil(t, Get())
}

func TestInitializeWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, Initialize(config.LoggerConfig{Level: "debug", Env: "production", File: path, MaxSizeMB: 1}))

	Get().Info("hello file")
	_ = Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}
