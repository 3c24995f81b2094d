package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_WritesJsonLines(t *testing.T) {
	dir := t.TempDir()
	defer zap.ReplaceGlobals(zap.NewNop())

	logger := NewLogger(Options{Dir: dir, App: "test", Network: "localnet", Debug: true})
	assert.Same(t, logger, zap.L())

	zap.L().With(zap.Uint64("tokenId", 3)).Debug("Marketplace trade")
	_ = logger.Sync()

	b, err := os.ReadFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"message":"Marketplace trade"`)
	assert.Contains(t, string(b), `"tokenId":3`)
	assert.Contains(t, string(b), `"app":"test"`)
	assert.Contains(t, string(b), `"network":"localnet"`)
}

func TestNewLogger_FallsBackToConsole(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	logger := NewLogger(Options{Dir: filepath.Join(blocker, "log"), App: "test"})
	assert.NotNil(t, logger)
	assert.Same(t, logger, zap.L())
}

func TestOptions_Level(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, Options{}.level())
	assert.Equal(t, zapcore.DebugLevel, Options{Debug: true}.level())
}
