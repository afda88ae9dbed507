package logging

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

	cfgpkg "github.com/taoyao-code/park-rs485/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestNewCoreJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := zap.New(NewCore("json", zapcore.InfoLevel, &buf))

	logger.Debug("hidden")
	logger.Info("frame built", zap.String("kiosk", "K1"))
	require.NoError(t, logger.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "frame built", entry["msg"])
	assert.Equal(t, "K1", entry["kiosk"])
	assert.Equal(t, "info", entry["level"])
}

func TestInitLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := InitLogger(cfgpkg.LoggingConfig{
		Level:  "info",
		Format: "json",
		File:   cfgpkg.LumberjackConfig{Filename: path, MaxSizeMB: 1},
	})
	require.NoError(t, err)
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
