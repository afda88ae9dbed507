package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "park-rs485", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "GBK", cfg.Codec.Charset)
	assert.Equal(t, 0x64, cfg.Codec.Address)
	assert.Equal(t, "inline", cfg.Gateway.DefaultSink)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	content := []byte(`
http:
  addr: ":9090"
codec:
  charset: GB18030
api:
  auth:
    enabled: true
    apiKeys: ["sk_test_12345678"]
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	t.Setenv("RS485_GATEWAY_DEFAULTSINK", "redis")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "GB18030", cfg.Codec.Charset)
	assert.True(t, cfg.API.Auth.Enabled)
	assert.Equal(t, []string{"sk_test_12345678"}, cfg.API.Auth.APIKeys)
	assert.Equal(t, "redis", cfg.Gateway.DefaultSink)
}

func TestLoadBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http: [\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
