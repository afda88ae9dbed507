package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/park-rs485/internal/config"
	"github.com/taoyao-code/park-rs485/internal/metrics"
	"github.com/taoyao-code/park-rs485/internal/storage"
	"github.com/taoyao-code/park-rs485/internal/storage/models"
)

func TestNewStoresMemory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kiosks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kiosks:\n  - code: GATE-IN-01\n    gateway_id: gw-1\n"), 0o644))

	t.Run("导入种子", func(t *testing.T) {
		st, err := NewStores(ctx, nil, path, models.SinkRedis, zap.NewNop())
		require.NoError(t, err)
		k, err := st.Kiosks.GetByCode(ctx, "GATE-IN-01")
		require.NoError(t, err)
		assert.Equal(t, models.SinkRedis, k.Sink)
	})

	t.Run("种子缺失", func(t *testing.T) {
		st, err := NewStores(ctx, nil, filepath.Join(t.TempDir(), "none.yaml"), "", zap.NewNop())
		require.NoError(t, err)
		_, err = st.Kiosks.GetByCode(ctx, "GATE-IN-01")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("种子格式错误", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("kiosks: [\n"), 0o644))
		_, err := NewStores(ctx, nil, bad, "", zap.NewNop())
		assert.Error(t, err)
	})
}

func TestNewEncoderPool(t *testing.T) {
	pool, addr, err := NewEncoderPool(cfgpkg.CodecConfig{Charset: "GBK", Address: 0x64}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, pool)
	assert.Equal(t, byte(0x64), addr)

	_, _, err = NewEncoderPool(cfgpkg.CodecConfig{Charset: "GBK", Address: 300}, zap.NewNop())
	assert.Error(t, err)

	pool, _, err = NewEncoderPool(cfgpkg.CodecConfig{Charset: "no-such-charset"}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, pool)
}

func TestNewSinksInlineOnly(t *testing.T) {
	cfg := &cfgpkg.Config{Gateway: cfgpkg.GatewayConfig{RatePerSec: 5, Burst: 5}}
	_, appm := NewMetrics("test")

	s, err := NewSinks(cfg, nil, storage.NewMemoryDispatchRepo(10), appm, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"inline"}, s.Router.Sinks())
	assert.Nil(t, s.MQTTConnected())
}

func TestNewHTTPServerMetricsToggle(t *testing.T) {
	reg, _ := NewMetrics("test")
	cfg := &cfgpkg.Config{HTTP: cfgpkg.HTTPConfig{Addr: ":0"}, Metrics: cfgpkg.MetricsConfig{Enable: false, Path: "/metrics"}}
	srv := NewHTTPServer(cfg, metrics.Handler(reg), nil, zap.NewNop())
	assert.NotNil(t, srv.Engine())
}

func TestNewMetricsBuildInfo(t *testing.T) {
	reg, appm := NewMetrics("v1.2.3")
	require.NotNil(t, appm)

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "rs485_build_info" {
			found = true
			assert.Equal(t, "v1.2.3", f.GetMetric()[0].GetLabel()[0].GetValue())
		}
	}
	assert.True(t, found)
}
