package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/park-rs485/internal/gateway"
)

type fakeRouter struct {
	states map[string]gateway.BreakerState
}

func (f *fakeRouter) Sinks() []string {
	out := make([]string, 0, len(f.states))
	for k := range f.states {
		out = append(out, k)
	}
	return out
}

func (f *fakeRouter) BreakerState(s string) gateway.BreakerState { return f.states[s] }

func (f *fakeRouter) Throttled() int64 { return 3 }

func TestSinkChecker(t *testing.T) {
	t.Run("全部闭合", func(t *testing.T) {
		c := NewSinkChecker(&fakeRouter{states: map[string]gateway.BreakerState{
			"inline": gateway.BreakerClosed,
			"mqtt":   gateway.BreakerClosed,
		}}, func() bool { return true })
		res := c.Check(context.Background())
		assert.Equal(t, StatusHealthy, res.Status)
		assert.Equal(t, int64(3), res.Details["throttled"])
		assert.Equal(t, true, res.Details["mqtt_connected"])
	})

	t.Run("部分熔断", func(t *testing.T) {
		c := NewSinkChecker(&fakeRouter{states: map[string]gateway.BreakerState{
			"inline": gateway.BreakerClosed,
			"mqtt":   gateway.BreakerOpen,
			"redis":  gateway.BreakerClosed,
		}}, nil)
		assert.Equal(t, StatusDegraded, c.Check(context.Background()).Status)
	})

	t.Run("全部熔断", func(t *testing.T) {
		c := NewSinkChecker(&fakeRouter{states: map[string]gateway.BreakerState{
			"inline": gateway.BreakerClosed,
			"mqtt":   gateway.BreakerOpen,
		}}, nil)
		assert.Equal(t, StatusUnhealthy, c.Check(context.Background()).Status)
	})

	t.Run("MQTT断开", func(t *testing.T) {
		c := NewSinkChecker(&fakeRouter{states: map[string]gateway.BreakerState{
			"inline": gateway.BreakerClosed,
		}}, func() bool { return false })
		assert.Equal(t, StatusDegraded, c.Check(context.Background()).Status)
	})
}

type fakeRedis struct {
	err   error
	stats redis.PoolStats
}

func (f *fakeRedis) HealthCheck(context.Context) error { return f.err }
func (f *fakeRedis) Stats() *redis.PoolStats         { return &f.stats }

type fakeDepths map[string]int64

func (f fakeDepths) Depths(context.Context) (map[string]int64, error) { return f, nil }

func TestRedisChecker(t *testing.T) {
	c := NewRedisChecker(&fakeRedis{err: errors.New("refused")}, nil, 0)
	assert.Equal(t, StatusUnhealthy, c.Check(context.Background()).Status)

	c = NewRedisChecker(&fakeRedis{stats: redis.PoolStats{TotalConns: 4, IdleConns: 3}}, fakeDepths{"gw-1": 2}, 100)
	res := c.Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
	assert.Equal(t, map[string]int64{"gw-1": 2}, res.Details["queues"])

	c = NewRedisChecker(&fakeRedis{stats: redis.PoolStats{TotalConns: 4, IdleConns: 3}}, fakeDepths{"gw-1": 100}, 100)
	assert.Equal(t, StatusDegraded, c.Check(context.Background()).Status)
}

func TestReadiness(t *testing.T) {
	r := New("database", "sinks")
	assert.False(t, r.Ready())
	assert.Equal(t, []string{"database", "sinks"}, r.Pending())

	r.Set("database", true)
	r.Set("sinks", true)
	assert.True(t, r.Ready())
	assert.Empty(t, r.Pending())

	assert.True(t, New().Ready())
}

func TestHTTPRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	get := func(r *gin.Engine, path string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}

	ready := New("sinks")
	r := gin.New()
	RegisterHTTPRoutes(r, NewAggregator(&mockChecker{"sinks", StatusDegraded}), ready)

	assert.Equal(t, http.StatusServiceUnavailable, get(r, "/health/ready"))
	ready.Set("sinks", true)
	assert.Equal(t, http.StatusOK, get(r, "/health/ready"))
	assert.Equal(t, http.StatusOK, get(r, "/health/live"))
	assert.Equal(t, http.StatusOK, get(r, "/health"))

	r = gin.New()
	RegisterHTTPRoutes(r, NewAggregator(&mockChecker{"db", StatusUnhealthy}), nil)
	assert.Equal(t, http.StatusServiceUnavailable, get(r, "/health"))
	assert.Equal(t, http.StatusServiceUnavailable, get(r, "/health/ready"))
}

func TestAggregatorReport(t *testing.T) {
	agg := NewAggregator(&mockChecker{"a", StatusHealthy}, &mockChecker{"b", StatusDegraded})
	rep := agg.Report(context.Background())
	require.Len(t, rep.Checks, 2)
	assert.Equal(t, StatusDegraded, rep.Status)
	assert.False(t, rep.Timestamp.IsZero())
}

func TestWorse(t *testing.T) {
	assert.Equal(t, StatusDegraded, Worse(StatusHealthy, StatusDegraded))
	assert.Equal(t, StatusUnhealthy, Worse(StatusUnhealthy, StatusDegraded))
	assert.Equal(t, StatusHealthy, Worse(StatusHealthy, StatusHealthy))
}
