package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	cfgpkg "github.com/taoyao-code/park-rs485/internal/config"
	appmetrics "github.com/taoyao-code/park-rs485/internal/metrics"
)

func serve(s *Server, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestHealthzReadyzMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := cfgpkg.HTTPConfig{Addr: ":0", ReadTimeout: time.Second, WriteTimeout: time.Second}
	reg := appmetrics.NewRegistry()
	srv := New(cfg, "/metrics", appmetrics.Handler(reg), func() bool { return true }, nil)

	assert.Equal(t, http.StatusOK, serve(srv, "/healthz").Code)
	assert.Equal(t, http.StatusOK, serve(srv, "/readyz").Code)
	assert.Equal(t, http.StatusOK, serve(srv, "/metrics").Code)
}

func TestReadyzNotReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := cfgpkg.HTTPConfig{Addr: ":0"}
	srv := New(cfg, "", nil, func() bool { return false }, nil)

	assert.Equal(t, http.StatusServiceUnavailable, serve(srv, "/readyz").Code)
	assert.Equal(t, http.StatusNotFound, serve(srv, "/metrics").Code)
}

func TestEngineRoutesAndAccessLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	srv := New(cfgpkg.HTTPConfig{Addr: ":0"}, "", nil, nil, zap.New(core))
	srv.Engine().GET("/api/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	rr := serve(srv, "/api/ping")
	assert.Equal(t, "pong", rr.Body.String())
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	serve(srv, "/healthz")
	entries := logs.FilterMessage("http request").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "/api/ping", entries[0].ContextMap()["path"])
	}
}
