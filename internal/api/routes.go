package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/park-rs485/internal/api/middleware"
	"github.com/taoyao-code/park-rs485/internal/config"
	"github.com/taoyao-code/park-rs485/internal/storage"
)

// Deps 路由依赖；Queue 为 nil 时不注册网关拉取接口
type Deps struct {
	Service  DisplayService
	Kiosks   storage.KioskRepo
	Dispatch storage.DispatchRepo
	Queue    GatewayQueue
}

// RegisterRoutes 注册业务路由
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.APIConfig, logger *zap.Logger) {
	if r == nil || deps.Service == nil || deps.Kiosks == nil {
		return
	}
	kiosk := NewKioskHandler(deps.Service, deps.Kiosks, deps.Dispatch, logger)

	api := r.Group("/api")
	api.Use(middleware.RequestTracing())
	if cfg.Auth.Enabled {
		api.Use(middleware.APIKeyAuth(cfg.Auth, logger))
		logger.Info("api authentication enabled", zap.Int("api_keys_count", len(cfg.Auth.APIKeys)))
	} else {
		logger.Warn("api authentication disabled - only for development!")
	}
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:        cfg.RateLimit.Enabled,
		RequestsPerMin: cfg.RateLimit.RequestsPerMin,
		BurstSize:      cfg.RateLimit.Burst,
	}))

	api.GET("/kiosks", kiosk.ListKiosks)
	api.GET("/kiosks/:code", kiosk.GetKiosk)
	api.PUT("/kiosks/:code", kiosk.UpsertKiosk)
	api.GET("/kiosks/:code/dispatches", kiosk.ListDispatches)
	api.POST("/kiosks/:code/scenes/:scene", kiosk.Scene)
	api.POST("/kiosks/:code/commands/:command", kiosk.Command)
	api.POST("/frames/verify", VerifyFrames)

	endpoints := 7
	if deps.Queue != nil {
		gw := NewGatewayHandler(deps.Queue, logger)
		api.GET("/gateways/:id/next", gw.Next)
		api.GET("/gateways/:id/depth", gw.Depth)
		endpoints += 2
	}
	logger.Info("api routes registered", zap.Int("endpoints", endpoints))
}
