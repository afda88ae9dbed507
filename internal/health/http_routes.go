package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterHTTPRoutes 注册健康检查HTTP路由；readiness 可为 nil
func RegisterHTTPRoutes(r *gin.Engine, aggregator *Aggregator, readiness *Readiness) {
	// GET /health/ready 启动完成且无不健康组件
	r.GET("/health/ready", func(c *gin.Context) {
		if readiness != nil && !readiness.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "starting",
				"ready":   false,
				"pending": readiness.Pending(),
			})
			return
		}
		if !aggregator.Ready(c.Request.Context()) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"ready":  false,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"ready":  true,
		})
	})

	// GET /health/live
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"alive": aggregator.Alive(),
		})
	})

	// GET /health 详细检查；Degraded 仍返回200
	r.GET("/health", func(c *gin.Context) {
		report := aggregator.Report(c.Request.Context())

		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, report)
	})
}
