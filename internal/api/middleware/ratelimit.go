package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig 按客户端限流
type RateLimitConfig struct {
	Enabled        bool
	RequestsPerMin int
	BurstSize      int
}

// RateLimit 按 API Key（无则按来源IP）限流
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RequestsPerMin <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	burst := max(cfg.BurstSize, 1)
	every := rate.Limit(float64(cfg.RequestsPerMin) / 60)

	var mu sync.Mutex
	clients := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		key := c.GetString("api_key")
		if key == "" {
			key = c.ClientIP()
		}

		mu.Lock()
		l, ok := clients[key]
		if !ok {
			l = rate.NewLimiter(every, burst)
			clients[key] = l
		}
		mu.Unlock()

		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "请求过于频繁",
			})
			return
		}
		c.Next()
	}
}
