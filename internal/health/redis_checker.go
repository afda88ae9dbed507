package health

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient Redis 连接
type RedisClient interface {
	HealthCheck(ctx context.Context) error
	Stats() *redis.PoolStats
}

// QueueDepths 网关拉取队列积压
type QueueDepths interface {
	Depths(ctx context.Context) (map[string]int64, error)
}

// RedisChecker Redis健康检查器，附带网关队列积压
type RedisChecker struct {
	client   RedisClient
	queues   QueueDepths
	maxDepth int64
}

// NewRedisChecker queues 可为 nil；任一队列积压达到 maxDepth 视为降级
func NewRedisChecker(client RedisClient, queues QueueDepths, maxDepth int64) *RedisChecker {
	return &RedisChecker{client: client, queues: queues, maxDepth: maxDepth}
}

// Name 返回检查器名称
func (c *RedisChecker) Name() string {
	return "redis"
}

// Check 执行健康检查
func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	if err := c.client.HealthCheck(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
			Latency: time.Since(start),
		}
	}

	stats := c.client.Stats()
	utilization := 0.0
	if stats.TotalConns > 0 {
		utilization = float64(stats.TotalConns-stats.IdleConns) / float64(stats.TotalConns)
	}

	status := StatusHealthy
	message := "ok"
	if utilization > 0.9 {
		status = StatusDegraded
		message = "connection pool near limit"
	}

	details := map[string]interface{}{
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"timeouts":    stats.Timeouts,
		"utilization": fmt.Sprintf("%.1f%%", utilization*100),
	}

	if c.queues != nil {
		depths, err := c.queues.Depths(ctx)
		if err != nil {
			details["queue_error"] = err.Error()
		} else {
			details["queues"] = depths
			for _, n := range depths {
				if c.maxDepth > 0 && n >= c.maxDepth {
					status = StatusDegraded
					message = "gateway queue backlog"
					break
				}
			}
		}
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: details,
		Latency: time.Since(start),
	}
}
