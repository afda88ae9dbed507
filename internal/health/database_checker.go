package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool pgx 连接池
type Pool interface {
	Ping(ctx context.Context) error
	Stat() *pgxpool.Stat
}

// DatabaseChecker 数据库健康检查器
type DatabaseChecker struct {
	pool Pool
}

// NewDatabaseChecker 创建数据库健康检查器
func NewDatabaseChecker(pool Pool) *DatabaseChecker {
	return &DatabaseChecker{pool: pool}
}

// Name 返回检查器名称
func (c *DatabaseChecker) Name() string {
	return "database"
}

// Check Ping 后按连接池利用率判定
func (c *DatabaseChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	if err := c.pool.Ping(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
			Latency: time.Since(start),
		}
	}

	stats := c.pool.Stat()
	utilization := 0.0
	if stats.MaxConns() > 0 {
		utilization = float64(stats.AcquiredConns()) / float64(stats.MaxConns())
	}

	status := StatusHealthy
	message := "ok"
	switch {
	case utilization >= 1.0:
		status = StatusUnhealthy
		message = "connection pool exhausted"
	case utilization > 0.9:
		status = StatusDegraded
		message = "connection pool near limit"
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: map[string]interface{}{
			"total_conns":    stats.TotalConns(),
			"idle_conns":     stats.IdleConns(),
			"acquired_conns": stats.AcquiredConns(),
			"max_conns":      stats.MaxConns(),
			"utilization":    fmt.Sprintf("%.1f%%", utilization*100),
		},
		Latency: time.Since(start),
	}
}
