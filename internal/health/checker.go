package health

import (
	"context"
	"time"
)

// Status 组件健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"  // 仍可下发，部分通道受损
	StatusUnhealthy Status = "unhealthy" // 无法下发
)

func (s Status) rank() int {
	switch s {
	case StatusUnhealthy:
		return 2
	case StatusDegraded:
		return 1
	}
	return 0
}

// Worse 返回两者中更差的状态
func Worse(a, b Status) Status {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// CheckResult 单项检查结果
type CheckResult struct {
	Status  Status                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	Latency time.Duration          `json:"latency"`
}

// Checker 健康检查器；Check 需遵守 ctx 超时
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}
