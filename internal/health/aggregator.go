package health

import (
	"context"
	"sync"
	"time"
)

// DefaultCheckTimeout 单项检查超时
const DefaultCheckTimeout = 2 * time.Second

// Aggregator 健康检查聚合器
type Aggregator struct {
	checkers []Checker
	timeout  time.Duration
	mu       sync.RWMutex
}

// NewAggregator 创建聚合器
func NewAggregator(checkers ...Checker) *Aggregator {
	return &Aggregator{
		checkers: checkers,
		timeout:  DefaultCheckTimeout,
	}
}

// SetTimeout 调整单项检查超时
func (a *Aggregator) SetTimeout(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if d > 0 {
		a.timeout = d
	}
}

// AddChecker 添加检查器
func (a *Aggregator) AddChecker(checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkers = append(a.checkers, checker)
}

// CheckAll 执行所有健康检查（并发）
func (a *Aggregator) CheckAll(ctx context.Context) map[string]CheckResult {
	a.mu.RLock()
	defer a.mu.RUnlock()

	results := make(map[string]CheckResult)
	resultsMu := sync.Mutex{}
	wg := sync.WaitGroup{}

	for _, checker := range a.checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()
			result := c.Check(cctx)

			resultsMu.Lock()
			results[c.Name()] = result
			resultsMu.Unlock()
		}(checker)
	}

	wg.Wait()
	return results
}

// OverallStatus 计算总体健康状态
func (a *Aggregator) OverallStatus(ctx context.Context) Status {
	return overall(a.CheckAll(ctx))
}

func overall(results map[string]CheckResult) Status {
	status := StatusHealthy
	for _, result := range results {
		status = Worse(status, result.Status)
	}
	return status
}

// Ready 判断系统是否就绪（用于K8s readiness probe）
func (a *Aggregator) Ready(ctx context.Context) bool {
	status := a.OverallStatus(ctx)
	// Degraded状态仍然就绪，只有Unhealthy才不就绪
	return status != StatusUnhealthy
}

// Alive 判断系统是否存活（用于K8s liveness probe）
// 简单返回true，因为如果进程挂了就不会响应
func (a *Aggregator) Alive() bool {
	return true
}

// HealthReport 健康报告
type HealthReport struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Report 执行一轮检查并生成报告
func (a *Aggregator) Report(ctx context.Context) HealthReport {
	results := a.CheckAll(ctx)
	return HealthReport{
		Status:    overall(results),
		Timestamp: time.Now(),
		Checks:    results,
	}
}
