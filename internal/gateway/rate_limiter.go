package gateway

import (
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// TargetLimiter 每个网关一个令牌桶，防止同一台网关被刷屏
type TargetLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	buckets  map[string]*rate.Limiter
	rejected atomic.Int64
}

// NewTargetLimiter ratePerSec<=0 不限速；burst<=0 取 ratePerSec 的 2 倍
func NewTargetLimiter(ratePerSec float64, burst int) *TargetLimiter {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
		if burst <= 0 {
			burst = int(ratePerSec * 2)
		}
	}
	if burst <= 0 {
		burst = 1
	}
	return &TargetLimiter{limit: limit, burst: burst, buckets: make(map[string]*rate.Limiter)}
}

// Allow 非阻塞检查
func (l *TargetLimiter) Allow(target string) bool {
	l.mu.Lock()
	b, ok := l.buckets[target]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[target] = b
	}
	l.mu.Unlock()

	if b.Allow() {
		return true
	}
	l.rejected.Add(1)
	return false
}

// RejectedTotal 累计拒绝次数
func (l *TargetLimiter) RejectedTotal() int64 {
	return l.rejected.Load()
}
