package gateway

import (
	"errors"
	"sync"
	"time"
)

// BreakerState 熔断器状态
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // 正常投递
	BreakerOpen                         // 通道故障，直接拒绝
	BreakerHalfOpen                     // 冷却结束，放行少量投递试探
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	}
	return "unknown"
}

// ErrBreakerOpen 通道熔断中
var ErrBreakerOpen = errors.New("gateway: sink circuit open")

// Breaker 下发通道熔断器：连续 threshold 次失败后熔断 cooldown，
// 之后半开放行 probes 次，全部成功才恢复
type Breaker struct {
	mu        sync.Mutex
	state     BreakerState
	failures  int
	inFlight  int
	succeeded int
	openedAt  time.Time
	trips     int64
	gen       uint64 // 每次进入半开 +1

	threshold int
	cooldown  time.Duration
	probes    int
	now       func() time.Time
}

// NewBreaker threshold<=0 取 5，cooldown<=0 取 30s
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{threshold: threshold, cooldown: cooldown, probes: 2, now: time.Now}
}

// Do 在熔断保护下执行 fn
func (b *Breaker) Do(fn func() error) error {
	t, err := b.acquire()
	if err != nil {
		return err
	}
	err = fn()
	b.release(t, err)
	return err
}

// ticket 记录放行时的身份；半开试探只由同一轮半开的试探结算
type ticket struct {
	probe bool
	gen   uint64
}

func (b *Breaker) acquire() (ticket, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return ticket{}, ErrBreakerOpen
		}
		b.state, b.inFlight, b.succeeded = BreakerHalfOpen, 0, 0
		b.gen++
		fallthrough
	case BreakerHalfOpen:
		if b.inFlight+b.succeeded >= b.probes {
			return ticket{}, ErrBreakerOpen
		}
		b.inFlight++
		return ticket{probe: true, gen: b.gen}, nil
	}
	return ticket{gen: b.gen}, nil
}

func (b *Breaker) release(t ticket, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t.probe {
		// 所属半开轮次已结束，结果不再计入
		if t.gen != b.gen || b.state != BreakerHalfOpen {
			return
		}
		b.inFlight--
		if err != nil {
			b.trip()
			return
		}
		b.succeeded++
		if b.succeeded >= b.probes {
			b.state, b.failures = BreakerClosed, 0
		}
		return
	}

	// 闭合期放行的投递只影响闭合状态的失败计数
	if b.state != BreakerClosed {
		return
	}
	if err != nil {
		b.failures++
		if b.failures >= b.threshold {
			b.trip()
		}
		return
	}
	b.failures = 0
}

func (b *Breaker) trip() {
	b.state, b.openedAt = BreakerOpen, b.now()
	b.failures = 0
	b.trips++
}

// State 当前状态
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Trips 累计熔断次数
func (b *Breaker) Trips() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.trips
}
