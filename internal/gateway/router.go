package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taoyao-code/park-rs485/internal/envelope"
	"github.com/taoyao-code/park-rs485/internal/metrics"
	"github.com/taoyao-code/park-rs485/internal/storage"
	"github.com/taoyao-code/park-rs485/internal/storage/models"
)

// Router 按一体机配置选择通道，限速、熔断并记录流水
type Router struct {
	sinks    map[string]Sink
	breakers map[string]*Breaker
	limiter  *TargetLimiter
	log      storage.DispatchRepo
	metrics  *metrics.AppMetrics
	logger   *zap.Logger
}

// Option Router 选项
type Option func(*Router)

func WithLimiter(l *TargetLimiter) Option { return func(r *Router) { r.limiter = l } }

func WithDispatchLog(repo storage.DispatchRepo) Option { return func(r *Router) { r.log = repo } }

func WithMetrics(m *metrics.AppMetrics) Option { return func(r *Router) { r.metrics = m } }

// NewRouter inline 通道始终可用
func NewRouter(logger *zap.Logger, opts ...Option) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		sinks:    map[string]Sink{models.SinkInline: InlineSink{}},
		breakers: make(map[string]*Breaker),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register 注册通道（启动阶段调用，非并发安全）
func (r *Router) Register(s Sink) {
	r.sinks[s.Name()] = s
	if s.Name() != models.SinkInline {
		r.breakers[s.Name()] = NewBreaker(5, 30*time.Second)
	}
}

// Sinks 已注册通道名
func (r *Router) Sinks() []string {
	out := make([]string, 0, len(r.sinks))
	for name := range r.sinks {
		out = append(out, name)
	}
	return out
}

// BreakerState 通道熔断状态，inline 或未注册返回 closed
func (r *Router) BreakerState(sink string) BreakerState {
	if b, ok := r.breakers[sink]; ok {
		return b.State()
	}
	return BreakerClosed
}

// Dispatch 投递报文；返回的记录在投递失败时同样有效（Error 非空）
func (r *Router) Dispatch(ctx context.Context, k *models.Kiosk, scene string, env *envelope.Envelope) (*models.DispatchRecord, error) {
	sinkName := k.Sink
	if sinkName == "" {
		sinkName = models.SinkInline
	}
	d := &Delivery{
		ID:       uuid.NewString(),
		Kiosk:    k.Code,
		Scene:    scene,
		Target:   k.Target(),
		Envelope: env,
	}

	err := r.deliver(ctx, sinkName, d)

	data, merr := env.Marshal()
	if merr != nil && err == nil {
		err = merr
	}
	rec := &models.DispatchRecord{
		DispatchID: d.ID,
		KioskCode:  k.Code,
		Scene:      scene,
		Sink:       sinkName,
		Target:     d.Target,
		FrameCount: len(env.RS485Data),
		Envelope:   data,
	}
	if err != nil {
		rec.Error = err.Error()
	}

	r.observe(sinkName, err)
	if r.log != nil {
		// 流水写入失败不影响下发结果
		if lerr := r.log.Insert(ctx, rec); lerr != nil {
			r.logger.Warn("dispatch log insert failed", zap.String("kiosk", k.Code), zap.Error(lerr))
		}
	}

	if err != nil {
		r.logger.Warn("dispatch failed",
			zap.String("dispatch_id", d.ID),
			zap.String("kiosk", k.Code),
			zap.String("sink", sinkName),
			zap.String("target", d.Target),
			zap.Error(err))
		return rec, err
	}
	r.logger.Debug("dispatched",
		zap.String("dispatch_id", d.ID),
		zap.String("kiosk", k.Code),
		zap.String("scene", scene),
		zap.String("sink", sinkName),
		zap.Int("frames", rec.FrameCount))
	return rec, nil
}

func (r *Router) deliver(ctx context.Context, sinkName string, d *Delivery) error {
	sink, ok := r.sinks[sinkName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSink, sinkName)
	}
	if sinkName == models.SinkInline {
		return sink.Deliver(ctx, d)
	}
	if r.limiter != nil && !r.limiter.Allow(d.Target) {
		return fmt.Errorf("%w: %s", ErrThrottled, d.Target)
	}
	return r.breakers[sinkName].Do(func() error {
		return sink.Deliver(ctx, d)
	})
}

func (r *Router) observe(sink string, err error) {
	if r.metrics == nil {
		return
	}
	result := "ok"
	switch {
	case errors.Is(err, ErrThrottled):
		result = "throttled"
	case errors.Is(err, ErrBreakerOpen):
		result = "circuit_open"
	case err != nil:
		result = "error"
	}
	r.metrics.DispatchTotal.WithLabelValues(sink, result).Inc()
}

// Throttled 被限速拒绝的累计次数
func (r *Router) Throttled() int64 {
	if r.limiter == nil {
		return 0
	}
	return r.limiter.RejectedTotal()
}
