// Package outbound 边缘侧转发：从网关拉取队列取报文写入本地 485 总线
package outbound

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/park-rs485/internal/envelope"
	redisstorage "github.com/taoyao-code/park-rs485/internal/storage/redis"
)

// Queue 网关拉取队列
type Queue interface {
	Pop(ctx context.Context, gateway string) (*redisstorage.QueuedEnvelope, error)
}

// FrameWriter 按顺序写出帧（通常为串口）
type FrameWriter interface {
	WriteFrames(ctx context.Context, frames [][]byte) error
}

// Relay 单网关转发 Worker。
// 队列为空时按 idle 间隔轮询，有积压时连续出队；写失败的报文丢弃不重试。
type Relay struct {
	queue   Queue
	out     FrameWriter
	gateway string
	idle    time.Duration
	logger  *zap.Logger

	sent    atomic.Int64
	failed  atomic.Int64
	invalid atomic.Int64
}

// NewRelay idle <= 0 时使用 200ms
func NewRelay(queue Queue, out FrameWriter, gateway string, idle time.Duration, logger *zap.Logger) *Relay {
	if idle <= 0 {
		idle = 200 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{queue: queue, out: out, gateway: gateway, idle: idle, logger: logger}
}

// Start 阻塞运行直到 ctx 取消
func (r *Relay) Start(ctx context.Context) {
	r.logger.Info("relay started", zap.String("gateway", r.gateway), zap.Duration("idle", r.idle))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("relay stopping", zap.String("gateway", r.gateway))
			return
		case <-timer.C:
			next := r.idle
			if r.ProcessOne(ctx) {
				next = 0
			}
			timer.Reset(next)
		}
	}
}

// ProcessOne 处理一条报文；返回是否取到了报文
func (r *Relay) ProcessOne(ctx context.Context) bool {
	msg, err := r.queue.Pop(ctx, r.gateway)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("dequeue failed", zap.String("gateway", r.gateway), zap.Error(err))
		}
		return false
	}
	if msg == nil {
		return false
	}

	frames, err := decode(msg)
	if err != nil {
		r.invalid.Add(1)
		r.logger.Warn("drop invalid envelope",
			zap.String("dispatch_id", msg.ID),
			zap.String("kiosk", msg.Kiosk),
			zap.Error(err))
		return true
	}

	if err := r.out.WriteFrames(ctx, frames); err != nil {
		r.failed.Add(1)
		r.logger.Error("write frames failed",
			zap.String("dispatch_id", msg.ID),
			zap.String("kiosk", msg.Kiosk),
			zap.Int("frames", len(frames)),
			zap.Error(err))
		return true
	}

	r.sent.Add(1)
	r.logger.Debug("envelope relayed",
		zap.String("dispatch_id", msg.ID),
		zap.String("kiosk", msg.Kiosk),
		zap.String("scene", msg.Scene),
		zap.Int("frames", len(frames)))
	return true
}

func decode(msg *redisstorage.QueuedEnvelope) ([][]byte, error) {
	env, err := envelope.Parse(msg.Envelope)
	if err != nil {
		return nil, err
	}
	frames, err := env.Frames()
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("envelope %s has no frames", msg.ID)
	}
	return frames, nil
}

// Stats 统计信息
func (r *Relay) Stats() map[string]interface{} {
	return map[string]interface{}{
		"gateway": r.gateway,
		"sent":    r.sent.Load(),
		"failed":  r.failed.Load(),
		"invalid": r.invalid.Load(),
	}
}
