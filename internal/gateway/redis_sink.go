package gateway

import (
	"context"
	"time"

	"github.com/taoyao-code/park-rs485/internal/storage/models"
	redisstorage "github.com/taoyao-code/park-rs485/internal/storage/redis"
)

// EnvelopeQueue 网关拉取队列
type EnvelopeQueue interface {
	Push(ctx context.Context, gateway string, msg *redisstorage.QueuedEnvelope) error
	Len(ctx context.Context, gateway string) (int64, error)
}

// RedisSink 写入网关拉取队列 rs485:queue:<gateway>
type RedisSink struct {
	queue   EnvelopeQueue
	onDepth func(gateway string, n int64)
}

// NewRedisSink onDepth 可为 nil，用于上报积压
func NewRedisSink(queue EnvelopeQueue, onDepth func(gateway string, n int64)) *RedisSink {
	return &RedisSink{queue: queue, onDepth: onDepth}
}

func (s *RedisSink) Name() string { return models.SinkRedis }

func (s *RedisSink) Deliver(ctx context.Context, d *Delivery) error {
	data, err := d.Envelope.Marshal()
	if err != nil {
		return err
	}
	msg := &redisstorage.QueuedEnvelope{
		ID:        d.ID,
		Kiosk:     d.Kiosk,
		Scene:     d.Scene,
		Envelope:  data,
		CreatedAt: time.Now(),
	}
	if err := s.queue.Push(ctx, d.Target, msg); err != nil {
		return err
	}
	if s.onDepth != nil {
		if n, err := s.queue.Len(ctx, d.Target); err == nil {
			s.onDepth(d.Target, n)
		}
	}
	return nil
}
