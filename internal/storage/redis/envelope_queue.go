package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// 每个网关一条 List，网关按 FIFO 拉取
const queueKeyPrefix = "rs485:queue:"

// QueueKey 网关队列 key
func QueueKey(gateway string) string {
	return queueKeyPrefix + gateway
}

// QueuedEnvelope 待网关拉取的下发报文
type QueuedEnvelope struct {
	ID        string          `json:"id"`
	Kiosk     string          `json:"kiosk"`
	Scene     string          `json:"scene"`
	Envelope  json.RawMessage `json:"envelope"`
	CreatedAt time.Time       `json:"created_at"`
}

// EnvelopeQueue 网关拉取队列
type EnvelopeQueue struct {
	client *Client
	maxLen int64
}

// NewEnvelopeQueue maxLen<=0 不截断
func NewEnvelopeQueue(client *Client, maxLen int64) *EnvelopeQueue {
	return &EnvelopeQueue{client: client, maxLen: maxLen}
}

// Push 入队；超出 maxLen 时丢弃最旧的报文
func (q *EnvelopeQueue) Push(ctx context.Context, gateway string, msg *QueuedEnvelope) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	key := QueueKey(gateway)
	pipe := q.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if q.maxLen > 0 {
		pipe.LTrim(ctx, key, -q.maxLen, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push %s: %w", key, err)
	}
	return nil
}

// Pop 取出最早的一条；队列为空返回 nil, nil
func (q *EnvelopeQueue) Pop(ctx context.Context, gateway string) (*QueuedEnvelope, error) {
	data, err := q.client.LPop(ctx, QueueKey(gateway)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop %s: %w", gateway, err)
	}

	var msg QueuedEnvelope
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("parse queued envelope: %w", err)
	}
	return &msg, nil
}

// Len 单个网关积压数量
func (q *EnvelopeQueue) Len(ctx context.Context, gateway string) (int64, error) {
	return q.client.LLen(ctx, QueueKey(gateway)).Result()
}

// Depths 扫描所有网关队列积压
func (q *EnvelopeQueue) Depths(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64)
	var cursor uint64
	for {
		keys, next, err := q.client.Scan(ctx, cursor, queueKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			n, err := q.client.LLen(ctx, key).Result()
			if err != nil {
				return nil, err
			}
			out[strings.TrimPrefix(key, queueKeyPrefix)] = n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return out, nil
}
