package redis

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 需要真实 Redis：设置 RS485_TEST_REDIS=localhost:6379
func testClient(t *testing.T) *Client {
	addr := os.Getenv("RS485_TEST_REDIS")
	if addr == "" {
		t.Skip("需要Redis服务器，跳过测试")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, DB: 15})
	require.NoError(t, rdb.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = rdb.Close() })
	return &Client{Client: rdb}
}

func TestQueueKey(t *testing.T) {
	assert.Equal(t, "rs485:queue:gw-01", QueueKey("gw-01"))
}

func TestEnvelopeQueue(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	gw := "test-gw-" + time.Now().Format("150405.000")
	t.Cleanup(func() { c.Del(ctx, QueueKey(gw)) })

	q := NewEnvelopeQueue(c, 2)

	t.Run("空队列", func(t *testing.T) {
		msg, err := q.Pop(ctx, gw)
		require.NoError(t, err)
		assert.Nil(t, msg)
	})

	t.Run("先进先出并截断", func(t *testing.T) {
		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, q.Push(ctx, gw, &QueuedEnvelope{
				ID:       id,
				Kiosk:    "K1",
				Envelope: json.RawMessage(`{"error_num":0}`),
			}))
		}
		n, err := q.Len(ctx, gw)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		depths, err := q.Depths(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), depths[gw])

		msg, err := q.Pop(ctx, gw)
		require.NoError(t, err)
		assert.Equal(t, "b", msg.ID)
		assert.JSONEq(t, `{"error_num":0}`, string(msg.Envelope))
	})
}
