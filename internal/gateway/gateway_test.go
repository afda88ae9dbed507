package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taoyao-code/park-rs485/internal/envelope"
	"github.com/taoyao-code/park-rs485/internal/metrics"
	"github.com/taoyao-code/park-rs485/internal/protocol/rs485"
	"github.com/taoyao-code/park-rs485/internal/storage"
	"github.com/taoyao-code/park-rs485/internal/storage/models"
	redisstorage "github.com/taoyao-code/park-rs485/internal/storage/redis"
)

func testEnvelope(t *testing.T) *envelope.Envelope {
	t.Helper()
	packets, err := rs485.NewEncoder(rs485.Standard()).NewBatch().CancelAll().QueryVersion().Seal()
	require.NoError(t, err)
	return envelope.Wrap(packets)
}

type memQueue struct {
	mu   sync.Mutex
	msgs map[string][]*redisstorage.QueuedEnvelope
	err  error
}

func (q *memQueue) Push(_ context.Context, gw string, msg *redisstorage.QueuedEnvelope) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.msgs == nil {
		q.msgs = make(map[string][]*redisstorage.QueuedEnvelope)
	}
	q.msgs[gw] = append(q.msgs[gw], msg)
	return nil
}

func (q *memQueue) Len(_ context.Context, gw string) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.msgs[gw])), nil
}

type fakeToken struct {
	err  error
	done bool
}

func (t *fakeToken) Wait() bool                     { return t.done }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.done }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type fakePublisher struct {
	topic   string
	qos     byte
	payload []byte
	token   *fakeToken
}

func (p *fakePublisher) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	p.topic, p.qos, p.payload = topic, qos, payload.([]byte)
	return p.token
}

func (p *fakePublisher) IsConnected() bool { return true }

func TestRedisSink(t *testing.T) {
	q := &memQueue{}
	var depth int64
	sink := NewRedisSink(q, func(_ string, n int64) { depth = n })

	d := &Delivery{ID: "d1", Kiosk: "K1", Scene: "entry", Target: "gw-1", Envelope: testEnvelope(t)}
	require.NoError(t, sink.Deliver(context.Background(), d))
	require.Len(t, q.msgs["gw-1"], 1)
	assert.Equal(t, int64(1), depth)

	var env envelope.Envelope
	require.NoError(t, json.Unmarshal(q.msgs["gw-1"][0].Envelope, &env))
	assert.Equal(t, "AA556C64002100010F67C7AF", env.RS485Data[0].Data)
}

func TestMQTTSink(t *testing.T) {
	pub := &fakePublisher{token: &fakeToken{done: true}}
	sink := NewMQTTSink(pub, "park/", 1, time.Second)
	assert.Equal(t, "park/gw-1/rs485", sink.Topic("gw-1"))

	d := &Delivery{Target: "gw-1", Envelope: testEnvelope(t)}
	require.NoError(t, sink.Deliver(context.Background(), d))
	assert.Equal(t, "park/gw-1/rs485", pub.topic)
	assert.Equal(t, byte(1), pub.qos)
	assert.Contains(t, string(pub.payload), `"error_str":"noerror"`)

	pub.token = &fakeToken{done: false}
	assert.Error(t, sink.Deliver(context.Background(), d))

	pub.token = &fakeToken{done: true, err: errors.New("not connected")}
	assert.Error(t, sink.Deliver(context.Background(), d))
}

func TestSerialSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSerialSink(&buf, 0)

	d := &Delivery{Envelope: testEnvelope(t)}
	require.NoError(t, sink.Deliver(context.Background(), d))

	first, _ := rs485.HexToBytes("AA556C64002100010F67C7AF")
	assert.True(t, bytes.HasPrefix(buf.Bytes(), first))
	assert.Len(t, buf.Bytes(), len(first)+11)

	bad := &Delivery{Envelope: envelope.WrapHex([]string{"XYZ"})}
	assert.Error(t, sink.Deliver(context.Background(), bad))
}

func TestBreaker(t *testing.T) {
	now := time.Unix(0, 0)
	b := NewBreaker(2, time.Minute)
	b.now = func() time.Time { return now }
	fail := errors.New("boom")

	_ = b.Do(func() error { return fail })
	assert.Equal(t, BreakerClosed, b.State())
	_ = b.Do(func() error { return fail })
	assert.Equal(t, BreakerOpen, b.State())
	assert.ErrorIs(t, b.Do(func() error { return nil }), ErrBreakerOpen)

	now = now.Add(2 * time.Minute)
	require.NoError(t, b.Do(func() error { return nil }))
	assert.Equal(t, BreakerHalfOpen, b.State())
	require.NoError(t, b.Do(func() error { return nil }))
	assert.Equal(t, BreakerClosed, b.State())

	_ = b.Do(func() error { return fail })
	_ = b.Do(func() error { return fail })
	now = now.Add(2 * time.Minute)
	_ = b.Do(func() error { return fail })
	assert.Equal(t, BreakerOpen, b.State())
	assert.Equal(t, int64(3), b.Trips())
}

func TestBreakerIgnoresStaleReleases(t *testing.T) {
	now := time.Unix(0, 0)
	b := NewBreaker(1, time.Minute)
	b.now = func() time.Time { return now }

	// 闭合期放行、尚未返回的投递
	slow, err := b.acquire()
	require.NoError(t, err)
	require.False(t, slow.probe)

	_ = b.Do(func() error { return errors.New("boom") })
	require.Equal(t, BreakerOpen, b.State())

	now = now.Add(2 * time.Minute)
	p1, err := b.acquire()
	require.NoError(t, err)
	assert.True(t, p1.probe)
	assert.Equal(t, BreakerHalfOpen, b.State())

	b.release(slow, nil)
	assert.Equal(t, 1, b.inFlight)

	p2, err := b.acquire()
	require.NoError(t, err)
	_, err = b.acquire()
	assert.ErrorIs(t, err, ErrBreakerOpen, "half-open admits at most two probes")

	b.release(p1, nil)
	b.release(p2, nil)
	assert.Equal(t, BreakerClosed, b.State())
	assert.Equal(t, 0, b.inFlight)

	// 上一轮半开的试探在新一轮中返回，不计入
	_ = b.Do(func() error { return errors.New("boom") })
	now = now.Add(2 * time.Minute)
	old, err := b.acquire()
	require.NoError(t, err)
	_ = b.Do(func() error { return errors.New("boom") })
	require.Equal(t, BreakerOpen, b.State())
	now = now.Add(2 * time.Minute)
	_, err = b.acquire()
	require.NoError(t, err)
	b.release(old, errors.New("late"))
	assert.Equal(t, BreakerHalfOpen, b.State())
	assert.Equal(t, 1, b.inFlight)
}

func TestTargetLimiter(t *testing.T) {
	l := NewTargetLimiter(1, 2)
	assert.True(t, l.Allow("gw-1"))
	assert.True(t, l.Allow("gw-1"))
	assert.False(t, l.Allow("gw-1"))
	assert.True(t, l.Allow("gw-2"))
	assert.Equal(t, int64(1), l.RejectedTotal())

	unlimited := NewTargetLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, unlimited.Allow("x"))
	}
}

func TestRouterDispatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewAppMetrics(reg)
	logRepo := storage.NewMemoryDispatchRepo(10)
	q := &memQueue{}

	r := NewRouter(zap.NewNop(),
		WithDispatchLog(logRepo),
		WithMetrics(m),
		WithLimiter(NewTargetLimiter(1, 1)),
	)
	r.Register(NewRedisSink(q, nil))
	ctx := context.Background()

	t.Run("随响应返回", func(t *testing.T) {
		k := &models.Kiosk{Code: "K-IN"}
		rec, err := r.Dispatch(ctx, k, "entry", testEnvelope(t))
		require.NoError(t, err)
		assert.Equal(t, models.SinkInline, rec.Sink)
		assert.Equal(t, 2, rec.FrameCount)
		assert.NotEmpty(t, rec.DispatchID)
	})

	t.Run("写入网关队列", func(t *testing.T) {
		k := &models.Kiosk{Code: "K-Q", GatewayID: "gw-9", Sink: models.SinkRedis}
		rec, err := r.Dispatch(ctx, k, "exit", testEnvelope(t))
		require.NoError(t, err)
		assert.Equal(t, "gw-9", rec.Target)
		assert.Len(t, q.msgs["gw-9"], 1)

		_, err = r.Dispatch(ctx, k, "exit", testEnvelope(t))
		assert.ErrorIs(t, err, ErrThrottled)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.DispatchTotal.WithLabelValues("redis", "throttled")))
	})

	t.Run("通道未启用", func(t *testing.T) {
		k := &models.Kiosk{Code: "K-M", Sink: models.SinkMQTT}
		rec, err := r.Dispatch(ctx, k, "entry", testEnvelope(t))
		assert.ErrorIs(t, err, ErrUnknownSink)
		assert.NotEmpty(t, rec.Error)

		recs, _ := logRepo.ListRecent(ctx, "K-M", 5)
		require.Len(t, recs, 1)
		assert.Equal(t, rec.Error, recs[0].Error)
	})
}
