package app

import (
	"context"
	"io"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/park-rs485/internal/config"
	"github.com/taoyao-code/park-rs485/internal/gateway"
	"github.com/taoyao-code/park-rs485/internal/metrics"
	"github.com/taoyao-code/park-rs485/internal/storage"
	redisstorage "github.com/taoyao-code/park-rs485/internal/storage/redis"
)

// Sinks 已打开的下发通道资源，关闭时释放
type Sinks struct {
	Router *gateway.Router
	MQTT   mqtt.Client
	serial io.Closer
}

// Close 断开 MQTT 并关闭串口
func (s *Sinks) Close() {
	if s.MQTT != nil {
		s.MQTT.Disconnect(250)
	}
	if s.serial != nil {
		_ = s.serial.Close()
	}
}

// MQTTConnected 供健康检查使用；未启用 MQTT 返回 nil
func (s *Sinks) MQTTConnected() func() bool {
	if s.MQTT == nil {
		return nil
	}
	return s.MQTT.IsConnected
}

// NewSinks 按配置注册 redis/mqtt/serial 通道；inline 始终可用
func NewSinks(cfg *cfgpkg.Config, queue *redisstorage.EnvelopeQueue, dispatch storage.DispatchRepo, appm *metrics.AppMetrics, log *zap.Logger) (*Sinks, error) {
	router := gateway.NewRouter(log,
		gateway.WithLimiter(gateway.NewTargetLimiter(cfg.Gateway.RatePerSec, cfg.Gateway.Burst)),
		gateway.WithDispatchLog(dispatch),
		gateway.WithMetrics(appm),
	)
	s := &Sinks{Router: router}

	if queue != nil {
		router.Register(gateway.NewRedisSink(queue, func(gw string, n int64) {
			appm.QueueDepth.WithLabelValues(gw).Set(float64(n))
		}))
		log.Info("sink registered", zap.String("sink", "redis"))
	}

	if cfg.MQTT.Enabled {
		client, err := gateway.NewMQTTClient(cfg.MQTT)
		if err != nil {
			return nil, err
		}
		s.MQTT = client
		router.Register(gateway.NewMQTTSink(client, cfg.MQTT.TopicPrefix, cfg.MQTT.QoS, cfg.MQTT.PublishTimeout))
		log.Info("sink registered", zap.String("sink", "mqtt"), zap.String("broker", cfg.MQTT.Broker))
	}

	if cfg.Serial.Enabled {
		port, err := gateway.OpenSerial(cfg.Serial)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.serial = port
		router.Register(gateway.NewSerialSink(port, time.Duration(cfg.Serial.FrameGapMs)*time.Millisecond))
		log.Info("sink registered", zap.String("sink", "serial"), zap.String("port", cfg.Serial.Port), zap.Int("baud", cfg.Serial.BaudRate))
	}
	return s, nil
}

// RefreshQueueDepth 定时刷新网关队列积压指标，ctx 取消后退出
func RefreshQueueDepth(ctx context.Context, queue *redisstorage.EnvelopeQueue, appm *metrics.AppMetrics, every time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			depths, err := queue.Depths(ctx)
			if err != nil {
				log.Debug("queue depth refresh failed", zap.Error(err))
				continue
			}
			for gw, n := range depths {
				appm.QueueDepth.WithLabelValues(gw).Set(float64(n))
			}
		}
	}
}
