package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	cfgpkg "github.com/taoyao-code/park-rs485/internal/config"
	"github.com/taoyao-code/park-rs485/internal/storage/models"
)

// Publisher mqtt.Client 的发布子集
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
}

// NewMQTTClient 连接 broker（自动重连）
func NewMQTTClient(cfg cfgpkg.MQTTConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(60 * time.Second).
		SetPingTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if ok := token.WaitTimeout(10 * time.Second); !ok {
		return nil, fmt.Errorf("mqtt connect timeout: %s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return client, nil
}

// MQTTSink 发布到 <prefix>/<gateway>/rs485
type MQTTSink struct {
	client  Publisher
	prefix  string
	qos     byte
	timeout time.Duration
}

func NewMQTTSink(client Publisher, prefix string, qos byte, timeout time.Duration) *MQTTSink {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &MQTTSink{client: client, prefix: strings.TrimSuffix(prefix, "/"), qos: qos, timeout: timeout}
}

func (s *MQTTSink) Name() string { return models.SinkMQTT }

// Topic 网关下发主题
func (s *MQTTSink) Topic(gateway string) string {
	if s.prefix == "" {
		return gateway + "/rs485"
	}
	return s.prefix + "/" + gateway + "/rs485"
}

func (s *MQTTSink) Deliver(ctx context.Context, d *Delivery) error {
	data, err := d.Envelope.Marshal()
	if err != nil {
		return err
	}
	token := s.client.Publish(s.Topic(d.Target), s.qos, false, data)

	timeout := s.timeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt publish %s: timeout", s.Topic(d.Target))
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", s.Topic(d.Target), err)
	}
	return nil
}

// Connected 健康检查用
func (s *MQTTSink) Connected() bool {
	return s.client.IsConnected()
}
