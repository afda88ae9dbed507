// Package gateway 将封装好的下发报文送到串口网关
package gateway

import (
	"context"
	"errors"

	"github.com/taoyao-code/park-rs485/internal/envelope"
)

var (
	// ErrUnknownSink 一体机配置的下发通道未启用
	ErrUnknownSink = errors.New("gateway: sink not available")
	// ErrThrottled 目标网关下发过于频繁
	ErrThrottled = errors.New("gateway: throttled")
)

// Delivery 一次下发
type Delivery struct {
	ID       string
	Kiosk    string
	Scene    string
	Target   string // 网关 ID，无网关时为一体机编码
	Envelope *envelope.Envelope
}

// Sink 下发通道
type Sink interface {
	Name() string
	Deliver(ctx context.Context, d *Delivery) error
}

// InlineSink 不做投递，报文随 HTTP 响应返回给调用方转发
type InlineSink struct{}

func (InlineSink) Name() string { return "inline" }

func (InlineSink) Deliver(context.Context, *Delivery) error { return nil }
