package gateway

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
	"golang.org/x/time/rate"

	cfgpkg "github.com/taoyao-code/park-rs485/internal/config"
	"github.com/taoyao-code/park-rs485/internal/storage/models"
)

// OpenSerial 打开本机 485 串口（8N1）
func OpenSerial(cfg cfgpkg.SerialConfig) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Port, err)
	}
	return port, nil
}

// SerialSink 直接写串口；设备需要帧间隔，按 frameGap 限速
type SerialSink struct {
	mu      sync.Mutex
	port    io.Writer
	limiter *rate.Limiter
}

// NewSerialSink frameGap<=0 不限速
func NewSerialSink(port io.Writer, frameGap time.Duration) *SerialSink {
	limit := rate.Inf
	if frameGap > 0 {
		limit = rate.Every(frameGap)
	}
	return &SerialSink{port: port, limiter: rate.NewLimiter(limit, 1)}
}

func (s *SerialSink) Name() string { return models.SinkSerial }

// Deliver 解出帧后逐帧写入
func (s *SerialSink) Deliver(ctx context.Context, d *Delivery) error {
	frames, err := d.Envelope.Frames()
	if err != nil {
		return err
	}
	return s.WriteFrames(ctx, frames)
}

// WriteFrames 整个报文期间独占串口，帧间按 frameGap 限速
func (s *SerialSink) WriteFrames(ctx context.Context, frames [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range frames {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("serial frame %d: %w", i, err)
		}
		if _, err := s.port.Write(f); err != nil {
			return fmt.Errorf("serial frame %d: %w", i, err)
		}
	}
	return nil
}
