// Package service 停车场出入口显示/语音下发业务
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/park-rs485/internal/envelope"
	"github.com/taoyao-code/park-rs485/internal/metrics"
	"github.com/taoyao-code/park-rs485/internal/protocol/rs485"
	"github.com/taoyao-code/park-rs485/internal/storage"
	"github.com/taoyao-code/park-rs485/internal/storage/models"
)

// ProfileCard 屏型卡字节帧（CRC 覆盖包头、低字节在前、序号从 0 开始）
const ProfileCard = "card"

// GPIO 网关 IO 口动作（如同步抬杆）
type GPIO struct {
	Action string `json:"action"`
	IONum  string `json:"ionum"`
}

// Result 一次下发结果
type Result struct {
	Kiosk    *models.Kiosk
	Packets  []rs485.Packet
	Envelope *envelope.Envelope
	Record   *models.DispatchRecord
}

// Dispatcher 下发路由
type Dispatcher interface {
	Dispatch(ctx context.Context, k *models.Kiosk, scene string, env *envelope.Envelope) (*models.DispatchRecord, error)
}

// DisplayService 将业务事件编码为 485 报文并下发
type DisplayService struct {
	kiosks  storage.KioskRepo
	pool    *rs485.Pool
	router  Dispatcher
	metrics *metrics.AppMetrics
	logger  *zap.Logger
	address byte
}

// NewDisplayService address 为一体机未配置地址时的默认 485 地址
func NewDisplayService(kiosks storage.KioskRepo, pool *rs485.Pool, router Dispatcher, m *metrics.AppMetrics, logger *zap.Logger, address byte) *DisplayService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if address == 0 {
		address = rs485.DefaultAddr
	}
	return &DisplayService{
		kiosks:  kiosks,
		pool:    pool,
		router:  router,
		metrics: m,
		logger:  logger,
		address: address,
	}
}

// ProfileFor 一体机编码规格：显式配置优先，否则按屏型选择
func ProfileFor(k *models.Kiosk) (rs485.Profile, error) {
	switch k.Profile {
	case "":
		switch rs485.ScreenTypeFromCode(k.ScreenType) {
		case rs485.ScreenFullColor:
			return rs485.Color(), nil
		case rs485.ScreenSmallVertical:
			return rs485.SmallVertical(), nil
		}
		return rs485.Standard(), nil
	case ProfileCard:
		return rs485.ProfileForScreen(rs485.ScreenTypeFromCode(k.ScreenType)), nil
	}
	return rs485.ProfileByName(k.Profile)
}

// Kiosk 查询一体机
func (s *DisplayService) Kiosk(ctx context.Context, code string) (*models.Kiosk, error) {
	k, err := s.kiosks.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("kiosk %s: %w", code, err)
	}
	return k, nil
}

// Encoder 一体机的编码器（同一台共用序号）
func (s *DisplayService) Encoder(k *models.Kiosk) (*rs485.Encoder, error) {
	p, err := ProfileFor(k)
	if err != nil {
		return nil, err
	}
	addr := s.address
	if k.Address > 0 && k.Address <= 0xFF {
		addr = byte(k.Address)
	}
	return s.pool.Get(k.Code, p, rs485.WithAddress(addr)), nil
}

// deliver 封装并投递；报文在投递失败时仍返回
func (s *DisplayService) deliver(ctx context.Context, k *models.Kiosk, scene string, packets []rs485.Packet, gpio *GPIO, start time.Time) (*Result, error) {
	var opts []envelope.Option
	if gpio != nil && gpio.Action != "" {
		ionum := gpio.IONum
		if ionum == "" {
			ionum = envelope.DefaultGPIONum
		}
		opts = append(opts, envelope.WithGPIO(gpio.Action, ionum))
	}
	env := envelope.Wrap(packets, opts...)
	s.countPackets(k, packets)

	res := &Result{Kiosk: k, Packets: packets, Envelope: env}
	rec, err := s.router.Dispatch(ctx, k, scene, env)
	res.Record = rec
	if s.metrics != nil {
		s.metrics.SceneLatency.WithLabelValues(scene).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrDispatch, err)
	}
	return res, nil
}

func (s *DisplayService) countPackets(k *models.Kiosk, packets []rs485.Packet) {
	if s.metrics == nil {
		return
	}
	profile, _ := ProfileFor(k)
	for _, p := range packets {
		cmd := string(p.Kind())
		if f, ok := p.(*rs485.Frame); ok {
			cmd = fmt.Sprintf("0x%02X", f.Command)
		}
		s.metrics.FramesBuilt.WithLabelValues(profile.Name, cmd).Inc()
	}
}

func (s *DisplayService) encodeFailed(code, op string, err error) error {
	kind := "other"
	switch {
	case errors.Is(err, rs485.ErrUnsupportedCommand):
		kind = "unsupported"
	case errors.Is(err, rs485.ErrPayloadTooLarge):
		kind = "payload_too_large"
	case errors.Is(err, rs485.ErrInvalidArgument), errors.Is(err, rs485.ErrInvalidInput):
		kind = "invalid_argument"
	}
	if s.metrics != nil {
		s.metrics.EncodeErrors.WithLabelValues(kind).Inc()
	}
	s.logger.Info("encode rejected", zap.String("kiosk", code), zap.String("op", op), zap.String("kind", kind), zap.Error(err))
	return err
}

// ErrDispatch 报文已生成但投递失败
var ErrDispatch = errors.New("dispatch failed")

// IsBadRequest 调用方参数问题
func IsBadRequest(err error) bool {
	return errors.Is(err, rs485.ErrInvalidArgument) ||
		errors.Is(err, rs485.ErrInvalidInput) ||
		errors.Is(err, rs485.ErrPayloadTooLarge)
}
