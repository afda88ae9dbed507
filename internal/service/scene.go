package service

import (
	"context"
	"fmt"
	"time"

	"github.com/taoyao-code/park-rs485/internal/protocol/rs485"
	"github.com/taoyao-code/park-rs485/internal/scene"
)

// 场景名
const (
	SceneEntry          = "entry"
	SceneExit           = "exit"
	ScenePayment        = "payment"
	ScenePaymentSuccess = "payment-success"
	SceneConsumption    = "consumption"
	SceneCapacity       = "capacity"
	SceneSmartParking   = "smart-parking"
	SceneWelcome        = "welcome"
	SceneMaintenance    = "maintenance"
)

// SceneRequest 场景参数；金额为元，允许小数（取整数部分）
type SceneRequest struct {
	Plate  string `json:"plate"`
	Amount string `json:"amount"`
	Spaces int    `json:"spaces"`
	PayURL string `json:"pay_url"`
	GPIO   *GPIO  `json:"gpio,omitempty"`
}

func (r SceneRequest) amount() (uint32, error) {
	if r.Amount == "" {
		return 0, nil
	}
	return scene.ParseAmount(r.Amount)
}

// Scene 组合并下发一个业务场景
func (s *DisplayService) Scene(ctx context.Context, code, name string, req SceneRequest) (*Result, error) {
	start := time.Now()
	k, err := s.Kiosk(ctx, code)
	if err != nil {
		return nil, err
	}
	enc, err := s.Encoder(k)
	if err != nil {
		return nil, s.encodeFailed(code, name, err)
	}

	packets, err := ComposeScene(enc, name, req)
	if err != nil {
		return nil, s.encodeFailed(code, name, err)
	}
	return s.deliver(ctx, k, name, packets, req.GPIO, start)
}

// ComposeScene 仅编码不下发，供离线工具复用
func ComposeScene(enc *rs485.Encoder, name string, req SceneRequest) ([]rs485.Packet, error) {
	c := scene.NewComposer(enc)
	amount, err := req.amount()
	if err != nil {
		return nil, err
	}
	if req.Spaces < 0 {
		return nil, fmt.Errorf("%w: spaces %d", rs485.ErrInvalidArgument, req.Spaces)
	}

	switch name {
	case SceneEntry:
		return c.Entry(req.Plate, req.Spaces)
	case SceneExit:
		return c.Exit(req.Plate, amount)
	case ScenePayment:
		return c.Payment(amount, req.PayURL)
	case ScenePaymentSuccess:
		return c.PaymentSuccess(req.Plate, amount)
	case SceneConsumption:
		return c.Consumption(amount)
	case SceneCapacity:
		return c.CapacityWarning(req.Spaces)
	case SceneSmartParking:
		return c.SmartParking(req.Spaces)
	case SceneWelcome:
		return c.Welcome()
	case SceneMaintenance:
		return c.Maintenance()
	}
	return nil, fmt.Errorf("%w: unknown scene %q", rs485.ErrInvalidArgument, name)
}
