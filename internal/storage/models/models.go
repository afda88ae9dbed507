package models

import (
	"encoding/json"
	"time"
)

// 注意：
// - 保持与 internal/migrate/sql/0001_init_up.sql 对齐
// - 不使用 gorm.Model，显式声明每个字段，避免隐式 DeletedAt

// 下发通道
const (
	SinkInline = "inline" // 随 HTTP 响应返回，由调用方（相机/岗亭）转发
	SinkRedis  = "redis"  // 网关拉取
	SinkMQTT   = "mqtt"
	SinkSerial = "serial" // 本机串口直连
)

// 出入口方向
const (
	DirectionEntry = "entry"
	DirectionExit  = "exit"
)

// Kiosk 映射 kiosks 表：一台显示/语音一体机
type Kiosk struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id" yaml:"-"`
	Code string `gorm:"column:code;type:varchar(64);not null;uniqueIndex" json:"code" yaml:"code"`
	Name string `gorm:"column:name;type:text;not null;default:''" json:"name" yaml:"name"`
	// 屏型代码 1-6，见 rs485.ScreenType
	ScreenType int `gorm:"column:screen_type;not null;default:4" json:"screen_type" yaml:"screen_type"`
	// 编码规格：空串按屏型选 AA55 规格；standard/color/small_vertical/tts；card 为屏型卡字节帧
	Profile string `gorm:"column:profile;type:varchar(32);not null;default:''" json:"profile" yaml:"profile"`
	// 485 设备地址，0 使用默认地址
	Address   int    `gorm:"column:address;not null;default:0" json:"address" yaml:"address"`
	GatewayID string `gorm:"column:gateway_id;type:varchar(64);not null;default:''" json:"gateway_id" yaml:"gateway_id"`
	Sink      string `gorm:"column:sink;type:varchar(16);not null;default:'inline'" json:"sink" yaml:"sink"`
	Direction string `gorm:"column:direction;type:varchar(16);not null;default:'entry'" json:"direction" yaml:"direction"`
	// 审计字段
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at" yaml:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at" yaml:"-"`
}

func (Kiosk) TableName() string { return "kiosks" }

// Target 下发目标：有网关按网关，否则按一体机编码
func (k *Kiosk) Target() string {
	if k.GatewayID != "" {
		return k.GatewayID
	}
	return k.Code
}

// DispatchRecord 映射 dispatch_log 表
type DispatchRecord struct {
	ID         int64           `json:"id"`
	DispatchID string          `json:"dispatch_id"`
	KioskCode  string          `json:"kiosk_code"`
	Scene      string          `json:"scene"`
	Sink       string          `json:"sink"`
	Target     string          `json:"target"`
	FrameCount int             `json:"frame_count"`
	Envelope   json.RawMessage `json:"envelope"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
