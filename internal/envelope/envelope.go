// Package envelope 串口网关下发报文封装（JSON）
package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/taoyao-code/park-rs485/internal/protocol/rs485"
)

// 默认值
const (
	DefaultErrorStr   = "noerror"
	DefaultErrorNum   = 0
	DefaultGPIOAction = "off"
	DefaultGPIONum    = "io1"

	EncodeHex = "hex2string"
)

// GPIO 网关 IO 口指令
type GPIO struct {
	Action string `json:"action"`
	IONum  string `json:"ionum"`
}

// RS485Data 单个数据包
type RS485Data struct {
	EncodeType string `json:"encodetype"`
	Data       string `json:"data"`
}

// Envelope 网关报文，字段顺序与网关固件解析顺序一致
type Envelope struct {
	ErrorStr  string      `json:"error_str"`
	GPIOData  []GPIO      `json:"gpio_data"`
	ErrorNum  int         `json:"error_num"`
	RS485Data []RS485Data `json:"rs485_data"`
}

// Option 封装选项
type Option func(*Envelope)

// WithGPIO 设置 IO 口动作
func WithGPIO(action, ionum string) Option {
	return func(e *Envelope) {
		e.GPIOData = []GPIO{{Action: action, IONum: ionum}}
	}
}

// WithError 设置错误信息
func WithError(str string, num int) Option {
	return func(e *Envelope) {
		e.ErrorStr = str
		e.ErrorNum = num
	}
}

// Wrap 按生成顺序封装数据包
func Wrap(packets []rs485.Packet, opts ...Option) *Envelope {
	e := &Envelope{
		ErrorStr:  DefaultErrorStr,
		GPIOData:  []GPIO{{Action: DefaultGPIOAction, IONum: DefaultGPIONum}},
		ErrorNum:  DefaultErrorNum,
		RS485Data: make([]RS485Data, 0, len(packets)),
	}
	for _, p := range packets {
		e.RS485Data = append(e.RS485Data, RS485Data{EncodeType: EncodeHex, Data: p.Hex()})
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WrapHex 封装已是十六进制字符串的数据
func WrapHex(frames []string, opts ...Option) *Envelope {
	e := Wrap(nil, opts...)
	for _, f := range frames {
		e.RS485Data = append(e.RS485Data, RS485Data{EncodeType: EncodeHex, Data: f})
	}
	return e
}

// Marshal 序列化
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Frames 解出各包原始字节
func (e *Envelope) Frames() ([][]byte, error) {
	out := make([][]byte, 0, len(e.RS485Data))
	for i, d := range e.RS485Data {
		if d.EncodeType != EncodeHex {
			return nil, fmt.Errorf("rs485_data[%d]: unsupported encodetype %q", i, d.EncodeType)
		}
		b, err := rs485.HexToBytes(d.Data)
		if err != nil {
			return nil, fmt.Errorf("rs485_data[%d]: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// Parse 反序列化
func Parse(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}
	return &e, nil
}
