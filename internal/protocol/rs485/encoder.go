package rs485

import (
	"fmt"
	"time"
)

// Encoder 按设备规格生成下行包，持有独立的帧序号。
// 序号只在成功生成帧时前进，校验失败不消耗序号。
type Encoder struct {
	profile Profile
	address byte
	text    *TextEncoder
	seq     *Sequence
}

// Option 编码器选项
type Option func(*Encoder)

// WithAddress 设置设备地址（默认 0x64）
func WithAddress(addr byte) Option {
	return func(e *Encoder) { e.address = addr }
}

// WithTextEncoder 设置文本编码器
func WithTextEncoder(te *TextEncoder) Option {
	return func(e *Encoder) {
		if te != nil {
			e.text = te
		}
	}
}

// WithInitialSeq 覆盖规格默认的初始序号
func WithInitialSeq(v byte) Option {
	return func(e *Encoder) { e.seq = NewSequence(v) }
}

// NewEncoder 创建编码器
func NewEncoder(p Profile, opts ...Option) *Encoder {
	e := &Encoder{
		profile: p,
		address: DefaultAddr,
		text:    DefaultText,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.seq == nil {
		e.seq = NewSequence(p.InitialSeq)
	}
	return e
}

// Profile 设备规格
func (e *Encoder) Profile() Profile { return e.profile }

// Address 设备地址
func (e *Encoder) Address() byte { return e.address }

// NextSeq 下一帧将使用的序号
func (e *Encoder) NextSeq() byte { return e.seq.Peek() }

// TextEncoder 文本编码器
func (e *Encoder) TextEncoder() *TextEncoder { return e.text }

// BuildFrame 用任意指令与载荷组帧
func (e *Encoder) BuildFrame(cmd byte, payload []byte) (*Frame, error) {
	return e.one(e.NewBatch().Raw(cmd, payload))
}

// DisplayLine 下发临显（标准屏 0x27，彩屏 0x37），duration 秒，0 为长期
func (e *Encoder) DisplayLine(line, color int, text string, duration int) (*Frame, error) {
	return e.one(e.NewBatch().DisplayLine(line, color, text, duration))
}

// LoadAd 加载固定广告行（标准屏 0x25，彩屏 0x35）
func (e *Encoder) LoadAd(line, color int, text string) (*Frame, error) {
	return e.one(e.NewBatch().LoadAd(line, color, text))
}

// ParkingSpaceRow 剩余车位虚拟行（行 6，"剩余车位%03d"）
func (e *Encoder) ParkingSpaceRow(count, duration, color int) (*Frame, error) {
	return e.one(e.NewBatch().ParkingSpaceRow(count, duration, color))
}

// CancelDisplay 按行掩码取消临显，bit0..bit3 对应 1..4 行
func (e *Encoder) CancelDisplay(mask int) (*Frame, error) {
	return e.one(e.NewBatch().CancelDisplay(mask))
}

// CancelAll 取消全部临显
func (e *Encoder) CancelAll() (*Frame, error) {
	return e.CancelDisplay(0x0F)
}

// CancelLine 取消某一行临显
func (e *Encoder) CancelLine(line int) (*Frame, error) {
	return e.one(e.NewBatch().CancelLine(line))
}

// PlayVoice 按语音索引播报
func (e *Encoder) PlayVoice(indices ...byte) (*Frame, error) {
	return e.one(e.NewBatch().PlayVoice(indices...))
}

// PlayVoiceText 播报文本（可内嵌索引字符）
func (e *Encoder) PlayVoiceText(text string) (*Frame, error) {
	return e.one(e.NewBatch().PlayVoiceText(text))
}

// PlayPlate 车牌 + 单个语音索引
func (e *Encoder) PlayPlate(plate string, index byte) (*Frame, error) {
	return e.one(e.NewBatch().PlayPlate(plate, index))
}

// QRCode 显示二维码（0x28），内容中的查询参数做 URL 编码
func (e *Encoder) QRCode(mode, duration, color int, content string) (*Frame, error) {
	return e.one(e.NewBatch().QRCode(mode, duration, color, content))
}

// SmallScreen 小竖屏四行（0x29）
func (e *Encoder) SmallScreen(lines []ScreenLine) (*Frame, error) {
	return e.one(e.NewBatch().SmallScreen(lines))
}

// QueryVersion 查询版本
func (e *Encoder) QueryVersion() (*Frame, error) {
	return e.one(e.NewBatch().QueryVersion())
}

// SetTime 校时
func (e *Encoder) SetTime(t time.Time) (*Frame, error) {
	return e.one(e.NewBatch().SetTime(t))
}

// SetVolume 音量 0-9，越界截断
func (e *Encoder) SetVolume(v int) (*Frame, error) {
	return e.one(e.NewBatch().SetVolume(v))
}

// SetAnimation 彩屏：是否插播动画
func (e *Encoder) SetAnimation(enable bool) (*Frame, error) {
	return e.one(e.NewBatch().SetAnimation(enable))
}

// SetCompatibilityMode 彩屏：兼容指令按行随机
func (e *Encoder) SetCompatibilityMode(lineRandom bool) (*Frame, error) {
	return e.one(e.NewBatch().SetCompatibilityMode(lineRandom))
}

// Speak TTS 播报
func (e *Encoder) Speak(text string) (*TTSPacket, error) {
	return BuildTTS(e.text, text)
}

func (e *Encoder) one(b *Batch) (*Frame, error) {
	packets, err := b.Seal()
	if err != nil {
		return nil, err
	}
	f, ok := packets[0].(*Frame)
	if !ok {
		return nil, fmt.Errorf("%w: expected frame, got %s", ErrInvalidArgument, packets[0].Kind())
	}
	return f, nil
}
